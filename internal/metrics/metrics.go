package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a pie update attempt.
const (
	OutcomeSuccess   = "success"
	OutcomeConflict  = "conflict"
	OutcomeDeleted   = "deleted"
	OutcomeTransient = "transient"
	OutcomeInvalid   = "invalid"
)

// Recorder counts pie update outcomes.
type Recorder struct {
	updateOutcomes *prometheus.CounterVec
}

// NewRecorder creates an unregistered recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		updateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pie_update_outcomes_total",
			Help: "pie update attempts by outcome",
		}, []string{"outcome"}),
	}
}

// Register adds the recorder's collectors to reg. When reg already holds an
// identical counter the recorder switches to it.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	err := reg.Register(r.updateOutcomes)
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			r.updateOutcomes = existing
			return nil
		}
	}
	return err
}

// ObserveOutcome counts one update attempt.
func (r *Recorder) ObserveOutcome(outcome string) {
	r.updateOutcomes.WithLabelValues(outcome).Inc()
}

// UpdateOutcomes exposes the counter for inspection.
func (r *Recorder) UpdateOutcomes() *prometheus.CounterVec {
	return r.updateOutcomes
}
