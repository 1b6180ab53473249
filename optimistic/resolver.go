package optimistic

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Record is a versioned entity snapshot.
type Record[K comparable] struct {
	ID     K
	Fields Fields
	// Version is the opaque token issued by the store on every write.
	Version string
}

// Store is the persistence capability the Resolver depends on.
type Store[K comparable] interface {
	// ConditionalWrite writes fields to the record only if its persisted
	// version token equals expectedVersion, and returns the new token.
	// It returns ErrVersionMismatch or ErrNotFound (possibly wrapped)
	// when the write was refused. The compare and the write must be atomic.
	ConditionalWrite(ctx context.Context, id K, expectedVersion string, fields Fields) (string, error)

	// Read returns the persisted record or ErrNotFound.
	Read(ctx context.Context, id K) (Record[K], error)
}

// Status tells which way an update attempt went.
type Status int

const (
	StatusSuccess Status = iota + 1
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// FieldConflict describes a field changed by someone else.
type FieldConflict struct {
	Name      string
	Attempted any
	Current   any
}

// ConflictReport is built for every refused update. It is transient and is
// never persisted.
type ConflictReport[K comparable] struct {
	RecordID       K
	FieldConflicts []FieldConflict
	// Deleted is true when the record no longer exists. FieldConflicts is
	// then empty and MergedCandidate nil.
	Deleted         bool
	MergedCandidate *Record[K]
}

// Field returns the conflict recorded for name, if any.
func (r *ConflictReport[K]) Field(name string) (FieldConflict, bool) {
	for _, c := range r.FieldConflicts {
		if c.Name == name {
			return c, true
		}
	}
	return FieldConflict{}, false
}

// ConflictingNames lists the contested field names in order.
func (r *ConflictReport[K]) ConflictingNames() []string {
	names := make([]string, len(r.FieldConflicts))
	for i, c := range r.FieldConflicts {
		names[i] = c.Name
	}
	return names
}

// Outcome is the result of AttemptUpdate.
type Outcome[K comparable] struct {
	Status Status
	// Version is the new token when Status is StatusSuccess.
	Version  string
	Conflict *ConflictReport[K]
}

// Succeeded reports whether the write went through.
func (o Outcome[K]) Succeeded() bool {
	return o.Status == StatusSuccess
}

type options struct {
	logger log.FieldLogger
}

// Option configures a Resolver.
type Option func(*options)

// WithLogger sets the logger used to report conflicts.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Resolver runs conditional updates and explains the ones that fail.
// It holds no mutable state and is safe for concurrent use.
type Resolver[K comparable] struct {
	logger log.FieldLogger
}

// NewResolver creates a Resolver for records identified by K.
func NewResolver[K comparable](opts ...Option) *Resolver[K] {
	o := options{logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver[K]{logger: o.logger}
}

// AttemptUpdate writes attempted.Fields to the store conditioned on
// expected.Version. attempted.Version is ignored.
//
// A refused write is returned as an Outcome with StatusConflict, never as an
// error. Errors are reserved for *InvalidArgumentError (the inputs can never
// be written, as judged here or by the store) and *TransientError (the store
// failed). Nothing is retried.
func (r *Resolver[K]) AttemptUpdate(ctx context.Context, store Store[K], expected, attempted Record[K]) (Outcome[K], error) {
	if expected.ID != attempted.ID {
		return Outcome[K]{}, &InvalidArgumentError{
			Reason: fmt.Sprintf("expected id %v does not match attempted id %v", expected.ID, attempted.ID),
		}
	}
	if store == nil {
		return Outcome[K]{}, &InvalidArgumentError{Reason: "store is nil"}
	}
	if len(attempted.Fields) == 0 {
		return Outcome[K]{}, &InvalidArgumentError{Reason: "attempted record has no fields"}
	}

	version, err := store.ConditionalWrite(ctx, expected.ID, expected.Version, attempted.Fields.Clone())
	switch {
	case err == nil:
		return Outcome[K]{Status: StatusSuccess, Version: version}, nil
	case errors.Is(err, ErrNotFound):
		return r.deleted(expected.ID), nil
	case errors.Is(err, ErrInvalidArgument):
		return Outcome[K]{}, err
	case !errors.Is(err, ErrVersionMismatch):
		return Outcome[K]{}, &TransientError{Op: "conditional write", Err: err}
	}

	actual, err := store.Read(ctx, expected.ID)
	if errors.Is(err, ErrNotFound) {
		return r.deleted(expected.ID), nil
	}
	if err != nil {
		return Outcome[K]{}, &TransientError{Op: "read current record", Err: err}
	}

	report := Diff(expected, attempted, actual)
	r.logger.WithFields(log.Fields{
		"record_id": expected.ID,
		"fields":    report.ConflictingNames(),
	}).Debug("optimistic update conflict")

	return Outcome[K]{Status: StatusConflict, Conflict: report}, nil
}

func (r *Resolver[K]) deleted(id K) Outcome[K] {
	r.logger.WithField("record_id", id).Debug("optimistic update target deleted")
	return Outcome[K]{
		Status:   StatusConflict,
		Conflict: &ConflictReport[K]{RecordID: id, Deleted: true},
	}
}

// Diff compares expected and actual for every field of attempted and builds
// the conflict report. A field conflicts when its persisted value moved away
// from the value the caller started from.
func Diff[K comparable](expected, attempted, actual Record[K]) *ConflictReport[K] {
	report := &ConflictReport[K]{RecordID: attempted.ID}
	merged := make(Fields, 0, len(attempted.Fields)+len(actual.Fields))

	for _, field := range attempted.Fields {
		want, inExpected := expected.Fields.Get(field.Name)
		current, inActual := actual.Fields.Get(field.Name)

		unchanged := inExpected == inActual && (!inActual || Equal(want, current))
		if unchanged {
			merged = append(merged, field)
			continue
		}

		report.FieldConflicts = append(report.FieldConflicts, FieldConflict{
			Name:      field.Name,
			Attempted: field.Value,
			Current:   current,
		})
		if inActual {
			merged = append(merged, Field{Name: field.Name, Value: current})
		}
	}

	for _, field := range actual.Fields {
		if !attempted.Fields.Has(field.Name) {
			merged = append(merged, field)
		}
	}

	report.MergedCandidate = &Record[K]{
		ID:      actual.ID,
		Fields:  merged,
		Version: actual.Version,
	}
	return report
}
