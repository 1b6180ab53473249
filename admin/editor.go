package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/goliatone/go-pieshop-admin/catalog"
	"github.com/goliatone/go-pieshop-admin/internal/metrics"
	"github.com/goliatone/go-pieshop-admin/optimistic"
)

// Messages shown on the pie edit form.
const (
	MsgPieMissing  = "The pie you want to update doesn't exist or was already deleted by someone else."
	MsgPieDeleted  = "The pie was already deleted by another user."
	MsgPieModified = "The pie was modified already by another user. The database values are now shown. Hit Save again to store these values."
	MsgPieFailed   = "Updating the pie failed, please try again!"
	MsgPieSaved    = "Pie updated successfully!"
)

// EditStatus is the result of an edit attempt.
type EditStatus string

const (
	EditSaved    EditStatus = "saved"
	EditConflict EditStatus = "conflict"
	EditDeleted  EditStatus = "deleted"
	EditMissing  EditStatus = "missing"
	EditFailed   EditStatus = "failed"
)

// PieEditForm is a submitted pie edit. Pie holds the submitted values along
// with the pie id and the row version the editor started from. Original holds
// the values the editor was shown; without it the submitted values stand in.
type PieEditForm struct {
	Pie      catalog.Pie  `json:"pie"`
	Original *catalog.Pie `json:"original,omitempty"`
}

// EditResult is what the edit form shows after a submit. On a conflict Pie
// is the merged candidate carrying the current row version, so saving it
// again stores it.
type EditResult struct {
	Status      EditStatus                        `json:"status"`
	Message     string                            `json:"message"`
	FieldErrors map[string]string                 `json:"fieldErrors,omitempty"`
	Pie         *catalog.Pie                      `json:"pie,omitempty"`
	Categories  []SelectItem                      `json:"categories,omitempty"`
	Conflict    *optimistic.ConflictReport[int64] `json:"-"`
}

// OutcomeObserver counts edit outcomes.
type OutcomeObserver interface {
	ObserveOutcome(outcome string)
}

type pieLookup interface {
	GetByID(ctx context.Context, id int64) (*catalog.Pie, error)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(string) {}

// PieEditor runs the optimistic edit workflow for pies.
type PieEditor struct {
	pies     pieLookup
	store    optimistic.Store[int64]
	resolver *optimistic.Resolver[int64]
	observer OutcomeObserver
	logger   log.FieldLogger
}

// EditorOption configures a PieEditor.
type EditorOption func(*PieEditor)

// WithObserver sets the outcome observer.
func WithObserver(o OutcomeObserver) EditorOption {
	return func(e *PieEditor) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithEditorLogger sets the logger.
func WithEditorLogger(l log.FieldLogger) EditorOption {
	return func(e *PieEditor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStore replaces the store writes go to.
func WithStore(s optimistic.Store[int64]) EditorOption {
	return func(e *PieEditor) {
		if s != nil {
			e.store = s
		}
	}
}

// NewPieEditor creates an editor writing through pies.Store().
func NewPieEditor(pies *catalog.PieRepository, resolver *optimistic.Resolver[int64], opts ...EditorOption) *PieEditor {
	e := &PieEditor{
		pies:     pies,
		store:    pies.Store(),
		resolver: resolver,
		observer: nopObserver{},
		logger:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Edit stores the submitted pie unless someone else changed or deleted it
// since the editor loaded it. Invalid input is returned as an error; every
// other outcome is described by the result.
func (e *PieEditor) Edit(ctx context.Context, form PieEditForm) (*EditResult, error) {
	submitted := form.Pie
	if err := submitted.Validate(); err != nil {
		e.observer.ObserveOutcome(metrics.OutcomeInvalid)
		return nil, err
	}

	if _, err := e.pies.GetByID(ctx, submitted.PieID); err != nil {
		if errors.Is(err, catalog.ErrPieNotFound) {
			e.observer.ObserveOutcome(metrics.OutcomeDeleted)
			return &EditResult{Status: EditMissing, Message: MsgPieMissing}, nil
		}
		e.observer.ObserveOutcome(metrics.OutcomeTransient)
		e.logger.WithError(err).WithField("pie_id", submitted.PieID).Error("failed to load pie for edit")
		return &EditResult{Status: EditFailed, Message: MsgPieFailed, Pie: &submitted}, nil
	}

	original := submitted
	if form.Original != nil {
		original = *form.Original
	}
	expected := original.Record()
	expected.ID = submitted.PieID
	expected.Version = submitted.RowVersion
	attempted := submitted.Record()

	outcome, err := e.resolver.AttemptUpdate(ctx, e.store, expected, attempted)
	switch {
	case errors.Is(err, optimistic.ErrInvalidArgument):
		e.observer.ObserveOutcome(metrics.OutcomeInvalid)
		return nil, err
	case err != nil:
		e.observer.ObserveOutcome(metrics.OutcomeTransient)
		e.logger.WithError(err).WithField("pie_id", submitted.PieID).Error("failed to update pie")
		return &EditResult{Status: EditFailed, Message: MsgPieFailed, Pie: &submitted}, nil
	}

	if outcome.Succeeded() {
		e.observer.ObserveOutcome(metrics.OutcomeSuccess)
		submitted.RowVersion = outcome.Version
		return &EditResult{Status: EditSaved, Message: MsgPieSaved, Pie: &submitted}, nil
	}

	report := outcome.Conflict
	if report.Deleted {
		e.observer.ObserveOutcome(metrics.OutcomeDeleted)
		return &EditResult{Status: EditDeleted, Message: MsgPieDeleted, Conflict: report}, nil
	}

	e.observer.ObserveOutcome(metrics.OutcomeConflict)
	merged, err := catalog.PieFromRecord(*report.MergedCandidate)
	if err != nil {
		return nil, fmt.Errorf("admin: rebuild merged pie %d: %w", submitted.PieID, err)
	}
	return &EditResult{
		Status:      EditConflict,
		Message:     MsgPieModified,
		FieldErrors: conflictMessages(report.FieldConflicts),
		Pie:         merged,
		Conflict:    report,
	}, nil
}

// conflictMessages keys a "Current value" message by form field for every
// conflicting column.
func conflictMessages(conflicts []optimistic.FieldConflict) map[string]string {
	messages := make(map[string]string, len(conflicts))
	for _, fc := range conflicts {
		name, ok := catalog.PieFieldName(fc.Name)
		if !ok {
			name = fc.Name
		}
		messages["Pie."+name] = "Current value: " + formatValue(fc.Name, fc.Current)
	}
	return messages
}

func formatValue(column string, v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case float64:
		if column == "price" {
			return fmt.Sprintf("$%.2f", value)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
