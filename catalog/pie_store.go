package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/optimistic"
)

// Interface assertion to ensure PieStore can back the resolver
var _ optimistic.Store[int64] = (*PieStore)(nil)

// VersionFunc issues version tokens.
type VersionFunc func() string

// NewVersion issues a random version token.
func NewVersion() string {
	return uuid.NewString()
}

// PieStore exposes the pies table as a versioned record store. Every
// successful write issues a new row version.
type PieStore struct {
	db         bun.IDB
	newVersion VersionFunc
}

// NewPieStore creates a store over db. A nil newVersion uses NewVersion.
func NewPieStore(db bun.IDB, newVersion VersionFunc) *PieStore {
	if newVersion == nil {
		newVersion = NewVersion
	}
	return &PieStore{db: db, newVersion: newVersion}
}

// ConditionalWrite updates the given pie columns in a single statement
// guarded by the expected row version. Fields the pies table cannot take are
// refused with *optimistic.InvalidArgumentError before the database is
// touched.
func (s *PieStore) ConditionalWrite(ctx context.Context, id int64, expectedVersion string, fields optimistic.Fields) (string, error) {
	if len(fields) == 0 {
		return "", &optimistic.InvalidArgumentError{
			Reason: fmt.Sprintf("pie %d: no fields to write", id),
		}
	}

	var scratch Pie
	q := s.db.NewUpdate().Model((*Pie)(nil))
	for _, field := range fields {
		f, ok := pieFieldsByColumn[field.Name]
		if !ok {
			return "", fmt.Errorf("%w: %w", ErrUnknownPieField, &optimistic.InvalidArgumentError{
				Reason: fmt.Sprintf("pie %d: column %q is not editable", id, field.Name),
			})
		}
		if !f.set(&scratch, field.Value) {
			return "", &optimistic.InvalidArgumentError{
				Reason: fmt.Sprintf("pie %d: field %q does not accept a %T", id, field.Name, field.Value),
			}
		}
		q = q.Set("? = ?", bun.Ident(field.Name), f.get(&scratch))
	}

	next := s.newVersion()
	res, err := q.
		Set("row_version = ?", next).
		Where("id = ?", id).
		Where("row_version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("catalog: update pie %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("catalog: update pie %d: %w", id, err)
	}
	if affected == 1 {
		return next, nil
	}

	exists, err := s.db.NewSelect().Model((*Pie)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("catalog: check pie %d: %w", id, err)
	}
	if !exists {
		return "", fmt.Errorf("pie %d: %w", id, optimistic.ErrNotFound)
	}
	return "", fmt.Errorf("pie %d: %w", id, optimistic.ErrVersionMismatch)
}

// Read loads the persisted pie as a record.
func (s *PieStore) Read(ctx context.Context, id int64) (optimistic.Record[int64], error) {
	pie := new(Pie)
	err := s.db.NewSelect().Model(pie).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return optimistic.Record[int64]{}, fmt.Errorf("pie %d: %w", id, optimistic.ErrNotFound)
	}
	if err != nil {
		return optimistic.Record[int64]{}, fmt.Errorf("catalog: read pie %d: %w", id, err)
	}
	return pie.Record(), nil
}
