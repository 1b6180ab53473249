package catalog

import (
	"context"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// PieRepository reads and writes pies through the generic bun repository.
// Edits go through PieStore so they stay guarded by the row version.
type PieRepository struct {
	repo  repository.Repository[*Pie]
	store *PieStore
}

// NewPieRepository creates a repository over db. Row versions are issued
// by newVersion, or NewVersion when nil.
func NewPieRepository(db *bun.DB, newVersion VersionFunc) *PieRepository {
	return &PieRepository{repo: NewPieRecords(db), store: NewPieStore(db, newVersion)}
}

// Store returns the versioned store used for optimistic edits.
func (r *PieRepository) Store() *PieStore {
	return r.store
}

// List returns every pie matching the criteria. Without criteria pies are
// ordered by id.
func (r *PieRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Pie, error) {
	if len(criteria) == 0 {
		criteria = []repository.SelectCriteria{SortPies(SortByID)}
	}
	pies, _, err := r.repo.List(ctx, append([]repository.SelectCriteria{AllRows()}, criteria...)...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list pies: %w", err)
	}
	return pies, nil
}

// GetByID returns the pie with its category.
func (r *PieRepository) GetByID(ctx context.Context, id int64) (*Pie, error) {
	pie, err := r.repo.GetByID(ctx, FormatID(id), repository.SelectRelation("Category"))
	if repository.IsRecordNotFound(err) {
		return nil, ErrPieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get pie %d: %w", id, err)
	}
	return pie, nil
}

// Create inserts pie and assigns its id and first row version.
func (r *PieRepository) Create(ctx context.Context, pie *Pie) error {
	if err := pie.Validate(); err != nil {
		return err
	}
	pie.PieID = 0
	pie.RowVersion = r.store.newVersion()
	if _, err := r.repo.Create(ctx, pie); err != nil {
		return fmt.Errorf("catalog: create pie: %w", err)
	}
	return nil
}

// Update writes pie conditioned on pie.RowVersion and stores the new row
// version on pie. A stale version yields optimistic.ErrVersionMismatch; use
// the resolver when the caller needs the conflicting fields.
func (r *PieRepository) Update(ctx context.Context, pie *Pie) error {
	if err := pie.Validate(); err != nil {
		return err
	}
	version, err := r.store.ConditionalWrite(ctx, pie.PieID, pie.RowVersion, pie.Fields())
	if err != nil {
		return err
	}
	pie.RowVersion = version
	return nil
}

// Delete removes the pie.
func (r *PieRepository) Delete(ctx context.Context, id int64) error {
	pie, err := r.repo.GetByID(ctx, FormatID(id))
	if repository.IsRecordNotFound(err) {
		return ErrPieNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog: delete pie %d: %w", id, err)
	}
	if err := r.repo.Delete(ctx, pie); err != nil {
		return fmt.Errorf("catalog: delete pie %d: %w", id, err)
	}
	return nil
}

// Count returns the number of pies matching the criteria.
func (r *PieRepository) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	n, err := r.repo.Count(ctx, criteria...)
	if err != nil {
		return 0, fmt.Errorf("catalog: count pies: %w", err)
	}
	return n, nil
}

// ListPaged returns one page of pies ordered by id.
func (r *PieRepository) ListPaged(ctx context.Context, page, size int) ([]*Pie, error) {
	return r.List(ctx, SortPies(SortByID), Paginate(page, size))
}

// ListSortedPaged returns one page of pies in the order named by sortBy.
func (r *PieRepository) ListSortedPaged(ctx context.Context, sortBy string, page, size int) ([]*Pie, error) {
	return r.List(ctx, SortPies(sortBy), Paginate(page, size))
}

// Search returns pies whose texts contain query, optionally limited to a
// category.
func (r *PieRepository) Search(ctx context.Context, query string, categoryID *int64) ([]*Pie, error) {
	return r.List(ctx, MatchText(query), InCategory(categoryID), SortPies(SortByID))
}
