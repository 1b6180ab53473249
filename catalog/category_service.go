package catalog

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/bun"
)

// CategoryRename is one entry of a bulk rename.
type CategoryRename struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

// cacheInvalidator is implemented by caching repositories.
type cacheInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// withPies loads the pies of a category in id order.
var withPies = repository.SelectRelation("Pies", repository.OrderBy("p.id ASC"))

// CategoryService enforces the catalog rules for categories on top of a
// generic category repository, which may be cached. Category names are
// unique and a category is only deleted once it holds no pies.
type CategoryService struct {
	db   *bun.DB
	repo repository.Repository[*Category]
	pies repository.Repository[*Pie]
	now  func() time.Time
}

// NewCategoryService creates the service. A nil repo uses
// NewCategoryRepository(db).
func NewCategoryService(db *bun.DB, repo repository.Repository[*Category]) *CategoryService {
	if repo == nil {
		repo = NewCategoryRepository(db)
	}
	return &CategoryService{db: db, repo: repo, pies: NewPieRecords(db), now: time.Now}
}

// List returns all categories ordered by id.
func (s *CategoryService) List(ctx context.Context) ([]*Category, error) {
	categories, _, err := s.repo.List(ctx, AllRows(), repository.OrderBy("c.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return categories, nil
}

// GetByID returns the category with its pies.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*Category, error) {
	category, err := s.repo.GetByID(ctx, FormatID(id), withPies)
	if repository.IsRecordNotFound(err) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get category %d: %w", id, err)
	}
	return category, nil
}

// Create inserts category. DateAdded defaults to now.
func (s *CategoryService) Create(ctx context.Context, category *Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.checkNameFree(ctx, s.db, category.Name, 0); err != nil {
		return err
	}
	if category.DateAdded == nil {
		now := s.now().UTC()
		category.DateAdded = &now
	}
	category.CategoryID = 0
	if _, err := s.repo.Create(ctx, category); err != nil {
		return fmt.Errorf("catalog: create category: %w", err)
	}
	return nil
}

// Update writes the name and description of category.
func (s *CategoryService) Update(ctx context.Context, category *Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.checkNameFree(ctx, s.db, category.Name, category.CategoryID); err != nil {
		return err
	}
	_, err := s.repo.Update(ctx, category, setNameAndDescription(category.Name, category.Description))
	if missingRow(err) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog: update category %d: %w", category.CategoryID, err)
	}
	return nil
}

// Delete removes the category. Categories still holding pies are kept.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		category, err := s.repo.GetByIDTx(ctx, tx, FormatID(id))
		if repository.IsRecordNotFound(err) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("catalog: load category %d: %w", id, err)
		}

		used, err := s.pies.CountTx(ctx, tx, InCategory(&id))
		if err != nil {
			return fmt.Errorf("catalog: check pies of category %d: %w", id, err)
		}
		if used > 0 {
			return ErrCategoryHasPies
		}

		if err := s.repo.DeleteTx(ctx, tx, category); err != nil {
			return fmt.Errorf("catalog: delete category %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.InvalidateCache(ctx)
	return nil
}

// UpdateNames renames several categories in one transaction. Unknown ids are
// skipped. Every failing rename is reported and none is applied.
func (s *CategoryService) UpdateNames(ctx context.Context, renames []CategoryRename) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var result *multierror.Error
		for _, rename := range renames {
			if err := s.rename(ctx, tx, rename); err != nil {
				result = multierror.Append(result, fmt.Errorf("category %d: %w", rename.CategoryID, err))
			}
		}
		return result.ErrorOrNil()
	})
	if err != nil {
		return err
	}
	s.InvalidateCache(ctx)
	return nil
}

// InvalidateCache drops every cached category when the repository caches.
// Transactional writes call it again after commit; pie writes call it
// because categories embed their pies.
func (s *CategoryService) InvalidateCache(ctx context.Context) {
	if c, ok := s.repo.(cacheInvalidator); ok {
		c.InvalidateAll(ctx)
	}
}

func (s *CategoryService) rename(ctx context.Context, tx bun.Tx, rename CategoryRename) error {
	if err := (Category{Name: rename.Name}).Validate(); err != nil {
		return err
	}
	if err := s.checkNameFree(ctx, tx, rename.Name, rename.CategoryID); err != nil {
		return err
	}
	_, err := s.repo.UpdateTx(ctx, tx, &Category{CategoryID: rename.CategoryID}, setName(rename.Name))
	if missingRow(err) {
		return nil
	}
	return err
}

func (s *CategoryService) checkNameFree(ctx context.Context, db bun.IDB, name string, exceptID int64) error {
	taken, err := s.repo.CountTx(ctx, db,
		repository.SelectBy("name", "=", name),
		repository.SelectBy("id", "<>", FormatID(exceptID)),
	)
	if err != nil {
		return fmt.Errorf("catalog: check category name: %w", err)
	}
	if taken > 0 {
		return ErrDuplicateCategoryName
	}
	return nil
}

// setName and setNameAndDescription replace the model columns of an update
// so zero values are written too.
func setName(name string) repository.UpdateCriteria {
	return func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("name = ?", name)
	}
}

func setNameAndDescription(name, description string) repository.UpdateCriteria {
	return func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("name = ?", name).Set("description = ?", description)
	}
}

// missingRow reports an update that matched no row.
func missingRow(err error) bool {
	return repository.IsSQLExpectedCountViolation(err) || repository.IsRecordNotFound(err)
}
