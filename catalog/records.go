package catalog

import (
	"strconv"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Catalog tables use database assigned integer keys in their id column, which
// is the column repository.SelectByID matches. The uuid hooks of
// repository.ModelHandlers are inert: Create never has a uuid to assign.

// CategoryHandlers describes Category to repository.NewRepository.
func CategoryHandlers() repository.ModelHandlers[*Category] {
	return repository.ModelHandlers[*Category]{
		NewRecord:     func() *Category { return new(Category) },
		GetID:         func(*Category) uuid.UUID { return uuid.Nil },
		SetID:         func(*Category, uuid.UUID) {},
		GetIdentifier: func() string { return "name" },
	}
}

// PieHandlers describes Pie to repository.NewRepository.
func PieHandlers() repository.ModelHandlers[*Pie] {
	return repository.ModelHandlers[*Pie]{
		NewRecord:     func() *Pie { return new(Pie) },
		GetID:         func(*Pie) uuid.UUID { return uuid.Nil },
		SetID:         func(*Pie, uuid.UUID) {},
		GetIdentifier: func() string { return "name" },
	}
}

// NewCategoryRepository returns the generic bun repository of categories.
// Wrap it with repositorycache.New for cached reads and hand it to
// NewCategoryService for the catalog rules.
func NewCategoryRepository(db *bun.DB) repository.Repository[*Category] {
	return repository.NewRepository[*Category](db, CategoryHandlers())
}

// NewPieRecords returns the generic bun repository of pies.
func NewPieRecords(db *bun.DB) repository.Repository[*Pie] {
	return repository.NewRepository[*Pie](db, PieHandlers())
}

// FormatID renders an integer key the way repository.Repository.GetByID
// expects it.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
