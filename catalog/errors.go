package catalog

import "errors"

var (
	ErrPieNotFound      = errors.New("catalog: pie not found")
	ErrCategoryNotFound = errors.New("catalog: category not found")
	ErrOrderNotFound    = errors.New("catalog: order not found")

	// ErrDuplicateCategoryName is returned when another category already
	// uses the name.
	ErrDuplicateCategoryName = errors.New("catalog: a category with the same name already exists")

	// ErrCategoryHasPies is returned when deleting a category still
	// referenced by pies.
	ErrCategoryHasPies = errors.New("catalog: pies exist in this category, delete all pies in this category before deleting the category")

	ErrUnknownPieField = errors.New("catalog: unknown pie field")
)
