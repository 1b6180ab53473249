package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var models = []any{
	(*Category)(nil),
	(*Pie)(nil),
	(*Order)(nil),
	(*OrderDetail)(nil),
}

// CreateSchema creates the catalog tables that do not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create table for %T: %w", model, err)
		}
	}
	return nil
}
