package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// SeedData is a set of catalog rows used to populate an empty database.
type SeedData struct {
	Categories []*Category `json:"categories"`
	Pies       []*Pie      `json:"pies"`
	Orders     []*Order    `json:"orders"`
}

// DemoData returns a small storefront catalog. Pies reference categories and
// order lines reference pies by their position in the returned slices, one
// based.
func DemoData() SeedData {
	placed := time.Date(2024, time.March, 14, 10, 30, 0, 0, time.UTC)
	return SeedData{
		Categories: []*Category{
			{Name: "Fruit pies", Description: "All-fruity pies."},
			{Name: "Cheese cakes", Description: "Cheesy all the way."},
			{Name: "Seasonal pies", Description: "Get in the mood for a seasonal pie."},
		},
		Pies: []*Pie{
			{Name: "Apple Pie", ShortDescription: "Our famous apple pies!", Price: 12.95, CategoryID: 1, InStock: true, IsPieOfTheWeek: true},
			{Name: "Blueberry Cheese Cake", ShortDescription: "You'll love it!", Price: 18.95, CategoryID: 2, InStock: true},
			{Name: "Cheese Cake", ShortDescription: "Plain cheese cake. Plain pleasure.", Price: 18.95, CategoryID: 2, InStock: true},
			{Name: "Cherry Pie", ShortDescription: "A summer classic!", Price: 15.95, CategoryID: 1, InStock: true},
			{Name: "Christmas Apple Pie", ShortDescription: "Happy holidays with this pie!", Price: 13.95, CategoryID: 3, InStock: true},
			{Name: "Cranberry Pie", ShortDescription: "A Christmas favorite", Price: 17.95, CategoryID: 3, InStock: true},
			{Name: "Peach Pie", ShortDescription: "Sweet as peach", Price: 15.95, CategoryID: 1},
			{Name: "Pumpkin Pie", ShortDescription: "Our Halloween favorite", Price: 12.95, CategoryID: 3, InStock: true, IsPieOfTheWeek: true},
			{Name: "Rhubarb Pie", ShortDescription: "My God, so sweet!", Price: 15.95, CategoryID: 1, InStock: true},
			{Name: "Strawberry Pie", ShortDescription: "Our delicious strawberry pie!", Price: 15.95, CategoryID: 1, InStock: true},
			{Name: "Strawberry Cheese Cake", ShortDescription: "You'll love it!", Price: 18.95, CategoryID: 2},
		},
		Orders: []*Order{
			{
				FirstName: "Ada", LastName: "Baker", AddressLine1: "1 Crust Lane", ZipCode: "1000",
				City: "Brussels", Country: "Belgium", PhoneNumber: "555-0100", Email: "ada@example.com",
				OrderTotal: 44.85, OrderPlaced: placed,
				OrderDetails: []*OrderDetail{
					{PieID: 1, Amount: 2, Price: 12.95},
					{PieID: 2, Amount: 1, Price: 18.95},
				},
			},
		},
	}
}

// Seed inserts data unless the database already holds categories. Ids in
// data are rewritten to the ids assigned on insert.
func Seed(ctx context.Context, db *bun.DB, data SeedData, newVersion VersionFunc) (bool, error) {
	n, err := db.NewSelect().Model((*Category)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("catalog: seed: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	categories := NewCategoryService(db, nil)
	pies := NewPieRepository(db, newVersion)
	orders := NewOrderRepository(db)

	categoryIDs := make(map[int64]int64, len(data.Categories))
	for i, category := range data.Categories {
		if err := categories.Create(ctx, category); err != nil {
			return false, fmt.Errorf("catalog: seed category %q: %w", category.Name, err)
		}
		categoryIDs[int64(i+1)] = category.CategoryID
	}

	pieIDs := make(map[int64]int64, len(data.Pies))
	for i, pie := range data.Pies {
		if id, ok := categoryIDs[pie.CategoryID]; ok {
			pie.CategoryID = id
		}
		if err := pies.Create(ctx, pie); err != nil {
			return false, fmt.Errorf("catalog: seed pie %q: %w", pie.Name, err)
		}
		pieIDs[int64(i+1)] = pie.PieID
	}

	for _, order := range data.Orders {
		for _, line := range order.OrderDetails {
			if id, ok := pieIDs[line.PieID]; ok {
				line.PieID = id
			}
		}
		if err := orders.Create(ctx, order); err != nil {
			return false, fmt.Errorf("catalog: seed order: %w", err)
		}
	}
	return true, nil
}
