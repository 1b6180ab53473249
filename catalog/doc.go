// Package catalog holds the pie shop models and their bun-backed
// repositories.
//
// Pies carry a RowVersion token that is replaced on every write. PieStore
// exposes the pies table to the optimistic resolver: a write only lands when
// the stored token still matches the one the editor started from.
package catalog
