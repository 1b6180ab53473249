package catalog_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/catalog"
	"github.com/goliatone/go-pieshop-admin/pkg/testsupport"
)

// sequentialVersions issues <prefix>1, <prefix>2, ... so tests can assert
// on tokens.
func sequentialVersions(prefix string) catalog.VersionFunc {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// newCatalogDB returns a database holding the testdata catalog.
func newCatalogDB(t *testing.T) *bun.DB {
	t.Helper()

	db := testsupport.NewSQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, catalog.CreateSchema(ctx, db))

	var data catalog.SeedData
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("catalog.json"), &data)
	seeded, err := catalog.Seed(ctx, db, data, sequentialVersions("seed-"))
	require.NoError(t, err)
	require.True(t, seeded)

	return db
}

func pieNames(pies []*catalog.Pie) []string {
	names := make([]string, len(pies))
	for i, p := range pies {
		names[i] = p.Name
	}
	return names
}
