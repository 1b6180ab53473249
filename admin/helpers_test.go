package admin_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/catalog"
	"github.com/goliatone/go-pieshop-admin/optimistic"
	"github.com/goliatone/go-pieshop-admin/pkg/testsupport"
)

func sequentialVersions(prefix string) catalog.VersionFunc {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

func newAdminDB(t *testing.T) *bun.DB {
	t.Helper()

	db := testsupport.NewSQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, catalog.CreateSchema(ctx, db))

	var data catalog.SeedData
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("catalog.json"), &data)
	_, err := catalog.Seed(ctx, db, data, sequentialVersions("seed-"))
	require.NoError(t, err)

	return db
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{counts: map[string]int{}}
}

func (o *countingObserver) ObserveOutcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[outcome]++
}

func (o *countingObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[outcome]
}

var errStoreDown = errors.New("database is locked")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) ConditionalWrite(context.Context, int64, string, optimistic.Fields) (string, error) {
	return "", errStoreDown
}

func (failingStore) Read(context.Context, int64) (optimistic.Record[int64], error) {
	return optimistic.Record[int64]{}, errStoreDown
}
