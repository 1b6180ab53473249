package repositorycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/cache"
	"github.com/goliatone/go-pieshop-admin/catalog"
)

// mockCategoryRepository is a map backed category repository that records
// the calls reaching it. Methods the decorator tests never reach are left to
// the embedded nil interface.
type mockCategoryRepository struct {
	repository.Repository[*catalog.Category]

	mu         sync.Mutex
	calls      []string
	categories map[int64]*catalog.Category
	writeErr   error

	// started and release hold GetByID between the load and its return.
	started chan struct{}
	release chan struct{}
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: map[int64]*catalog.Category{
			1: {CategoryID: 1, Name: "Fruit pies"},
			2: {CategoryID: 2, Name: "Cheese cakes"},
		},
	}
}

func (m *mockCategoryRepository) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

func (m *mockCategoryRepository) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockCategoryRepository) clearCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *mockCategoryRepository) lookup(id string) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if catalog.FormatID(c.CategoryID) == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*catalog.Category, error) {
	m.recordCall("GetByID")
	c, err := m.lookup(id)
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}
	return c, err
}

func (m *mockCategoryRepository) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*catalog.Category, error) {
	m.recordCall("GetByIdentifier")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == identifier {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (m *mockCategoryRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*catalog.Category, int, error) {
	m.recordCall("List")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Category
	for id := int64(1); id <= int64(len(m.categories))+10; id++ {
		if c, ok := m.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCategoryRepository) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	m.recordCall("Count")
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

func (m *mockCategoryRepository) Create(ctx context.Context, record *catalog.Category, criteria ...repository.InsertCriteria) (*catalog.Category, error) {
	m.recordCall("Create")
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record.CategoryID = int64(len(m.categories) + 1)
	m.categories[record.CategoryID] = record
	return record, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, record *catalog.Category, criteria ...repository.UpdateCriteria) (*catalog.Category, error) {
	m.recordCall("Update")
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[record.CategoryID] = record
	return record, nil
}

func (m *mockCategoryRepository) UpdateTx(ctx context.Context, tx bun.IDB, record *catalog.Category, criteria ...repository.UpdateCriteria) (*catalog.Category, error) {
	return m.Update(ctx, record, criteria...)
}

func (m *mockCategoryRepository) Delete(ctx context.Context, record *catalog.Category) error {
	m.recordCall("Delete")
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, record.CategoryID)
	return nil
}

func (m *mockCategoryRepository) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	m.recordCall("DeleteWhere")
	return m.writeErr
}

// failingDeleteCache wraps a cache whose deletes always fail.
type failingDeleteCache struct {
	cache.CacheService
}

func (f failingDeleteCache) Delete(ctx context.Context, key string) error {
	return errors.New("delete failed")
}

func (f failingDeleteCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	return errors.New("delete failed")
}

func newCacheService(t *testing.T) cache.CacheService {
	t.Helper()

	svc, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	return svc
}

func newTestRepository(t *testing.T) (*CachedRepository[*catalog.Category], *mockCategoryRepository) {
	t.Helper()

	base := newMockCategoryRepository()
	return New[*catalog.Category](base, newCacheService(t), cache.NewDefaultKeySerializer()), base
}

func countCalls(calls []string, method string) int {
	n := 0
	for _, c := range calls {
		if c == method {
			n++
		}
	}
	return n
}

func TestNew(t *testing.T) {
	repo, _ := newTestRepository(t)

	if repo.Namespace() != "category" {
		t.Errorf("expected namespace category, got %q", repo.Namespace())
	}

	custom := New[*catalog.Category](newMockCategoryRepository(), repo.cache, repo.keySerializer, WithNamespace("AdminCategory"))
	if custom.Namespace() != "admin_category" {
		t.Errorf("expected namespace admin_category, got %q", custom.Namespace())
	}

	pies := New[*catalog.Pie](nil, repo.cache, repo.keySerializer)
	if pies.Namespace() != "pie" {
		t.Errorf("expected namespace pie, got %q", pies.Namespace())
	}
}

func TestCachedReads_CacheHit(t *testing.T) {
	repo, base := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, total, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(list) != 2 || total != 2 {
			t.Fatalf("expected 2 categories, got %d (total %d)", len(list), total)
		}

		got, err := repo.GetByID(ctx, "1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Name != "Fruit pies" {
			t.Errorf("expected Fruit pies, got %q", got.Name)
		}

		if n, err := repo.Count(ctx); err != nil || n != 2 {
			t.Errorf("expected Count 2, got %d (%v)", n, err)
		}

		if _, err := repo.GetByIdentifier(ctx, "Cheese cakes"); err != nil {
			t.Fatalf("GetByIdentifier failed: %v", err)
		}
	}

	calls := base.getCalls()
	for _, method := range []string{"List", "GetByID", "Count", "GetByIdentifier"} {
		if n := countCalls(calls, method); n != 1 {
			t.Errorf("expected one base %s call, got %d (%v)", method, n, calls)
		}
	}
}

func TestCachedReads_ErrorsAreNotCached(t *testing.T) {
	repo, base := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.GetByID(ctx, "99"); !errors.Is(err, catalog.ErrCategoryNotFound) {
			t.Errorf("expected ErrCategoryNotFound, got %v", err)
		}
	}

	if n := countCalls(base.getCalls(), "GetByID"); n != 2 {
		t.Errorf("expected both lookups to reach the base repository, got %d", n)
	}
}

func TestWrites_Invalidate(t *testing.T) {
	tests := []struct {
		name        string
		write       func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error
		wantList    int
		wantGetByID int
	}{
		{
			name: "create drops the list only",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				_, err := repo.Create(ctx, &catalog.Category{Name: "Seasonal pies"})
				return err
			},
			wantList:    2,
			wantGetByID: 1,
		},
		{
			name: "update drops the list and the category",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				_, err := repo.Update(ctx, &catalog.Category{CategoryID: 1, Name: "Fruity"})
				return err
			},
			wantList:    2,
			wantGetByID: 2,
		},
		{
			name: "update of another category keeps the cached one",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				_, err := repo.Update(ctx, &catalog.Category{CategoryID: 2, Name: "Cakes"})
				return err
			},
			wantList:    2,
			wantGetByID: 1,
		},
		{
			name: "transactional update drops the category",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				_, err := repo.UpdateTx(ctx, nil, &catalog.Category{CategoryID: 1, Name: "Fruity"})
				return err
			},
			wantList:    2,
			wantGetByID: 2,
		},
		{
			name: "delete drops the list and the category",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				return repo.Delete(ctx, &catalog.Category{CategoryID: 1})
			},
			wantList:    2,
			wantGetByID: 2,
		},
		{
			name: "criteria delete drops everything",
			write: func(ctx context.Context, repo *CachedRepository[*catalog.Category]) error {
				return repo.DeleteWhere(ctx)
			},
			wantList:    2,
			wantGetByID: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, base := newTestRepository(t)
			ctx := context.Background()

			warm := func() {
				if _, _, err := repo.List(ctx); err != nil {
					t.Fatalf("List failed: %v", err)
				}
				_, _ = repo.GetByID(ctx, "1")
			}

			warm()
			if err := tt.write(ctx, repo); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			warm()

			calls := base.getCalls()
			if got := countCalls(calls, "List"); got != tt.wantList {
				t.Errorf("expected %d List calls, got %d (%v)", tt.wantList, got, calls)
			}
			if got := countCalls(calls, "GetByID"); got != tt.wantGetByID {
				t.Errorf("expected %d GetByID calls, got %d (%v)", tt.wantGetByID, got, calls)
			}
		})
	}
}

func TestWrites_FailedWriteKeepsCache(t *testing.T) {
	repo, base := newTestRepository(t)
	ctx := context.Background()

	if _, _, err := repo.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	base.writeErr = catalog.ErrDuplicateCategoryName
	base.clearCalls()

	if _, err := repo.Create(ctx, &catalog.Category{Name: "Fruit pies"}); !errors.Is(err, catalog.ErrDuplicateCategoryName) {
		t.Fatalf("expected ErrDuplicateCategoryName, got %v", err)
	}
	if _, _, err := repo.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if calls := base.getCalls(); countCalls(calls, "List") != 0 {
		t.Errorf("expected the list to stay cached, got %v", calls)
	}
}

func TestInvalidateAll_DropsUntrackedEntries(t *testing.T) {
	svc := newCacheService(t)
	serializer := cache.NewDefaultKeySerializer()
	first := New[*catalog.Category](newMockCategoryRepository(), svc, serializer)
	second := New[*catalog.Category](newMockCategoryRepository(), svc, serializer)
	other := New[*catalog.Category](newMockCategoryRepository(), svc, serializer, WithNamespace("archive"))
	ctx := context.Background()

	if _, _, err := second.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, _, err := other.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// first never read the key, so only a namespace wide delete reaches it.
	first.InvalidateAll(ctx)

	base := second.base.(*mockCategoryRepository)
	base.clearCalls()
	if _, _, err := second.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if n := countCalls(base.getCalls(), "List"); n != 1 {
		t.Errorf("expected the shared namespace to be dropped, got %d base calls", n)
	}

	otherBase := other.base.(*mockCategoryRepository)
	otherBase.clearCalls()
	if _, _, err := other.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if n := countCalls(otherBase.getCalls(), "List"); n != 0 {
		t.Errorf("expected another namespace to stay cached, got %d base calls", n)
	}
}

func TestInvalidation_DeleteFailureKeepsKeyTracked(t *testing.T) {
	repo := New[*catalog.Category](newMockCategoryRepository(), failingDeleteCache{newCacheService(t)}, cache.NewDefaultKeySerializer())
	ctx := context.Background()

	if _, _, err := repo.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	repo.InvalidateAll(ctx)

	if _, ok := repo.keyRegistry.Load(repo.key("List", []repository.SelectCriteria(nil))); !ok {
		t.Error("expected the key to stay tracked after a failed delete")
	}
}

func TestReadThrough_WriteDuringFetchIsNotKept(t *testing.T) {
	repo, base := newTestRepository(t)
	ctx := context.Background()

	base.started = make(chan struct{})
	base.release = make(chan struct{})

	type result struct {
		category *catalog.Category
		err      error
	}
	done := make(chan result, 1)
	go func() {
		c, err := repo.GetByID(ctx, "1")
		done <- result{c, err}
	}()

	select {
	case <-base.started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}

	// The write lands after the fetch loaded the old name.
	if _, err := repo.Update(ctx, &catalog.Category{CategoryID: 1, Name: "Fruity"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	close(base.release)

	first := <-done
	if first.err != nil {
		t.Fatalf("GetByID failed: %v", first.err)
	}
	if first.category.Name != "Fruit pies" {
		t.Errorf("expected the in-flight read to return the loaded value, got %q", first.category.Name)
	}

	base.started = nil
	got, err := repo.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Fruity" {
		t.Errorf("expected the stale value to be dropped, got %q", got.Name)
	}
}

func TestKeys_AreNamespaced(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, _, _ = repo.List(ctx)
	_, _ = repo.GetByID(ctx, "2")

	repo.keyRegistry.Range(func(k, _ any) bool {
		key := k.(string)
		if !strings.HasPrefix(key, "category::") {
			t.Errorf("key %q is not namespaced", key)
		}
		return true
	})
	if _, ok := repo.keyRegistry.Load(repo.key("GetByID", "2", []repository.SelectCriteria(nil))); !ok {
		t.Error("expected the GetByID key to be tracked")
	}
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		name   string
		record any
		want   string
		ok     bool
	}{
		{"bun id column", &catalog.Category{CategoryID: 7}, "7", true},
		{"pie", &catalog.Pie{PieID: 3}, "3", true},
		{"ID field", struct{ ID string }{ID: "abc"}, "abc", true},
		{"nil pointer", (*catalog.Category)(nil), "", false},
		{"no id", struct{ Name string }{Name: "x"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := recordID(tt.record)
			if got != tt.want || ok != tt.ok {
				t.Errorf("recordID() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
