package repositorycache

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	repository "github.com/goliatone/go-repository-bun"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/cache"
)

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// listResult wraps the tuple result from List operations for caching
type listResult[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
}

// CachedRepository decorates a base repository with a read-through cache.
// Get, GetByID, GetByIdentifier, List and Count are cached under the
// repository namespace. Successful writes drop the entries they make stale.
// Reads and writes that take a transaction go straight to the base.
type CachedRepository[T any] struct {
	base repository.Repository[T]
	*keyspace
}

type options struct {
	namespace string
	logger    log.FieldLogger
}

// Option configures a CachedRepository.
type Option func(*options)

// WithLogger sets the logger used to report failed invalidations.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNamespace overrides the key namespace. It defaults to the snake cased
// record type name.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if ns := toSnake(namespace); ns != "" {
			o.namespace = ns
		}
	}
}

// New creates a new CachedRepository that wraps the base repository with caching
func New[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository[T] {
	o := options{namespace: defaultNamespace[T](), logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &CachedRepository[T]{
		base: base,
		keyspace: &keyspace{
			cache:         cacheService,
			keySerializer: keySerializer,
			namespace:     o.namespace,
			keyRegistry:   &sync.Map{},
			logger:        o.logger,
		},
	}
}

func defaultNamespace[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if ns := toSnake(t.Name()); ns != "" {
		return ns
	}
	return "record"
}

// Get retrieves a single record using the provided criteria, with caching
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	return readThrough(ctx, c.keyspace, c.key("Get", criteria), func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	})
}

// GetByID retrieves a record by ID with optional criteria, with caching
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return readThrough(ctx, c.keyspace, c.key("GetByID", id, criteria), func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	})
}

// List retrieves multiple records using the provided criteria, with caching
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	res, err := readThrough(ctx, c.keyspace, c.key("List", criteria), func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// Count returns the number of records matching the criteria, with caching
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return readThrough(ctx, c.keyspace, c.key("Count", criteria), func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	})
}

// GetByIdentifier retrieves a record by identifier with optional criteria, with caching
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return readThrough(ctx, c.keyspace, c.key("GetByIdentifier", identifier, criteria), func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	})
}

// Create creates a new record. Write operations pass through to base repository
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.Create(ctx, record, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// CreateTx creates a new record within a transaction
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.CreateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// CreateMany creates multiple records
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// CreateManyTx creates multiple records within a transaction
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// GetOrCreate gets a record or creates it if it doesn't exist
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// GetOrCreateTx gets a record or creates it if it doesn't exist within a transaction
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// Update updates a record
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

// UpdateTx updates a record within a transaction
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

// UpdateMany updates multiple records
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

// UpdateManyTx updates multiple records within a transaction
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

// Upsert inserts or updates a record
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

// UpsertTx inserts or updates a record within a transaction
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

// UpsertMany inserts or updates multiple records
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

// UpsertManyTx inserts or updates multiple records within a transaction
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

// Delete deletes a record
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

// DeleteTx deletes a record within a transaction
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

// DeleteMany deletes multiple records based on criteria
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	if err == nil {
		c.InvalidateAll(ctx)
	}
	return err
}

// DeleteManyTx deletes multiple records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		c.InvalidateAll(ctx)
	}
	return err
}

// DeleteWhere deletes records based on criteria
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		c.InvalidateAll(ctx)
	}
	return err
}

// DeleteWhereTx deletes records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		c.InvalidateAll(ctx)
	}
	return err
}

// ForceDelete force deletes a record (bypassing soft delete)
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	err := c.base.ForceDelete(ctx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

// ForceDeleteTx force deletes a record within a transaction (bypassing soft delete)
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw executes a raw SQL query. Results are not cached.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// invalidateAfterCreate drops List and Count results, which a new record
// changes.
func (c *CachedRepository[T]) invalidateAfterCreate(ctx context.Context) {
	c.invalidateByPrefix(ctx, c.opPrefix("List"), c.opPrefix("Count"))
}

// invalidateRecords drops the GetByID entries of records and every cached
// query result. An identifier may have changed, so GetByIdentifier entries
// go as well. Records without an id column drop every GetByID entry.
func (c *CachedRepository[T]) invalidateRecords(ctx context.Context, records ...T) {
	prefixes := []string{
		c.opPrefix("Get"),
		c.opPrefix("GetByIdentifier"),
		c.opPrefix("List"),
		c.opPrefix("Count"),
	}
	for _, record := range records {
		id, ok := recordID(record)
		if !ok {
			prefixes = append(prefixes, c.opPrefix("GetByID"))
			break
		}
		prefixes = append(prefixes, c.key("GetByID", id)+cache.KeySeparator)
	}
	c.invalidateByPrefix(ctx, prefixes...)
}

// recordID renders the value of the id column, the column GetByID selects
// on. It looks for a field tagged bun:"id" or, without a bun name, a field
// named ID.
func recordID(record any) (string, bool) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("bun"), ",")
		if name == "id" || (name == "" && f.Name == "ID") {
			return fmt.Sprint(v.Field(i).Interface()), true
		}
	}
	return "", false
}

// keyspace tracks the keys one decorator stored and drops them on writes.
type keyspace struct {
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	namespace     string
	keyRegistry   *sync.Map
	logger        log.FieldLogger

	// generation moves on every invalidation. A read that started before
	// a move may have loaded a value older than the write, so it drops the
	// entry it stored.
	generation atomic.Uint64
}

// Namespace returns the prefix shared by every key of this repository.
func (k *keyspace) Namespace() string {
	return k.namespace
}

// InvalidateAll drops every cached entry of the namespace, including
// entries stored by other decorators sharing the cache and namespace.
func (k *keyspace) InvalidateAll(ctx context.Context) {
	k.generation.Add(1)
	prefix := k.namespace + cache.KeySeparator
	if err := k.cache.DeleteByPrefix(ctx, prefix); err != nil {
		k.logger.WithError(err).WithField("prefix", prefix).Warn("failed to invalidate cache namespace")
		k.deleteTracked(ctx, prefix)
		return
	}
	k.keyRegistry.Range(func(key, _ any) bool {
		if s, ok := key.(string); ok && strings.HasPrefix(s, prefix) {
			k.keyRegistry.Delete(key)
		}
		return true
	})
}

func (k *keyspace) key(method string, args ...any) string {
	return k.namespace + cache.KeySeparator + k.keySerializer.SerializeKey(method, args...)
}

// opPrefix matches every key of one read method.
func (k *keyspace) opPrefix(method string) string {
	return k.namespace + cache.KeySeparator + method + cache.KeySeparator
}

// trackKey registers a cache key in the key registry for later invalidation
func (k *keyspace) trackKey(key string) {
	k.keyRegistry.Store(key, struct{}{})
}

// invalidateByPrefix removes all tracked keys that start with one of the
// prefixes
func (k *keyspace) invalidateByPrefix(ctx context.Context, prefixes ...string) {
	k.generation.Add(1)
	for _, prefix := range prefixes {
		k.deleteTracked(ctx, prefix)
	}
}

func (k *keyspace) deleteTracked(ctx context.Context, prefix string) {
	var keys []string
	k.keyRegistry.Range(func(key, _ any) bool {
		if s, ok := key.(string); ok && strings.HasPrefix(s, prefix) {
			keys = append(keys, s)
		}
		return true
	})

	for _, key := range keys {
		k.deleteKey(ctx, key)
	}
}

func (k *keyspace) deleteKey(ctx context.Context, key string) {
	if err := k.cache.Delete(ctx, key); err != nil {
		k.logger.WithError(err).WithField("key", key).Warn("failed to invalidate cache key")
		return
	}
	k.keyRegistry.Delete(key)
}

// readThrough serves key from the cache or loads it with fetch. A value
// loaded while a write invalidated the namespace is returned but not kept.
func readThrough[R any](ctx context.Context, k *keyspace, key string, fetch cache.FetchFn[R]) (R, error) {
	k.trackKey(key)
	gen := k.generation.Load()
	value, err := cache.GetOrFetch(ctx, k.cache, key, fetch)
	if err == nil && k.generation.Load() != gen {
		k.deleteKey(ctx, key)
	}
	return value, err
}
