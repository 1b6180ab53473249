// Package repositorycache decorates go-repository-bun repositories with a
// read-through cache.
//
// CachedRepository caches Get, GetByID, GetByIdentifier, List and Count.
// Writes go straight to the wrapped repository and, when they succeed, drop
// the cached entries they make stale:
//
//   - creates drop cached List and Count results
//   - updates and deletes drop the GetByID entries of the written records
//     and every cached query result
//   - criteria deletes drop every entry of the namespace
//
// Keys are prefixed with the snake cased record type name, so a category
// lookup is stored under "category::GetByID::<id>::<criteria>".
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	categories := repositorycache.New(
//		catalog.NewCategoryRepository(db),
//		svc,
//		cache.NewDefaultKeySerializer(),
//	)
//
// Criteria are functions and the key serializer renders them by code
// address, so two criteria built by the same constructor with different
// arguments share a key. Vary lookups through the id or identifier
// arguments, or build criteria once and reuse them.
//
// A read that loads a value while a write invalidates the namespace returns
// that value but drops it from the cache afterwards. Another reader may
// still be served the value in between; the window closes when the first
// read returns. Transactional writes invalidate before commit, so callers
// that write in a transaction call InvalidateAll again once it commits.
//
// Only keys read through a decorator are tracked for targeted invalidation.
// InvalidateAll drops the whole namespace from the cache. Entries expire on
// their own after the configured TTL.
package repositorycache
