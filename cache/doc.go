// Package cache defines the read-through cache used by the repository
// decorators and its default sturdyc backed implementation.
//
// # Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	serializer := cache.NewDefaultKeySerializer()
//
//	key := serializer.SerializeKey("category::GetByID", id)
//	category, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (*catalog.Category, error) {
//		return categories.GetByID(ctx, id)
//	})
//
// Concurrent misses for one key share a single fetch. Errors returned by the
// fetch function are never cached.
//
// # Keys
//
// The default serializer joins the method name and its arguments with
// KeySeparator. Pointers are dereferenced, maps are rendered with sorted
// pairs and structs are rendered as JSON. Functions are rendered by address,
// so keys built from closures are only stable within one process.
//
// Invalidation is prefix based: DeleteByPrefix("category::") drops every
// entry a decorator stored under that namespace.
package cache
