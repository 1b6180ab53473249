package cache

import (
	"context"

	"github.com/goliatone/go-pieshop-admin/internal/cacheinfra"
)

// sturdycCache adapts the internal sturdyc service to CacheService.
type sturdycCache struct {
	svc *cacheinfra.SturdycService
}

func (c *sturdycCache) GetOrFetch(ctx context.Context, key string, fetchFn FetchFn[any]) (any, error) {
	return c.svc.GetOrFetch(ctx, key, fetchFn)
}

func (c *sturdycCache) Delete(ctx context.Context, key string) error {
	return c.svc.Delete(ctx, key)
}

func (c *sturdycCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	return c.svc.DeleteByPrefix(ctx, prefix)
}
