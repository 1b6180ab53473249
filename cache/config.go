package cache

import (
	"time"

	"github.com/goliatone/go-pieshop-admin/internal/cacheinfra"
)

// Config holds the cache settings. The mapstructure tags match the `cache`
// section of the application configuration.
type Config struct {
	Capacity           int                 `mapstructure:"capacity"`
	NumShards          int                 `mapstructure:"shards"`
	TTL                time.Duration       `mapstructure:"ttl"`
	EvictionPercentage int                 `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration       `mapstructure:"eviction_interval"`
	EarlyRefresh       *EarlyRefreshConfig `mapstructure:"early_refresh"`
}

// EarlyRefreshConfig mirrors the sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `mapstructure:"min_async"`
	MaxAsyncRefreshTime time.Duration `mapstructure:"max_async"`
	SyncRefreshTime     time.Duration `mapstructure:"sync"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
}

// DefaultConfig returns the cache defaults: a small cache whose entries live
// for one minute.
func DefaultConfig() Config {
	cfg := cacheinfra.DefaultConfig()
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService builds the sturdyc backed cache service.
func NewCacheService(cfg Config) (CacheService, error) {
	svc, err := cacheinfra.NewSturdycService(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return &sturdycCache{svc: svc}, nil
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		EarlyRefresh:       early,
	}
}
