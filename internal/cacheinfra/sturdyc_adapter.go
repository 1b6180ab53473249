package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc client settings.
type Config struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int

	// NumShards splits the cache for concurrent access. Must be greater than 0.
	NumShards int

	// TTL is how long an entry is served before it is fetched again.
	TTL time.Duration

	// EvictionPercentage is the share of entries dropped when the cache is
	// full. Must be between 1 and 100.
	EvictionPercentage int

	// EarlyRefresh enables background refreshes of hot entries. Nil disables
	// them.
	EarlyRefresh *EarlyRefreshConfig

	// EvictionInterval sets how often expired entries are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures sturdyc early refreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns the defaults used by the admin back-office. Category
// lists change rarely, so entries live for one minute.
func DefaultConfig() Config {
	return Config{
		Capacity:           1000,
		NumShards:          16,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EarlyRefresh != nil {
		if c.EarlyRefresh.MinAsyncRefreshTime < 0 || c.EarlyRefresh.MaxAsyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh", Message: "async refresh times must be non-negative"}
		}
		if c.EarlyRefresh.MinAsyncRefreshTime > c.EarlyRefresh.MaxAsyncRefreshTime {
			return &ConfigError{Field: "EarlyRefresh", Message: "min async refresh time exceeds max"}
		}
		if c.EarlyRefresh.SyncRefreshTime < 0 || c.EarlyRefresh.RetryBaseDelay < 0 {
			return &ConfigError{Field: "EarlyRefresh", Message: "sync refresh time and retry delay must be non-negative"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycService is a read-through cache backed by a sturdyc client.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and creates the sturdyc client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key or calls fetchFn and caches
// its result. Concurrent misses for the same key share one fetch. Errors are
// not cached.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	return s.client.GetOrFetch(ctx, key, fetchFn)
}

// Delete removes a single entry.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}
