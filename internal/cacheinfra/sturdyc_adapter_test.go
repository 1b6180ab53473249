package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TTL != time.Minute {
		t.Errorf("expected TTL to be one minute, got %v", cfg.TTL)
	}

	if cfg.EarlyRefresh != nil {
		t.Error("expected early refresh to be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero capacity",
			mutate:  func(c *Config) { c.Capacity = 0 },
			wantErr: "Capacity",
		},
		{
			name:    "zero shards",
			mutate:  func(c *Config) { c.NumShards = 0 },
			wantErr: "NumShards",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.TTL = 0 },
			wantErr: "TTL",
		},
		{
			name:    "eviction above 100",
			mutate:  func(c *Config) { c.EvictionPercentage = 101 },
			wantErr: "EvictionPercentage",
		},
		{
			name: "early refresh min above max",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{
					MinAsyncRefreshTime: 20 * time.Second,
					MaxAsyncRefreshTime: 10 * time.Second,
					SyncRefreshTime:     30 * time.Second,
				}
			},
			wantErr: "EarlyRefresh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantErr {
				t.Errorf("expected field %q, got %q", tt.wantErr, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := testConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options, got %d", got)
	}

	cfg.EarlyRefresh = &EarlyRefreshConfig{
		MinAsyncRefreshTime: time.Second,
		MaxAsyncRefreshTime: 2 * time.Second,
		SyncRefreshTime:     3 * time.Second,
		RetryBaseDelay:      10 * time.Millisecond,
	}
	cfg.EvictionInterval = time.Second
	if got := len(cfg.ToSturdycOptions()); got != 2 {
		t.Errorf("expected 2 options, got %d", got)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	if got := err.Error(); got != "config error in field TTL: must be greater than 0" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = -1

	if _, err := NewSturdycService(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "Fruit pies", nil
	}

	for i := 0; i < 3; i++ {
		got, err := service.GetOrFetch(ctx, "category::1", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Fruit pies" {
			t.Errorf("expected Fruit pies, got %v", got)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected one fetch, got %d", calls.Load())
	}
}

func TestSturdycService_GetOrFetchErrorNotCached(t *testing.T) {
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	ctx := context.Background()
	boom := errors.New("database unavailable")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	}

	for i := 0; i < 2; i++ {
		if _, err := service.GetOrFetch(ctx, "category::2", fetch); !errors.Is(err, boom) {
			t.Errorf("expected %v, got %v", boom, err)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("expected errors to be fetched again, got %d calls", calls.Load())
	}
}

func TestSturdycService_GetOrFetchNilFunction(t *testing.T) {
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	_, err = service.GetOrFetch(context.Background(), "key", nil)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "fetchFn" {
		t.Errorf("expected fetchFn ConfigError, got %v", err)
	}
}

func TestSturdycService_DeleteAndDeleteByPrefix(t *testing.T) {
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	ctx := context.Background()

	fetched := map[string]int{}
	fetch := func(key string) func(context.Context) (any, error) {
		return func(context.Context) (any, error) {
			fetched[key]++
			return strings.ToUpper(key), nil
		}
	}
	load := func(key string) {
		if _, err := service.GetOrFetch(ctx, key, fetch(key)); err != nil {
			t.Fatalf("unexpected error for %s: %v", key, err)
		}
	}

	keys := []string{"category::List", "category::GetByID::1", "pie::GetByID::1"}
	for _, key := range keys {
		load(key)
	}

	if err := service.Delete(ctx, "pie::GetByID::1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := service.DeleteByPrefix(ctx, "category::"); err != nil {
		t.Fatalf("delete by prefix failed: %v", err)
	}

	for _, key := range keys {
		load(key)
		if fetched[key] != 2 {
			t.Errorf("expected %s to be fetched again, got %d fetches", key, fetched[key])
		}
	}
}
