package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/goliatone/go-pieshop-admin/cache"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config aggregates configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    cache.Config   `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Debug           bool          `mapstructure:"debug"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CatalogConfig struct {
	// PageSize is the number of pies on one page of the paged listings.
	PageSize int `mapstructure:"page_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "file:pieshop.db?cache=shared",
		},
		Cache:   cache.DefaultConfig(),
		Catalog: CatalogConfig{PageSize: 5},
	}
}

// Load reads configuration from a file and environment variables.
// Environment variables use the prefix "PIESHOP" and the dot character in
// keys is replaced by an underscore, so "database.dsn" becomes
// "PIESHOP_DATABASE_DSN". An empty configFile looks for an optional
// config.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("PIESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Addr == "" {
		result = multierror.Append(result, errors.New("server.addr is required"))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		result = multierror.Append(result, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		result = multierror.Append(result, errors.New("database.dsn is required"))
	}
	if c.Catalog.PageSize <= 0 {
		result = multierror.Append(result, errors.New("catalog.page_size must be greater than 0"))
	}
	if err := c.Cache.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("cache: %w", err))
	}

	return result.ErrorOrNil()
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		switch {
		case f.Type.Kind() == reflect.Struct:
			bindEnvs(v, val.Field(i).Interface(), key...)
		case f.Type.Kind() == reflect.Ptr && f.Type.Elem().Kind() == reflect.Struct:
			bindEnvs(v, reflect.New(f.Type.Elem()).Interface(), key...)
		default:
			_ = v.BindEnv(strings.Join(key, "."))
		}
	}
}
