package di

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pieshop-admin/admin"
	"github.com/goliatone/go-pieshop-admin/cache"
	"github.com/goliatone/go-pieshop-admin/catalog"
	"github.com/goliatone/go-pieshop-admin/config"
	"github.com/goliatone/go-pieshop-admin/internal/dbopen"
	"github.com/goliatone/go-pieshop-admin/internal/metrics"
	"github.com/goliatone/go-pieshop-admin/optimistic"
	"github.com/goliatone/go-pieshop-admin/repositorycache"
)

// Container wires the back-office components. It owns a single database
// handle, cache service and key serializer shared by every repository.
type Container struct {
	config *config.Config
	db     *bun.DB
	ownsDB bool

	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	recorder      *metrics.Recorder

	pies          *catalog.PieRepository
	categories    *catalog.CategoryService
	categoryCache *repositorycache.CachedRepository[*catalog.Category]
	orders        *catalog.OrderRepository
	resolver      *optimistic.Resolver[int64]
	editor        *admin.PieEditor
	handlers      *admin.Handlers
}

type options struct {
	db         *bun.DB
	newVersion catalog.VersionFunc
	logger     log.FieldLogger
}

// Option configures a Container.
type Option func(*options)

// WithDB uses db instead of opening the configured database. The container
// does not close it.
func WithDB(db *bun.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithVersionFunc sets the issuer of pie row versions.
func WithVersionFunc(fn catalog.VersionFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.newVersion = fn
		}
	}
}

// WithLogger sets the logger handed to the components.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewContainer opens the database, makes sure the schema exists and wires
// the repositories, the pie editor and the HTTP handlers.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{newVersion: catalog.NewVersion, logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	cacheService, err := cache.NewCacheService(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("di: cache: %w", err)
	}

	c := &Container{
		config:        cfg,
		db:            o.db,
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		recorder:      metrics.NewRecorder(),
	}

	if c.db == nil {
		c.db, err = dbopen.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		c.ownsDB = true
	}

	if err := catalog.CreateSchema(ctx, c.db); err != nil {
		c.Close()
		return nil, err
	}

	c.pies = catalog.NewPieRepository(c.db, o.newVersion)
	c.categoryCache = repositorycache.New(
		catalog.NewCategoryRepository(c.db),
		c.cacheService,
		c.keySerializer,
		repositorycache.WithLogger(o.logger.WithField("component", "category_cache")),
	)
	c.categories = catalog.NewCategoryService(c.db, c.categoryCache)
	c.orders = catalog.NewOrderRepository(c.db)
	c.resolver = optimistic.NewResolver[int64](optimistic.WithLogger(o.logger.WithField("component", "resolver")))
	c.editor = admin.NewPieEditor(c.pies, c.resolver,
		admin.WithObserver(c.recorder),
		admin.WithEditorLogger(o.logger.WithField("component", "pie_editor")),
	)
	c.handlers = admin.NewHandlers(c.pies, c.categories, c.orders, c.editor, cfg.Catalog.PageSize)

	return c, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// DB returns the shared database handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// CacheService returns the shared cache service.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the shared key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Metrics returns the update outcome recorder. It is not registered; the
// caller picks the registry.
func (c *Container) Metrics() *metrics.Recorder {
	return c.recorder
}

func (c *Container) Pies() *catalog.PieRepository {
	return c.pies
}

func (c *Container) Categories() *catalog.CategoryService {
	return c.categories
}

// CategoryCache returns the cached category repository behind Categories.
func (c *Container) CategoryCache() *repositorycache.CachedRepository[*catalog.Category] {
	return c.categoryCache
}

func (c *Container) Orders() *catalog.OrderRepository {
	return c.orders
}

func (c *Container) Editor() *admin.PieEditor {
	return c.editor
}

func (c *Container) Handlers() *admin.Handlers {
	return c.handlers
}

// Close releases the database if the container opened it.
func (c *Container) Close() error {
	if c.ownsDB && c.db != nil {
		return c.db.Close()
	}
	return nil
}
