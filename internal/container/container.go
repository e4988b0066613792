package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/registry"
	"github.com/garyjia/signage-ops/internal/i18n"
	"github.com/garyjia/signage-ops/internal/infrastructure/metrics"
	"github.com/garyjia/signage-ops/internal/infrastructure/report"
	httpapi "github.com/garyjia/signage-ops/internal/interfaces/http"
	"github.com/garyjia/signage-ops/pkg/utils"
)

const healthCheckTimeout = 2 * time.Second

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and are torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database     *DatabaseBundle
	repositories *RepositoryBundle
	lark         *LarkBundle
	metrics      metrics.Metrics
	translator   *i18n.Translator
	exporter     *report.Exporter

	// Core
	registry  *registry.Registry
	templates *TemplateBundle
	bus       dispatcher.Bus

	// Application
	services *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and repositories
// 2. Collaborators (Lark feed, metrics, translator, exporter)
// 3. Registry and template store
// 4. Event bus
// 5. Application services
// 6. Event subscribers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", c.initDatabase},
		{"collaborators", c.initCollaborators},
		{"core stores", c.initCore},
		{"event bus", c.initBus},
		{"services", c.initServices},
		{"subscribers", c.initSubscribers},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			c.teardown()
			return err
		}
		if err := step.fn(); err != nil {
			c.teardown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initDatabase() error {
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.database = db

	repos, err := ProvideRepositories(db, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initCollaborators() error {
	lark, err := ProvideLark(&c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.lark = lark

	translator, err := i18n.New(c.config.DefaultLocale)
	if err != nil {
		return err
	}
	c.translator = translator
	c.exporter = report.NewExporter(translator, c.logger)

	if c.config.MetricsEnabled {
		c.metrics = metrics.New()
	}
	return nil
}

func (c *Container) initCore() error {
	c.registry = registry.New(c.logger)

	templates, err := ProvideTemplates(&c.config.Seed, c.logger)
	if err != nil {
		return err
	}
	c.templates = templates
	return nil
}

func (c *Container) initBus() error {
	c.bus = dispatcher.NewBus(dispatcher.WithLogger(utils.NewKVLogger(c.logger)))
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Registry:   c.registry,
		Repos:      c.repositories,
		Templates:  c.templates,
		Bus:        c.bus,
		Translator: c.translator,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) initSubscribers() error {
	deps := &SubscriberDeps{
		Bus:        c.bus,
		Registry:   c.registry,
		History:    c.repositories.History,
		Metrics:    c.metrics,
		Translator: c.translator,
		Logger:     c.logger,
	}
	if c.lark != nil {
		deps.Feed = c.lark.Feed
	}
	return RegisterSubscribers(deps)
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}
	c.ready.Store(false)

	c.logger.Info("Closing container")
	err := c.teardown()
	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed")
	return nil
}

// teardown releases whatever has been started. The bus is closed first so
// in-flight async subscribers finish before the database goes away.
func (c *Container) teardown() error {
	var errs []error

	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
		c.bus = nil
	}

	if c.database != nil {
		if err := c.database.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
		c.database = nil
	}

	return errors.Join(errs...)
}

// Ready reports whether Start completed and Close has not been called.
func (c *Container) Ready() bool {
	return c.ready.Load() && !c.closed.Load()
}

// Health reports the status of each component.
func (c *Container) Health() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]string{
		"database":  "down",
		"templates": "down",
		"lark_feed": "disabled",
		"metrics":   "disabled",
	}

	if c.database != nil {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		if err := c.database.DB.PingContext(ctx); err != nil {
			status["database"] = "error: " + err.Error()
		} else {
			status["database"] = "ok"
		}
	}
	if c.templates != nil {
		status["templates"] = fmt.Sprintf("ok (%d)", len(c.templates.Store.List()))
	}
	if c.lark != nil {
		status["lark_feed"] = "enabled"
	}
	if c.metrics != nil {
		status["metrics"] = "enabled"
	}
	return status
}

// HTTPDependencies returns what the HTTP server needs. Start must have succeeded.
func (c *Container) HTTPDependencies() httpapi.Dependencies {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return httpapi.Dependencies{
		Approvals:  c.services.Approvals,
		Forms:      c.services.Forms,
		HR:         c.services.HR,
		Templates:  c.templates.Store,
		Editor:     c.templates.Editor,
		Contracts:  c.repositories.Contracts,
		Payouts:    c.repositories.Payouts,
		Exporter:   c.exporter,
		Translator: c.translator,
		Metrics:    c.metrics,
		Health:     c,
	}
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// Repositories returns the sqlite-backed collaborators.
func (c *Container) Repositories() *RepositoryBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repositories
}

// Bus returns the event bus.
func (c *Container) Bus() dispatcher.Bus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bus
}
