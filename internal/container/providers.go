package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/decision"
	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/application/registry"
	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/application/template"
	"github.com/garyjia/signage-ops/internal/i18n"
	infraLark "github.com/garyjia/signage-ops/internal/infrastructure/external/lark"
	"github.com/garyjia/signage-ops/internal/infrastructure/metrics"
	"github.com/garyjia/signage-ops/internal/infrastructure/persistence/repository"
	"github.com/garyjia/signage-ops/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/signage-ops/pkg/database"
	"github.com/garyjia/signage-ops/pkg/utils"
)

// DatabaseBundle holds the database handle and its transaction manager.
type DatabaseBundle struct {
	DB        *database.DB
	TxManager *sqlite.TxManager
}

// RepositoryBundle groups the sqlite-backed collaborators.
type RepositoryBundle struct {
	Contracts *repository.ContractRepository
	Payouts   *repository.PayoutRepository
	Staff     *repository.EmployeeRepository
	History   port.HistoryRepository
}

// LarkBundle holds the Lark client and the management feed built on it.
type LarkBundle struct {
	Client    *infraLark.SDKClient
	Messenger *infraLark.Messenger
	Feed      port.FeedBroadcaster
}

// TemplateBundle holds the template store and its editor.
type TemplateBundle struct {
	Store  *template.Store
	Editor *template.Editor
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Approvals service.ApprovalService
	Forms     service.FormService
	HR        service.HRService
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:        db,
		TxManager: sqlite.NewTxManager(db.DB, logger),
	}, nil
}

// ProvideRepositories creates the contract ledger, payout queue, HR roster
// and decision journal over one database.
func ProvideRepositories(db *DatabaseBundle, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Contracts: repository.NewContractRepository(db.DB.DB, db.TxManager, logger),
		Payouts:   repository.NewPayoutRepository(db.DB.DB, logger),
		Staff:     repository.NewEmployeeRepository(db.DB.DB, logger),
		History:   repository.NewHistoryRepository(db.DB.DB, logger),
	}, nil
}

// ProvideLark creates the Lark management feed. It returns nil when the feed
// is disabled.
func ProvideLark(cfg *LarkConfig, logger *zap.Logger) (*LarkBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)
	messenger := infraLark.NewMessenger(client, logger)

	return &LarkBundle{
		Client:    client,
		Messenger: messenger,
		Feed:      infraLark.NewBroadcaster(messenger, cfg.NotifyChatID),
	}, nil
}

// ProvideTemplates seeds the template store from the embedded set or from
// cfg.TemplatesPath.
func ProvideTemplates(cfg *SeedConfig, logger *zap.Logger) (*TemplateBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("seed config is required")
	}

	seed, err := template.LoadSeed(cfg.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load template seed: %w", err)
	}

	store := template.NewStore(logger)
	if err := store.Seed(seed); err != nil {
		return nil, fmt.Errorf("failed to seed templates: %w", err)
	}

	return &TemplateBundle{
		Store:  store,
		Editor: template.NewEditor(store, logger),
	}, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Registry   *registry.Registry
	Repos      *RepositoryBundle
	Templates  *TemplateBundle
	Bus        dispatcher.Bus
	Translator *i18n.Translator
	Logger     *zap.Logger
}

// ProvideServices creates the approval, form and HR services. The
// notification feed and effect dispatcher are built here because nothing
// outside the services uses them.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Registry == nil || deps.Repos == nil || deps.Templates == nil {
		return nil, fmt.Errorf("registry, repositories and templates are required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger)
	feed := service.NewNotificationFeed(deps.Registry, deps.Bus, serviceLogger)
	effects := dispatcher.NewEffectDispatcher(deps.Repos.Contracts, deps.Repos.Payouts, feed, deps.Logger)

	approvals := service.NewApprovalService(
		deps.Registry,
		decision.NewEngine(nil),
		effects,
		deps.Bus,
		deps.Templates.Store,
		deps.Repos.History,
		serviceLogger,
	)

	return &ServiceBundle{
		Approvals: approvals,
		Forms:     service.NewFormService(approvals, deps.Repos.Contracts, deps.Repos.Payouts, deps.Translator, serviceLogger),
		HR:        service.NewHRService(deps.Repos.Staff, effects, deps.Translator, serviceLogger),
	}, nil
}

// SubscriberDeps holds what the event subscribers need.
type SubscriberDeps struct {
	Bus        dispatcher.Bus
	Registry   *registry.Registry
	History    port.HistoryRepository
	Metrics    metrics.Metrics
	Feed       port.FeedBroadcaster
	Translator *i18n.Translator
	Logger     *zap.Logger
}

// RegisterSubscribers attaches the journal, and when configured the metrics
// observer and the Lark feed, to the bus.
func RegisterSubscribers(deps *SubscriberDeps) error {
	if deps == nil || deps.Bus == nil {
		return fmt.Errorf("event bus is required")
	}
	if deps.History == nil {
		return fmt.Errorf("history repository is required")
	}

	logger := utils.NewKVLogger(deps.Logger)
	service.NewJournal(deps.History, logger).Register(deps.Bus)

	if deps.Metrics != nil {
		service.NewMetricsObserver(deps.Metrics, deps.Registry).Register(deps.Bus)
	}
	if deps.Feed != nil {
		service.NewFeedAnnouncer(deps.Feed, deps.Translator, logger).Register(deps.Bus)
	}
	return nil
}
