// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	router "bidmarket/internal/api"
	"bidmarket/internal/api/handler"
	"bidmarket/internal/config"
	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
	"bidmarket/internal/notify"
	"bidmarket/internal/repository"
	"bidmarket/internal/repository/postgres"
	"bidmarket/internal/service"
	"bidmarket/internal/util"
	"bidmarket/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	// Repositories
	UserRepository         repository.UserRepository
	ListingRepository      repository.ListingRepository
	BidRepository          repository.BidRepository
	LikeRepository         repository.LikeRepository
	NotificationRepository repository.NotificationRepository

	Dispatcher *notify.Dispatcher

	// Services
	ListingService service.ListingService
	BidService     service.BidService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "log_level", cfg.LogLevel)

	// 3. Connect to Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, app.DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		app.Logger.Info("Database schema applied.")
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.New(registry)

	// 5. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.ListingRepository = postgres.NewListingRepository(app.DB)
	app.BidRepository = postgres.NewBidRepository(app.DB)
	app.LikeRepository = postgres.NewLikeRepository(app.DB)
	app.NotificationRepository = postgres.NewNotificationRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Notification delivery runs after commit, outside any bid transaction.
	emitter := notify.NewStoreEmitter(app.DB, app.NotificationRepository)
	app.Dispatcher = notify.NewDispatcher(cfg.Notify, emitter, app.Logger, app.Metrics)

	// 7. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	deps := service.TxDeps{
		DBBeginner: app.DB,
		DBExecutor: app.DB,
		BeginTx:    db.BeginTx,
		CommitTx:   db.CommitTx,
		RollbackTx: db.RollbackTx,
		Retry:      cfg.Retry,
	}
	converter := domain.NewCurrencyConverter(decimal.NewFromFloat(cfg.Marketplace.USDRate))
	rules := service.BidRules{
		MinimumParticipationBalance: decimal.NewFromFloat(cfg.Marketplace.MinimumParticipationBalance),
	}
	app.ListingService = service.NewListingService(
		deps,
		app.UserRepository,
		app.ListingRepository,
		app.BidRepository,
		app.LikeRepository,
		app.Dispatcher,
		app.Logger,
		app.Metrics,
	)
	app.BidService = service.NewBidService(
		deps,
		app.UserRepository,
		app.ListingRepository,
		app.BidRepository,
		converter,
		rules,
		app.Dispatcher,
		app.Logger,
		app.Metrics,
	)
	app.Logger.Info("Services initialized.", "usd_rate", cfg.Marketplace.USDRate)

	// 8. Initialize HTTP Handlers and Router
	listingHandler := handler.NewListingHandler(app.ListingService, app.Logger)
	bidHandler := handler.NewBidHandler(app.BidService, app.Logger)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	app.HTTPHandler = router.NewRouter(listingHandler, bidHandler, metricsHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
// Pending notifications are flushed before the database is closed.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Dispatcher != nil {
		app.Dispatcher.Stop()
		app.Logger.Info("Notification dispatcher drained.")
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
