package cli

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/adapters/persistence"
	"github.com/Oscarts/backery2-app-sub005/internal/application"
	"github.com/Oscarts/backery2-app-sub005/internal/application/common"
	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/config"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/database"
	"github.com/Oscarts/backery2-app-sub005/internal/infrastructure/logging"
)

// app holds everything a command needs for one CLI invocation
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	logger    *logging.Logger
	mediator  common.Mediator
	collector *metrics.ProductionMetricsCollector
}

// newApp loads configuration, opens the database and wires the mediator
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Type == "sqlite" {
		// File databases are created on first use
		if err := database.AutoMigrate(db); err != nil {
			database.Close(db)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	a := &app{cfg: cfg, db: db, logger: logger}
	if err := a.wire(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	med := common.NewMediator()

	var commandMetrics *metrics.CommandMetricsCollector
	if a.cfg.Metrics.Enabled {
		metrics.InitRegistry(a.cfg.Metrics.Namespace)

		a.collector = metrics.NewProductionMetricsCollector(a.db)
		if err := a.collector.Register(); err != nil {
			return fmt.Errorf("failed to register production metrics: %w", err)
		}
		metrics.SetGlobalProductionCollector(a.collector)

		commandMetrics = metrics.NewCommandMetricsCollector()
		if err := commandMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register command metrics: %w", err)
		}
	}

	// First registered runs outermost
	med.RegisterMiddleware(common.LoggingMiddleware(a.logger))
	med.RegisterMiddleware(metrics.PrometheusMiddleware(commandMetrics))
	med.RegisterMiddleware(common.ValidationMiddleware(validator.New()))

	err := application.RegisterHandlers(med, application.Dependencies{
		UnitOfWork: persistence.NewGormUnitOfWork(a.db),
		Reads:      persistence.NewRepositories(a.db),
		Completion: services.CompletionOptions{
			BatchPrefix:   a.cfg.Production.BatchPrefix,
			ShelfLife:     a.cfg.Production.ShelfLife(),
			ReleaseOnHold: a.cfg.Production.ReleaseOnHold,
		},
		DefaultSteps: application.StepDefinitions(a.cfg.Production.DefaultSteps),
	})
	if err != nil {
		return err
	}

	a.mediator = med
	return nil
}

// send dispatches a request with the app logger in context
func (a *app) send(request common.Request) (common.Response, error) {
	ctx := common.WithLogger(context.Background(), a.logger)
	return a.mediator.Send(ctx, request)
}

// tenant returns the --tenant flag or the configured tenant
func (a *app) tenant() string {
	if tenantID != "" {
		return tenantID
	}
	return a.cfg.Production.TenantID
}

// close flushes metrics, syncs the logger and closes the database
func (a *app) close() {
	if a.collector != nil {
		if err := a.collector.Refresh(context.Background()); err != nil {
			a.logger.Warn("failed to refresh production gauges", "error", err)
		}
	}
	if a.cfg != nil && a.cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			a.logger.Warn("failed to write metrics textfile", "path", a.cfg.Metrics.TextfilePath, "error", err)
		}
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
	a.logger.Sync()
}

// withApp runs fn against a freshly wired app and tears it down afterwards
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
