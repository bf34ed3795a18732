package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesa-smart-plan/cmd"
	"pesa-smart-plan/internal/data/repository"
	"pesa-smart-plan/internal/notify"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/internal/wire"
	"pesa-smart-plan/internal/worker/cleanup"
	"pesa-smart-plan/pkg/database"
	"pesa-smart-plan/pkg/metrics"
	"pesa-smart-plan/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", ".env", "path to an optional env file")
	flag.Parse()

	// Load config
	config, err := utils.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.Storage.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	if config.App.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.App.SentryDSN,
			Environment: config.App.Environment,
			Release:     config.App.Name,
		}); err != nil {
			logger.Warn("Sentry disabled", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	repos, closeStores, err := openStores(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}

	// Services
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	notifier := notify.NewDispatcherFromConfig(config.Email, config.SMS, config.OTP.DeliveryTimeout, logger)
	service := usecase.NewService(repos, notifier, config, recorder, logger)

	app := wire.Wiring(service, config, metrics.Handler(registry), logger)

	job := cleanup.NewJob(service.Code, repos.Session, service.Registration, logger)
	if config.Cleanup.Interval > 0 {
		job.Interval = config.Cleanup.Interval
	}
	if config.Cleanup.RegistrationTTL > 0 {
		job.RegistrationTTL = config.Cleanup.RegistrationTTL
	}

	// Run
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})
	g.Go(func() error {
		return job.Start(gctx)
	})

	runErr := g.Wait()
	app.Close()

	if err := multierr.Append(runErr, closeStores()); err != nil {
		logger.Error("Shutdown with errors", zap.Errors("errors", multierr.Errors(err)))
		sentry.CaptureException(err)
		return
	}
	logger.Info("Shutdown complete")
}

// openStores builds the repositories selected by config. The returned func
// closes every connection that was opened.
func openStores(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func() error, error) {
	var (
		repos   *repository.Repository
		closers []func() error
	)
	closeAll := func() error {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		return err
	}

	switch config.Storage.Driver {
	case "postgres":
		if config.App.MigrateOnUp {
			if err := database.RunMigrations(database.URL(config.Database)); err != nil {
				return nil, nil, err
			}
			logger.Info("Migrations applied")
		}

		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() error { db.Close(); return nil })
		logger.Info("Database connected successfully")

		repos = repository.NewRepository(db, logger)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		repos = repository.NewMemoryRepository()
	}

	if config.Storage.CodeStore == "redis" {
		client, err := database.InitRedis(ctx, config.Redis)
		if err != nil {
			return nil, nil, multierr.Append(err, closeAll())
		}
		closers = append(closers, client.Close)
		logger.Info("Redis connected; verification codes stored in Redis")

		repos.WithRedisCodes(client, logger)
	}

	return repos, closeAll, nil
}
