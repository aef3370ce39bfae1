package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/application/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/auth"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/backend"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/cache"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/logger"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/messaging"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/telemetry"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/handler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			Inventory Sync Admin API
//	@version		1.0
//	@description	Order-driven inventory reconciliation and dashboard notifications
//	@BasePath		/api/v1

const shutdownTimeout = 30 * time.Second

// stoppable is a background component with a bounded shutdown
type stoppable interface {
	Stop(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("inventory-sync: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	log = loggerProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting inventory sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	health := handler.NewHealthHandler(telemetry.ServiceVersion)

	// Notification bus
	bus := notification.NewBus(log,
		notification.WithCapacity(cfg.Notification.Capacity),
		notification.WithDefaultDuration(cfg.Notification.DefaultDuration),
	)
	defer bus.Shutdown()

	// Idempotency guard
	guard, err := cache.NewGuardFactory(cfg.Redis, cache.WithLogger(log)).CreateGuard()
	if err != nil {
		return err
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Warn("Error closing adjustment guard", zap.Error(err))
		}
	}()
	if rg, ok := guard.(*cache.RedisAdjustmentGuard); ok {
		health.AddCheck("redis", func(ctx context.Context) error {
			return rg.GetClient().Ping(ctx).Err()
		})
	}

	// Commerce backend
	tokens, err := auth.NewServiceTokenIssuer(cfg.Backend)
	if err != nil {
		return err
	}
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, log, backend.WithTokenSource(tokens))
	if err != nil {
		return err
	}

	// Reconciliation
	metrics, err := telemetry.NewReconciliationMetrics(meterProvider.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		return err
	}
	reconciler := inventoryapp.NewReconciliationService(client, client, guard, bus, log,
		inventoryapp.WithStatsRefresher(client),
		inventoryapp.WithStatsRefreshTimeout(cfg.Reconciliation.StatsRefreshTimeout),
		inventoryapp.WithReconciliationMetrics(metrics),
		inventoryapp.WithTracer(tracerProvider.Tracer("inventory-reconciliation")),
	)

	var schedulerOpts []scheduler.SchedulerOption
	var runStore *persistence.GormRunRepository
	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database,
			persistence.WithGormLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if tracerProvider.IsEnabled() {
			if err := telemetry.RegisterDBTracing(db.DB, telemetry.DefaultDBTracingConfig(), log); err != nil {
				return err
			}
		}
		runStore = persistence.NewGormRunRepository(db.DB)
		if err := runStore.AutoMigrate(); err != nil {
			return err
		}
		schedulerOpts = append(schedulerOpts, scheduler.WithRunRecorder(runStore))
		health.AddCheck("database", func(context.Context) error {
			return db.Ping()
		})
		log.Info("Run history persisted to database")
	}

	sched, err := scheduler.NewReconciliationScheduler(scheduler.ReconciliationSchedulerConfig{
		Enabled:     cfg.Reconciliation.Enabled,
		Interval:    cfg.Reconciliation.Interval,
		RunTimeout:  cfg.Reconciliation.RunTimeout,
		RunOnStart:  cfg.Reconciliation.RunOnStart,
		HistorySize: cfg.Reconciliation.HistorySize,
	}, reconciler, log, schedulerOpts...)
	if err != nil {
		return err
	}

	// Background components stop in reverse start order
	bg := context.Background()
	if err := sched.Start(bg); err != nil {
		return err
	}
	components := []stoppable{sched}

	if cfg.Reconciliation.WatchEnabled {
		watcher, err := scheduler.NewChangeWatcher(scheduler.ChangeWatcherConfig{
			PollInterval: cfg.Reconciliation.WatchInterval,
		}, client, sched, log)
		if err != nil {
			return err
		}
		if err := watcher.Start(bg); err != nil {
			return err
		}
		components = append(components, watcher)
	}

	if cfg.Kafka.Enabled {
		reader, err := messaging.NewKafkaReader(cfg.Kafka)
		if err != nil {
			return err
		}
		listener := messaging.NewOrderEventListener(reader, sched, log)
		if err := listener.Start(bg); err != nil {
			return err
		}
		components = append(components, listener)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sse := handler.NewNotificationSSEHandler(bus,
		handler.WithSSELogger(log),
		handler.WithSSEHeartbeat(cfg.HTTP.SSEHeartbeat),
	)
	reconcileOpts := []handler.ReconciliationHandlerOption{handler.WithHandlerLogger(log)}
	if runStore != nil {
		reconcileOpts = append(reconcileOpts, handler.WithRunStore(runStore))
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracerProvider.IsEnabled(),
		AllowOrigins:   cfg.HTTP.CORSAllowOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		Notification:    handler.NewNotificationHandler(bus),
		NotificationSSE: sse,
		Reconciliation:  handler.NewReconciliationHandler(sched, guard, reconcileOpts...),
		InventoryStats:  handler.NewInventoryStatsHandler(client, log),
		Health:          health,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		sse.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		for i := len(components) - 1; i >= 0; i-- {
			if err := components[i].Stop(shutdownCtx); err != nil {
				log.Warn("Component did not stop cleanly", zap.Error(err))
			}
		}
		reconciler.Wait()

		for name, shutdown := range map[string]func(context.Context) error{
			"tracer": tracerProvider.Shutdown,
			"meter":  meterProvider.Shutdown,
			"logger": loggerProvider.Shutdown,
		} {
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}
