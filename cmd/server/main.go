package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transferapp "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/auth"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/erp/stocktransfer/internal/infrastructure/event"
	"github.com/erp/stocktransfer/internal/infrastructure/lock"
	"github.com/erp/stocktransfer/internal/infrastructure/logger"
	"github.com/erp/stocktransfer/internal/infrastructure/migration"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/erp/stocktransfer/internal/interfaces/http/handler"
	"github.com/erp/stocktransfer/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.NewForEnvironment(cfg.App.Env, cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if lp.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.Bridge(log, telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, lp, level))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Profiler disabled", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting stock transfer service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database ready")

	registry, err := persistence.LoadMovementTypeRegistry(ctx, db.DB)
	if err != nil {
		log.Fatal("Failed to load movement types", zap.Error(err))
	}

	// Workflow
	reversal, err := transfer.ParseReversalPolicy(cfg.Transfer.ReversalPolicy)
	if err != nil {
		log.Fatal("Invalid transfer configuration", zap.Error(err))
	}
	transferService := transferapp.NewTransferService(
		persistence.NewGormTransactionScope(db.DB),
		persistence.NewGormTransferRequestRepository(db.DB),
		persistence.NewGormQuantityChangeLogRepository(db.DB),
		persistence.NewGormMovementLedgerRepository(db.DB),
		persistence.NewGormAccountingPeriodRepository(db.DB),
		persistence.NewGormTenantSettingsRepository(db.DB),
		persistence.NewGormProductCatalog(db.DB),
		registry,
		log,
		transferapp.Options{
			ReversalPolicy:  reversal,
			ReceivePolicy:   transfer.ReceivePolicy{AllowUnissuedReceipt: cfg.Transfer.AllowUnissuedReceipt},
			DefaultCurrency: cfg.Transfer.DefaultCurrency,
		},
	)

	locker, redisClient, err := lock.NewFactory(cfg.Transfer, cfg.Redis, lock.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create request locker", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	transferService.SetRequestLocker(locker)

	transferMetrics, err := telemetry.NewTransferMetrics(mp.Meter("stocktransfer"))
	if err != nil {
		log.Fatal("Failed to create transfer metrics", zap.Error(err))
	}
	transferService.SetMetrics(transferMetrics)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log, event.NewTransferEventCodec()))
	eventBus.Subscribe(event.NewMetricsHandler(transferMetrics))
	transferService.SetEventPublisher(eventBus)

	// HTTP
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:           log,
		JWTService:       auth.NewJWTService(cfg.JWT),
		MeterProvider:    mp,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tp.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, handler.NewTransferHandler(transferService))
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down telemetry provider", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the SQL migrations on postgres and auto-migrates sqlite
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}
