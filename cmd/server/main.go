package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/cache"
	"github.com/mamadbah2/swinewatch/internal/config"
	"github.com/mamadbah2/swinewatch/internal/monitoring"
	"github.com/mamadbah2/swinewatch/internal/repository/mongodb"
	"github.com/mamadbah2/swinewatch/internal/repository/sheets"
	"github.com/mamadbah2/swinewatch/internal/risk"
	"github.com/mamadbah2/swinewatch/internal/scheduler"
	"github.com/mamadbah2/swinewatch/internal/server/handlers"
	"github.com/mamadbah2/swinewatch/internal/server/router"
	healthsvc "github.com/mamadbah2/swinewatch/internal/service/health"
	reportingsvc "github.com/mamadbah2/swinewatch/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/swinewatch/internal/service/whatsapp"
	"github.com/mamadbah2/swinewatch/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/swinewatch/pkg/clients/whatsapp"
	"github.com/mamadbah2/swinewatch/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	window, err := monitoring.NewWindow(cfg.Monitoring.DefaultStartTime, cfg.Monitoring.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid monitoring window", zap.Error(err))
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var opts healthsvc.Options

	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(startupCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			baseLogger.Warn("redis unavailable, risk cache disabled", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			opts.Cache = cache.NewRiskCache(redisClient, cfg.Redis.TTL)
			baseLogger.Info("risk cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var exporter *sheets.Exporter
	sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	switch {
	case errors.Is(err, sheets.ErrNotConfigured):
		baseLogger.Warn("google sheets not configured, export disabled")
	case err != nil:
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	default:
		exporter = sheets.NewExporter(sheetsRepo, window.Location)
		opts.Exporter = exporter
	}

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, alerts use the built-in template")
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, baseLogger.Named("svc.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp not configured, alerts disabled")
		messagingSvc = whatsappsvc.NopMessagingService{Logger: baseLogger.Named("svc.whatsapp")}
	}
	opts.Notifier = messagingSvc

	healthService := healthsvc.NewService(mongoRepo, risk.NewEngine(), window, opts, baseLogger.Named("svc.health"))

	var reportExporter reportingsvc.Exporter
	if exporter != nil {
		reportExporter = exporter
	}
	reportingService := reportingsvc.NewService(healthService, mongoRepo, reportExporter, window.Location, baseLogger.Named("svc.reporting"))

	sched := scheduler.NewScheduler(cfg.Monitoring, window.Location, healthService, reportingService, messagingSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	healthHandler := handlers.NewHealthHandler(healthService, messagingSvc, baseLogger.Named("handlers.health"))
	engine := router.New(healthHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("timezone", cfg.Monitoring.Timezone))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
