package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/config"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/repository/memory"
	"github.com/mamadbah2/batchbook/internal/repository/mongodb"
	"github.com/mamadbah2/batchbook/internal/repository/sheets"
	"github.com/mamadbah2/batchbook/internal/scheduler"
	"github.com/mamadbah2/batchbook/internal/server/handlers"
	"github.com/mamadbah2/batchbook/internal/server/router"
	analyticssvc "github.com/mamadbah2/batchbook/internal/service/analytics"
	batchsvc "github.com/mamadbah2/batchbook/internal/service/batches"
	commandsvc "github.com/mamadbah2/batchbook/internal/service/commands"
	expensesvc "github.com/mamadbah2/batchbook/internal/service/expenses"
	salesvc "github.com/mamadbah2/batchbook/internal/service/sales"
	"github.com/mamadbah2/batchbook/internal/service/snapshot"
	whatsappsvc "github.com/mamadbah2/batchbook/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/batchbook/pkg/clients/whatsapp"
	"github.com/mamadbah2/batchbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, baseLogger)
	defer closeStore()

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	view := snapshot.NewView(baseLogger.Named("svc.snapshot"))
	go func() {
		if err := view.Run(ctx, store); err != nil && !errors.Is(err, context.Canceled) {
			baseLogger.Error("snapshot view stopped", zap.Error(err))
		}
	}()

	batchService := batchsvc.NewService(store, now, baseLogger.Named("svc.batches"))
	saleEngine := salesvc.NewEngine(store, now, baseLogger.Named("svc.sales"))
	expenseService := expensesvc.NewService(store, now, baseLogger.Named("svc.expenses"))
	analyticsService := analyticssvc.NewService(view, now, baseLogger.Named("svc.analytics"))

	routes := router.Handlers{
		Batches:   handlers.NewBatchHandler(batchService, view, baseLogger.Named("handlers.batches")),
		Ledger:    handlers.NewLedgerHandler(saleEngine, expenseService, view, baseLogger.Named("handlers.ledger")),
		Analytics: handlers.NewAnalyticsHandler(analyticsService, baseLogger.Named("handlers.analytics")),
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(view, analyticsService, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, chat commands disabled")
	}

	if cfg.Digest.Enabled {
		var exporter scheduler.DigestExporter
		if cfg.Sheets.Enabled() {
			sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
			if err != nil {
				baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
			}
			exporter = sheets.NewDigestExporter(sheetsRepo, cfg.Sheets.DigestRange, baseLogger.Named("repo.sheets.digest"))
		}

		sched := scheduler.NewScheduler(*cfg, analyticsService, messagingSvc, exporter, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(routes, view, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
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

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.LedgerStore, func()) {
	if cfg.Store.Driver == config.DriverMemory {
		log.Warn("using the in-memory ledger store, data is lost on restart")
		return memory.New(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	store, err := mongodb.NewLedgerStore(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("repo.mongodb"))
	if err != nil {
		log.Fatal("failed to init mongodb ledger store", zap.Error(err))
	}

	return store, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("failed to close mongodb connection", zap.Error(err))
		}
	}
}
