package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"site-defects/internal/backend"
	"site-defects/internal/config"
	"site-defects/internal/database"
	"site-defects/internal/handlers"
	"site-defects/internal/logger"
	"site-defects/internal/metrics"
	"site-defects/internal/server"
	"site-defects/internal/store"
	"site-defects/internal/workflow"

	"go.uber.org/zap"
)

const serviceName = "site-defects"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Open(cfg.DBDSN, lg)
	if err != nil {
		lg.Fatal("audit database", zap.Error(err))
	}

	rdb := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ledger := store.NewLedger(rdb, cfg.LedgerTTL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := ledger.Ping(ctx); err != nil {
		// submissions still work, only without resume
		lg.Warn("redis unreachable, step ledger degraded", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancel()

	reg := metrics.NewRegistry()

	api := backend.New(backend.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.BackendTimeout,
		RetryCount: cfg.BackendRetries,
		Logger:     lg.Named("backend"),
		Observer:   metrics.NewBackendMetrics(reg),
	})

	audit := database.NewAuditStore(db, lg.Named("audit"))
	svc := workflow.NewService(workflow.Options{
		Backend: api,
		Ledger:  ledger,
		Audit:   audit,
		Metrics: metrics.NewWorkflowMetrics(reg),
		Logger:  lg.Named("workflow"),
	})

	h := handlers.New(handlers.Deps{
		Backend:       api,
		Workflow:      svc,
		Audit:         audit,
		Drafts:        store.NewDraftPhotos(rdb, cfg.LedgerTTL),
		RepairBaseURL: cfg.RepairBaseURL,
		Logger:        lg.Named("http"),
	})

	r := server.NewRouter(cfg, h, reg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	lg.Info("starting server", zap.String("addr", addr), zap.String("backend", cfg.APIBaseURL))
	if err := r.Run(addr); err != nil {
		lg.Fatal("server error", zap.Error(err))
	}
}
