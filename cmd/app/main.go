package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/config"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/billing"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/logging"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/metrics"
	red "github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/redis"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/web"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/webhook"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/worker"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Redis (checkout sessions) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	sessionRepo := red.NewSessionRepo(redisClient, cfg.Billing.SessionTTL)

	// ---- Catalog (price authority) ----
	entries := make([]model.ServiceCatalogEntry, 0, len(cfg.Catalog.Services))
	for _, s := range cfg.Catalog.Services {
		entries = append(entries, model.ServiceCatalogEntry{
			ID:       s.ID,
			Name:     s.Name,
			Price:    s.Price,
			Currency: cfg.Catalog.Currency,
		})
	}
	catalogUC := usecase.NewCatalogUseCase(entries)

	// ---- Billing gateway + reference factory ----
	gateway := billing.NewEBillingGateway(cfg.Billing, cfg.Catalog.Currency, logger)
	refs := billing.NewReferenceFactory(cfg.Billing.SessionSecret, cfg.Billing.SessionTTL)

	// ---- Downstream webhook (optional) ----
	pool := worker.NewPool(cfg.Checkout.WebhookWorkers, logger)
	pool.Start(ctx)
	defer pool.Stop()
	notifier := webhook.NewNotifier(cfg.Billing.WebhookURL, pool, logger)

	// ---- Use cases ----
	clock := usecase.NewRealClock()
	checkoutUC := usecase.NewCheckoutUseCase(
		catalogUC, gateway, refs, sessionRepo, notifier, clock, cfg.Billing.FallbackEmail, logger,
	)
	watcherCfg := usecase.WatcherConfig{
		PollInterval:  cfg.Checkout.PollInterval,
		ConfirmWindow: cfg.Checkout.ConfirmWindow,
		CheckTimeout:  cfg.Checkout.CheckTimeout,
	}

	// ---- HTTP server ----
	srv := web.NewServer(
		catalogUC, checkoutUC, gateway, sessionRepo, refs, clock,
		watcherCfg, cfg.Server.RequestTimeout, logger,
	)
	srv.SetBaseContext(ctx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel() // tears down confirmation watchers and the worker pool
}
