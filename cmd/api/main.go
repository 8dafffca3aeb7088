package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/aurora-commerce/internal/api"
	"github.com/safar/aurora-commerce/internal/classifier"
	"github.com/safar/aurora-commerce/internal/config"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/payments"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger, err := api.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	provider := newPaymentProvider(cfg.Payments, logger)
	gateway := payments.NewGateway(provider, cfg.Payments, logger.Named("payments"))
	cls := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout)

	srv := api.NewServer(db, gateway, cls, logger, api.Options{
		RequireConfirmation: cfg.Payments.RequireConfirmation,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newPaymentProvider(cfg config.PaymentsConfig, logger *zap.Logger) payments.Provider {
	if cfg.StripeAPIKey == "" {
		logger.Warn("STRIPE_API_KEY not set, checkout sessions are disabled")
		return payments.UnconfiguredProvider()
	}

	stripeLogger := logger.Named("stripe")
	provider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey: cfg.StripeAPIKey,
		Logger: func(_ context.Context, event string, fields map[string]any) {
			stripeLogger.Info(event, zap.Any("fields", fields))
		},
	})
	if err != nil {
		logger.Fatal("configure stripe", zap.Error(err))
	}
	return provider
}
