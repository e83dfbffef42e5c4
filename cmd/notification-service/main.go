package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	cgauth "github.com/NordCoder/Credgate/internal/auth"
	config "github.com/NordCoder/Credgate/internal/config/notification-service"
	"github.com/NordCoder/Credgate/internal/gate"
	"github.com/NordCoder/Credgate/internal/obs"
	"github.com/NordCoder/Credgate/internal/repository/kafka"
	notifier "github.com/NordCoder/Credgate/internal/services/notification-service"
)

func main() {
	configPath := flag.String("config", "config/notification-service.yaml", "path to the yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := obs.NewLogger(cfg.LogConfig())
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting notification-service", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	shutdownOTel, err := obs.SetupOTel(rootCtx, cfg.OTELConfig())
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	verifier, err := cgauth.NewVerifier(cgauth.CodecConfig{
		AccessSecret: cfg.Auth.AccessSecret,
		Issuer:       cfg.Auth.Issuer,
		Audience:     cfg.Auth.Audience,
	})
	if err != nil {
		logger.Fatal("token verifier", zap.Error(err))
	}
	signer, err := cgauth.NewSigner(cfg.Auth.WebhookSecret)
	if err != nil {
		logger.Fatal("webhook signer", zap.Error(err))
	}

	producer := kafka.Open(rootCtx, cfg.Kafka, logger)
	defer func() { _ = producer.Close() }()

	mux := http.NewServeMux()
	notifier.NewServer(kafka.NewNotificationEvents(producer, logger), notifier.Opts{
		Logger:  logger,
		Authn:   gate.Authenticate(verifier, logger),
		Webhook: gate.Webhook(signer, logger, cfg.Auth.MaxBodyBytes),
	}).Routes(mux)
	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.HandleFunc("GET /health", obs.Health(cfg.App.Name, cfg.App.Version))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.InstrumentHTTP(cfg.App.Name, mux, logger),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	logger.Info("bye")
}
