package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	cgauth "github.com/NordCoder/Credgate/internal/auth"
	config "github.com/NordCoder/Credgate/internal/config/api-gateway"
	"github.com/NordCoder/Credgate/internal/services/api-gateway/auth"
	"github.com/NordCoder/Credgate/internal/services/janitor"
)

func main() {
	configPath := flag.String("config", "config/api-gateway.yaml", "path to the yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	codec, err := cgauth.NewCodec(cfg.Auth.AsCodecConfig())
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	st, err := initStores(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("stores", zap.Error(err))
	}
	defer st.close()

	uc := auth.NewUseCase(st.users, st.records, codec, logger, auth.Config{
		PasswordCost:     cfg.Auth.PasswordCost,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
	})

	grpcServer, grpcLn, healthSrv, err := buildGRPCServer(cfg, logger, codec)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()

	httpSrv := buildHTTPServer(cfg, logger, st, uc, codec)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	janitorCtx, stopJanitor := context.WithCancel(rootCtx)
	defer stopJanitor()
	if cfg.Janitor.Enable {
		go func() { _ = janitor.New(logger, st.records, cfg.Janitor.Interval).Run(janitorCtx) }()
	}

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	stopJanitor()
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	gracefulStopGRPC(grpcServer, healthSrv)
	logger.Info("bye")
}
