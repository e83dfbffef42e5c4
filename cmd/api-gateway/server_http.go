package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Credgate/internal/config/api-gateway"
	"github.com/NordCoder/Credgate/internal/gate"
	"github.com/NordCoder/Credgate/internal/obs"
	"github.com/NordCoder/Credgate/internal/services/api-gateway/admin"
	"github.com/NordCoder/Credgate/internal/services/api-gateway/auth"
	"github.com/NordCoder/Credgate/internal/services/api-gateway/transaction"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, st *stores, uc *auth.Usecase, v gate.Verifier) *http.Server {
	authn := gate.Authenticate(v, logger)

	mux := http.NewServeMux()
	auth.NewServer(uc, auth.Opts{
		Logger:       logger,
		CookieName:   cfg.Auth.CookieName,
		CookieDomain: cfg.Auth.CookieDomain,
		CookiePath:   cfg.Auth.CookiePath,
		CookieSecure: cfg.Auth.CookieSecure,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	}).Routes(mux, authn)
	transaction.NewServer(logger).Routes(mux, authn)
	admin.NewServer(st.users, logger).Routes(mux, authn)

	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.HandleFunc("GET /health", obs.Health(cfg.App.Name, cfg.App.Version))
	mux.HandleFunc("GET /healthz", obs.Ready(st.ping))

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.InstrumentHTTP(cfg.App.Name, mux, logger),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
