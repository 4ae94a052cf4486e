package main

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/api"
	config "github.com/akudrin/taskwire/internal/config/notifier"
	natsbroker "github.com/akudrin/taskwire/internal/repository/nats"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, broker *natsbroker.Client) *http.Server {
	h := wiring(cfg, logger, db, broker)
	router := api.NewRouter(h, cfg.Server.AllowedOrigins)
	handler := otelhttp.NewHandler(router, "notifier.http")

	// No WriteTimeout: SSE responses stay open for the life of the client.
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
