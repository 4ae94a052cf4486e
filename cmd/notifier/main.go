package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/api"
	config "github.com/akudrin/taskwire/internal/config/notifier"
	"github.com/akudrin/taskwire/internal/obs"
	natsbroker "github.com/akudrin/taskwire/internal/repository/nats"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
	"github.com/akudrin/taskwire/internal/services/notifier"
	"github.com/akudrin/taskwire/internal/services/notifier/repo"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(*cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting notifier",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.Duration("heartbeat", cfg.SSE.HeartbeatInterval),
	)

	otelShutdown, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		logger.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown.Shutdown(context.Background()) }()

	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	logger.Info("db connected")

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, logger)

	// A broker that is down at startup degrades real-time delivery; it never
	// stops the process, persistence-backed endpoints keep working.
	broker := natsbroker.Connect(rootCtx, cfg.Broker, logger)
	defer broker.Close()

	httpSrv := buildHTTPServer(cfg, logger, db, broker)

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case runErr := <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}

func wiring(cfg *config.Config, logger *zap.Logger, db *pg.DB, broker *natsbroker.Client) *api.Handler {
	notifs := pg.NewNotificationRepo(db)
	collabs := pg.NewCollaboratorRepo(db)
	settingsRepo := pg.NewSettingsRepo(db)

	engine := notifier.NewEngine(
		logger,
		collabs,
		repo.SettingsReader{R: settingsRepo},
		notifs,
		broker,
	)

	return api.NewHandler(
		logger,
		broker,
		engine,
		notifs,
		settingsRepo,
		func(ctx context.Context) error { return db.Pool.Ping(ctx) },
		cfg.SSE.HeartbeatInterval,
	)
}
