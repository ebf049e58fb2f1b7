package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"CurveFeed/internal/domain/repository"
	"CurveFeed/pkg/cache"
	"CurveFeed/pkg/config"
	xhttp "CurveFeed/pkg/http"
	applogger "CurveFeed/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP serving plus orderly
// teardown of the cache, database, and publisher.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	httpServer *xhttp.Server

	pool      *pgxpool.Pool
	hot       cache.Service
	publisher repository.RefreshPublisher
}

// New creates an App with all dependencies. pool, hot, and publisher may be
// nil when the corresponding backend is not configured.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	pool *pgxpool.Pool,
	hot cache.Service,
	publisher repository.RefreshPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		pool:      pool,
		hot:       hot,
		publisher: publisher,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithDebugErrors(!a.cfg.Production()),
	)

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("serving", applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.hot != nil {
		if err := a.hot.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	a.log.Info("shutdown complete")
	return nil
}
