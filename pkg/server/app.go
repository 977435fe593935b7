package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ChartFeed/internal/usecase"
	"ChartFeed/pkg/config"
	xhttp "ChartFeed/pkg/http"
	applogger "ChartFeed/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP server and the optional source prober.
// Infrastructure clients are released by the cleanup function returned from DI.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	prober     *usecase.SourceProber
}

// New creates a new App. prober may be nil when probing is disabled.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, prober *usecase.SourceProber) *App {
	return &App{cfg: cfg, l: l, httpServer: httpServer, prober: prober}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if a.prober != nil {
		a.prober.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("chartfeed started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("audit_backend", a.cfg.Audit.Backend),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops accepting requests, then waits for a running probe.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.prober != nil {
		a.prober.Stop(shutdownCtx)
	}

	a.l.Info("shutdown complete")
	return firstErr
}
