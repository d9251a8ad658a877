package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"FinAdvisor/pkg/config"
	xhttp "FinAdvisor/pkg/http"
	pkgkafka "FinAdvisor/pkg/kafka"
	applogger "FinAdvisor/pkg/logger"
)

// Sweeper drops idle per-client state. The chat handler's rate limiter is one.
type Sweeper interface {
	SweepIdle(idle time.Duration) int
}

// PanicResponder lets a handler shape the body written after a recovered panic.
type PanicResponder interface {
	RecoverResponse(c echo.Context, recovered any) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	httpServer *xhttp.Server
}

// New creates a new App. consumer may be nil when Kafka is disabled.
func New(cfg *config.Config, l *applogger.Logger, handler xhttp.Handler, consumer *pkgkafka.Consumer) *App {
	return &App{
		cfg:      cfg,
		log:      applogger.OrNop(l),
		handler:  handler,
		consumer: consumer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and the rate consumer and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(!a.cfg.Server.DisableCORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.log),
	}
	if pr, ok := a.handler.(PanicResponder); ok {
		opts = append(opts, xhttp.WithPanicResponse(pr.RecoverResponse))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("rate update consumer started", applogger.String("topic", a.cfg.Kafka.RatesTopic))
	}

	if s, ok := a.handler.(Sweeper); ok && a.cfg.RateLimit.Enabled {
		go a.sweep(ctx, s)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context, s Sweeper) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.SweepIdle(10 * time.Minute); n > 0 {
				a.log.Debug("rate limit buckets swept", applogger.Int("count", n))
			}
		}
	}
}

// shutdown stops the HTTP server, then the consumer. Clients and producers
// are closed by the injector's cleanup.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
