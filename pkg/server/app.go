package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinResearch/internal/domain/models"
	"FinResearch/internal/usecase"
	"FinResearch/pkg/config"
	xhttp "FinResearch/pkg/http"
	pkgkafka "FinResearch/pkg/kafka"
	applogger "FinResearch/pkg/logger"
	"FinResearch/pkg/queue"
)

const defaultShutdownTimeout = 15 * time.Second

type namedCloser struct {
	name string
	c    io.Closer
}

type Option func(*App)

func WithHTTPServer(s *xhttp.Server) Option {
	return func(a *App) { a.httpServer = s }
}

func WithConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) { a.consumer = c }
}

func WithQueue(q *queue.RedisQueue) Option {
	return func(a *App) { a.queue = q }
}

// WithCloser registers a resource closed on shutdown. Closers run in reverse
// registration order after the servers and workers have stopped.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	uc         *usecase.ResearchUseCase
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	closers    []namedCloser
}

func New(cfg *config.Config, l *applogger.Logger, uc *usecase.ResearchUseCase, opts ...Option) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{cfg: cfg, l: l, uc: uc}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunOnce researches token, delivers the report to the sinks and returns it.
func (a *App) RunOnce(ctx context.Context, token string) *models.Report {
	return a.uc.Run(ctx, token, true, nil)
}

// Run starts the queue workers, the Kafka consumer and the HTTP server, then
// blocks until ctx is done or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.start(); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

func (a *App) start() error {
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return fmt.Errorf("start research queue: %w", err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Topics.Requests))
	}
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
	}
	return nil
}

// Shutdown stops intake first, then workers, then closes infrastructure.
func (a *App) Shutdown(ctx context.Context) error {
	timeout := defaultShutdownTimeout
	if a.cfg != nil && a.cfg.Server.ShutdownTimeout > 0 {
		timeout = a.cfg.Server.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.l.Info("shutting down")
	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("research queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// flush aggregated logs while the producer is still open
	a.l.RemoveCollector()

	errs = append(errs, a.closeAll()...)
	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeAll() []error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", nc.name, err))
		}
	}
	a.closers = nil
	return errs
}
