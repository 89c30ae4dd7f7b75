// Package server runs the HTTP server and drains it together with its
// dependencies on shutdown.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 30 * time.Second

// Shutdownable represents a component that can be gracefully shut down
type Shutdownable interface {
	Shutdown(ctx context.Context) error
	Name() string
}

// ShutdownFunc wraps a function to implement Shutdownable
type ShutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// newShutdownFunc creates a Shutdownable from a function
func newShutdownFunc(name string, fn func(context.Context) error) *ShutdownFunc {
	return &ShutdownFunc{name: name, fn: fn}
}

// Name returns the component name
func (s *ShutdownFunc) Name() string {
	return s.name
}

// Shutdown calls the wrapped function
func (s *ShutdownFunc) Shutdown(ctx context.Context) error {
	return s.fn(ctx)
}

// Config holds configuration for graceful shutdown
type Config struct {
	Server          *http.Server
	Logger          *zap.Logger
	Shutdownables   []Shutdownable
	ShutdownTimeout time.Duration
}

// GracefulShutdown serves HTTP until its context ends, then stops the server
// and shuts registered components down in reverse registration order.
type GracefulShutdown struct {
	server          *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration

	mu            sync.Mutex
	shutdownables []Shutdownable
}

// New creates a new GracefulShutdown manager
func New(cfg Config) *GracefulShutdown {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &GracefulShutdown{
		server:          cfg.Server,
		logger:          cfg.Logger,
		shutdownables:   append([]Shutdownable(nil), cfg.Shutdownables...),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// AddShutdownable adds a component to the shutdown list
func (g *GracefulShutdown) AddShutdownable(s Shutdownable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdownables = append(g.shutdownables, s)
}

// AddShutdownFunc adds a shutdown function as a component
func (g *GracefulShutdown) AddShutdownFunc(name string, fn func(context.Context) error) {
	g.AddShutdownable(newShutdownFunc(name, fn))
}

// ListenAndServe listens on the server's address and blocks until ctx is
// done or the server fails. Pass a context from signal.NotifyContext.
func (g *GracefulShutdown) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.server.Addr)
	if err != nil {
		return err
	}
	return g.serve(ctx, ln)
}

// serve is ListenAndServe on an existing listener.
func (g *GracefulShutdown) serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		g.logger.Info("Server listening", zap.String("addr", ln.Addr().String()))
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			g.logger.Error("Server error", zap.Error(err))
			g.shutdownComponents()
			return err
		}
		return nil
	case <-ctx.Done():
		g.logger.Info("Shutdown requested", zap.NamedError("cause", context.Cause(ctx)))
	}

	return g.Shutdown()
}

// Shutdown stops the HTTP server and every registered component.
// It returns the server shutdown error, if any.
func (g *GracefulShutdown) Shutdown() error {
	g.logger.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer cancel()

	var serverErr error
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			g.logger.Warn("Server shutdown timed out, forcing close", zap.Error(err))
			_ = g.server.Close()
			serverErr = err
		}
	}

	g.shutdownComponentsWith(ctx)
	g.logger.Info("Graceful shutdown complete")
	return serverErr
}

func (g *GracefulShutdown) shutdownComponents() {
	ctx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer cancel()
	g.shutdownComponentsWith(ctx)
}

func (g *GracefulShutdown) shutdownComponentsWith(ctx context.Context) {
	g.mu.Lock()
	components := make([]Shutdownable, len(g.shutdownables))
	copy(components, g.shutdownables)
	g.shutdownables = nil
	g.mu.Unlock()

	for i := len(components) - 1; i >= 0; i-- {
		s := components[i]
		if err := s.Shutdown(ctx); err != nil {
			g.logger.Error("Error shutting down component",
				zap.String("component", s.Name()),
				zap.Error(err))
			continue
		}
		g.logger.Info("Component shutdown complete", zap.String("component", s.Name()))
	}
}

// CloseRedis returns a Shutdownable closing a Redis client
func CloseRedis(redis interface{ Close() error }) Shutdownable {
	return newShutdownFunc("redis", func(ctx context.Context) error {
		return redis.Close()
	})
}

// CloseTracer returns a Shutdownable flushing an OpenTelemetry tracer provider
func CloseTracer(shutdownFunc func(context.Context) error) Shutdownable {
	return newShutdownFunc("tracer", shutdownFunc)
}
