package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/forgecore/pkg/events"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

const defaultAddress = ":8080"

// ErrStartupHook wraps a failed startup hook.
var ErrStartupHook = errors.New("forgecore: startup hook failed")

// runtimeConfig holds configuration for running the HTTP server.
type runtimeConfig struct {
	baseCtx         context.Context
	handler         http.Handler
	publisher       events.Publisher
	logger          *slog.Logger
	address         string
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

// runServer starts the HTTP server and blocks until shutdown.
func runServer(cfg runtimeConfig) error {
	if cfg.address == "" {
		cfg.address = defaultAddress
	}
	if cfg.shutdownTimeout == 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNope()
	}
	if cfg.publisher == nil {
		cfg.publisher = events.Nop()
	}
	log := cfg.logger

	server := &http.Server{
		Addr:              cfg.address,
		Handler:           cfg.handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg.emit(ctx, events.AppStarting, map[string]string{"address": cfg.address})

	for i, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			log.Error("startup hook failed", slog.Int("hook", i), slog.Any("error", err))
			return errors.Join(fmt.Errorf("%w: %w", ErrStartupHook, err), cfg.shutdown(ctx, nil))
		}
	}

	// Listen first to get actual address
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return errors.Join(err, cfg.shutdown(ctx, nil))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	cfg.emit(ctx, events.AppStarted, map[string]string{"address": ln.Addr().String()})

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := cfg.shutdown(ctx, server); err != nil {
		log.Error("shutdown completed with errors")
		return errors.Join(serveErr, err)
	}
	if serveErr != nil {
		return serveErr
	}

	log.Info("shutdown completed")
	return nil
}

// shutdown stops the server (when running) and runs shutdown hooks in
// reverse registration order. app.stopped is published before the hooks
// so a buffered publisher closed by a hook still delivers it.
func (cfg runtimeConfig) shutdown(ctx context.Context, server *http.Server) error {
	cfg.emit(ctx, events.AppStopping, nil)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.shutdownTimeout)
	defer cancel()

	var errs []error
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	cfg.emit(ctx, events.AppStopped, nil)

	for i := len(cfg.shutdownHooks) - 1; i >= 0; i-- {
		if err := cfg.shutdownHooks[i](shutdownCtx); err != nil {
			errs = append(errs, err)
			cfg.logger.Error("shutdown hook failed", slog.Int("hook", i), slog.Any("error", err))
		}
	}
	return errors.Join(errs...)
}

// emit publishes an application event. Failures are logged and ignored.
func (cfg runtimeConfig) emit(ctx context.Context, kind events.Kind, attrs map[string]string) {
	defer func() {
		if v := recover(); v != nil {
			cfg.logger.Warn("event publisher panicked", slog.String("kind", string(kind)), slog.Any("panic", v))
		}
	}()

	e := events.Event{Kind: kind, Timestamp: time.Now(), Attrs: attrs}
	if err := cfg.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		cfg.logger.Warn("event publish failed", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}
