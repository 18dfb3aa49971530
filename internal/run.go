package internal

import (
	"errors"
)

// ErrNilApp is returned by Run when no app is given.
var ErrNilApp = errors.New("forgecore: nil app")

// Run starts an HTTP server for app and blocks until shutdown.
// Lifecycle events (app.starting, app.started, app.stopping, app.stopped)
// are published through the app's publisher.
//
// Example:
//
//	err := forgecore.Run(app,
//	    forgecore.Address(cfg.Server.Address),
//	    forgecore.ShutdownTimeout(cfg.Server.ShutdownTimeout),
//	    forgecore.ShutdownHook(bus.Shutdown()),
//	)
func Run(app *App, opts ...RunOption) error {
	if app == nil {
		return ErrNilApp
	}
	cfg := buildRunConfig(opts...)

	log := cfg.logger
	if log == nil {
		log = app.Logger()
	}

	return runServer(runtimeConfig{
		handler:         app,
		publisher:       app.Publisher(),
		address:         cfg.address,
		logger:          log,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    cfg.startupHooks,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
	})
}
