// Package internal provides the core types and implementation for forgecore.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/forgecore" instead, which re-exports the public API.
//
// # Core Types
//
//   - Request: immutable view of an inbound call with a shared value bag
//   - Response: immutable status, headers and body
//   - HandlerFunc: route handler and pipeline stage signature
//   - Middleware: wraps a HandlerFunc; may short-circuit
//   - Pipeline: ordered, immutable middleware sequence
//   - Kernel: runs a request through the pipeline into the matched route
//   - ErrorService: turns a failure into a Response
//   - RouteMatcher: resolves the handler for a request
//   - App: wires router, kernel and server runtime
//
// # Request flow
//
// Kernel.Handle emits request.received, runs the composed chain
// pipeline.Then(route) and emits request.completed. Route matching happens
// innermost, so global middleware also sees requests that match no route.
//
// Any returned error or recovered panic goes to the error boundary: the error
// service is consulted exactly once and request.error (or request.cancelled)
// is emitted with the failure category. If the error service fails, a plain
// 500 is returned. Handle never fails and never panics.
//
// # Error categories
//
//	validation     400 (422 with field errors)
//	not_found      404 (405 when only the method differs)
//	authorization  401 / 403
//	upstream       502 (or the *Error status)
//	cancelled      499 (504 on deadline)
//	unexpected     500, error text never rendered
//
// # Routing
//
// Mux is the default RouteMatcher, backed by chi. Bridge adapts a legacy
// router (path and method in, handler and params out) and is selected at
// construction time with WithRouteMatcher. HTTPHandler adapts net/http
// handlers.
//
//	func (h *Users) Routes(r forgecore.Router) {
//	    r.GET("/users/{id}", h.show)
//	    r.Route("/admin", func(r forgecore.Router) {
//	        r.Use(middlewares.Auth(validate))
//	        r.DELETE("/users/{id}", h.delete)
//	    })
//	}
//
// # Lifecycle
//
// Run serves the app until the base context is cancelled or SIGINT/SIGTERM
// arrives. Startup hooks run in order before the listener opens; shutdown
// hooks run in reverse order after the server drains.
package internal
