// Package forgecore provides a request kernel for building HTTP services in Go.
//
// Every inbound call is converted into a [Request], passed through an ordered
// [Pipeline] of [Middleware] and dispatched to the [HandlerFunc] selected by a
// [RouteMatcher]. The [Kernel] always produces a [Response]: handler errors,
// routing misses and recovered panics are converted by a single [ErrorService].
//
// # Quick Start
//
//	app := forgecore.New(
//	    forgecore.WithLogger("api", middlewares.RequestIDExtractor()),
//	    forgecore.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Logging(log),
//	        middlewares.Recover(log),
//	    ),
//	    forgecore.WithHandlers(handlers.NewUsers(repo)),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Handlers
//
// Handlers implement the [Handler] interface to declare routes:
//
//	func (h *Users) Routes(r forgecore.Router) {
//	    r.GET("/users/{id}", h.show)
//	}
//
//	func (h *Users) show(r *forgecore.Request) (*forgecore.Response, error) {
//	    u, err := h.repo.Find(r.Context(), forgecore.Param[int64](r, "id"))
//	    if err != nil {
//	        return nil, forgecore.ErrNotFound("user not found", forgecore.WithCause(err))
//	    }
//	    return forgecore.JSON(200, u)
//	}
//
// # Middleware
//
// Middleware wraps the next stage. The first registered middleware is the
// outermost: it sees the request first and the response last. Global
// middleware runs for unmatched routes too, so CORS preflights and access
// logs cover 404 and 405 responses.
//
//	func Header(name, value string) forgecore.Middleware {
//	    return func(next forgecore.HandlerFunc) forgecore.HandlerFunc {
//	        return func(r *forgecore.Request) (*forgecore.Response, error) {
//	            resp, err := next(r)
//	            if err != nil {
//	                return nil, err
//	            }
//	            return resp.WithHeader(name, value), nil
//	        }
//	    }
//	}
//
// # Errors
//
// Errors are classified into categories ([CategoryOf]). The default
// [ErrorResolver] maps each category to a status code and never renders the
// text of unexpected errors. Replace a strategy with [WithErrorStrategy] or
// route specific errors with [WithErrorMatcher].
//
// # Lifecycle events
//
// The kernel and runtime emit [Event] values (request.received,
// request.completed, request.error, app.starting, app.stopped and so on) to
// every [EventPublisher] given with [WithEventPublisher]. Publisher failures
// are logged and never affect the response.
//
// # Legacy routers
//
// [Bridge] adapts any router exposing a Match lookup so it can serve
// routes not declared on the app:
//
//	forgecore.New(forgecore.WithRouteMatcher(forgecore.Bridge(legacy)))
//
// # Shutdown
//
// [Run] handles SIGINT/SIGTERM. Startup hooks run in order before the
// listener opens; shutdown hooks run in reverse order after the server
// drains:
//
//	app.Run(":8080",
//	    forgecore.StartupHook(redis.Healthcheck(client)),
//	    forgecore.ShutdownHook(bus.Shutdown()),
//	)
package forgecore
