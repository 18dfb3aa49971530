package internal

// Handler declares routes on a router.
//
// Example:
//
//	type UsersHandler struct {
//	    repo *repository.Queries
//	}
//
//	func (h *UsersHandler) Routes(r forgecore.Router) {
//	    r.GET("/users/{id}", h.show)
//	    r.POST("/users", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers and for every stage of the
// middleware chain. Returning a non-nil error hands the failure to the
// Kernel's error boundary.
type HandlerFunc func(r *Request) (*Response, error)

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// A middleware may inspect or replace the request, short-circuit by
// returning a Response without calling next, or transform the response
// returned by next.
//
// Example:
//
//	func Auth(next forgecore.HandlerFunc) forgecore.HandlerFunc {
//	    return func(r *forgecore.Request) (*forgecore.Response, error) {
//	        if r.Header("Authorization") == "" {
//	            return forgecore.Text(401, "Unauthorized"), nil
//	        }
//	        return next(r)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc
