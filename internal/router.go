package internal

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// RouteMatcher resolves the handler for a request.
// It returns ErrRouteNotFound when no route matches the path and
// ErrMethodNotAllowed when the path exists for other methods only.
type RouteMatcher interface {
	Match(r *Request) (HandlerFunc, error)
}

// RouteMatcherFunc adapts a function to RouteMatcher.
type RouteMatcherFunc func(r *Request) (HandlerFunc, error)

// Match calls f(r).
func (f RouteMatcherFunc) Match(r *Request) (HandlerFunc, error) {
	return f(r)
}

// Router is the interface handlers use to declare routes.
type Router interface {
	// GET registers a handler for GET requests.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware)

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware)

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// HEAD registers a handler for HEAD requests.
	HEAD(path string, h HandlerFunc, mw ...Middleware)

	// OPTIONS registers a handler for OPTIONS requests.
	OPTIONS(path string, h HandlerFunc, mw ...Middleware)

	// Handle registers a handler for an arbitrary method.
	Handle(method, path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline route group sharing the current prefix.
	// Middleware added with Use inside fn applies to the group only.
	Group(fn func(r Router))

	// Route creates a route group with a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware for routes registered afterwards in this group.
	Use(mw ...Middleware)

	// Mount attaches a net/http handler for every method under pattern.
	// Use this for legacy handlers or third-party routers.
	Mount(pattern string, h http.Handler)
}

// routeMethods are the methods probed when deciding between 404 and 405.
var routeMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace,
}

// anyMethod keys handlers registered for all methods.
const anyMethod = "*"

// chiMethods guards chi's package-level method table. Registering a custom
// method writes it; route registration and lookup read it.
var chiMethods sync.RWMutex

func registerMethod(method string) {
	if slices.Contains(routeMethods, method) {
		return
	}
	chiMethods.Lock()
	chi.RegisterMethod(method)
	chiMethods.Unlock()
}

// Mux is the default RouteMatcher. Pattern matching is delegated to chi;
// Mux keeps the handlers and applies route-level middleware.
// Register all routes before serving: Mux is read-only afterwards and then
// safe for concurrent Match calls.
type Mux struct {
	tree     *chi.Mux
	handlers map[string]HandlerFunc
	custom   []string // non-standard methods registered on this Mux
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{
		tree:     chi.NewRouter(),
		handlers: make(map[string]HandlerFunc),
	}
}

// Match implements RouteMatcher.
func (m *Mux) Match(r *Request) (HandlerFunc, error) {
	rctx := chi.NewRouteContext()
	pattern := m.find(rctx, r.Method(), r.Path())
	if pattern == "" {
		if m.pathExists(r.Method(), r.Path()) {
			return nil, ErrMethodNotAllowed
		}
		return nil, ErrRouteNotFound
	}

	h, ok := m.handlers[routeKey(r.Method(), pattern)]
	if !ok {
		h, ok = m.handlers[routeKey(anyMethod, pattern)]
	}
	if !ok {
		return nil, ErrRouteNotFound
	}

	if len(rctx.URLParams.Keys) == 0 {
		return h, nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return func(req *Request) (*Response, error) {
		return h(req.WithParams(params))
	}, nil
}

// Routes returns the root registrar.
func (m *Mux) Routes() Router {
	return &registrar{mux: m}
}

func (m *Mux) pathExists(method, path string) bool {
	for _, other := range slices.Concat(routeMethods, m.custom) {
		if other == method {
			continue
		}
		if m.find(chi.NewRouteContext(), other, path) != "" {
			return true
		}
	}
	return false
}

func (m *Mux) find(rctx *chi.Context, method, path string) string {
	chiMethods.RLock()
	defer chiMethods.RUnlock()
	return m.tree.Find(rctx, method, path)
}

func (m *Mux) add(method, pattern string, h HandlerFunc) {
	if method != anyMethod {
		registerMethod(method)
		if !slices.Contains(routeMethods, method) && !slices.Contains(m.custom, method) {
			m.custom = append(m.custom, method)
		}
	}

	chiMethods.RLock()
	if method == anyMethod {
		m.tree.Handle(pattern, http.NotFoundHandler())
	} else {
		m.tree.Method(method, pattern, http.NotFoundHandler())
	}
	chiMethods.RUnlock()
	m.handlers[routeKey(method, pattern)] = h
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

// registrar implements Router for one group of a Mux.
type registrar struct {
	mux    *Mux
	prefix string
	mw     []Middleware
}

func (g *registrar) GET(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodGet, path, h, mw...)
}

func (g *registrar) POST(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPost, path, h, mw...)
}

func (g *registrar) PUT(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPut, path, h, mw...)
}

func (g *registrar) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPatch, path, h, mw...)
}

func (g *registrar) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodDelete, path, h, mw...)
}

func (g *registrar) HEAD(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodHead, path, h, mw...)
}

func (g *registrar) OPTIONS(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodOptions, path, h, mw...)
}

func (g *registrar) Handle(method, path string, h HandlerFunc, mw ...Middleware) {
	g.mux.add(strings.ToUpper(method), g.pattern(path), g.wrap(h, mw...))
}

func (g *registrar) Group(fn func(Router)) {
	fn(g.child(""))
}

func (g *registrar) Route(pattern string, fn func(Router)) {
	fn(g.child(strings.TrimSuffix(pattern, "/")))
}

func (g *registrar) Use(mw ...Middleware) {
	g.mw = append(g.mw, mw...)
}

func (g *registrar) Mount(pattern string, h http.Handler) {
	prefix := g.pattern(strings.TrimSuffix(pattern, "/"))
	adapted := g.wrap(HTTPHandler(http.StripPrefix(strings.TrimSuffix(prefix, "/"), h)))
	g.mux.add(anyMethod, prefix, adapted)
	g.mux.add(anyMethod, strings.TrimSuffix(prefix, "/")+"/*", adapted)
}

// wrap applies group middleware outside route middleware.
func (g *registrar) wrap(h HandlerFunc, mw ...Middleware) HandlerFunc {
	all := make([]Middleware, 0, len(g.mw)+len(mw))
	all = append(all, g.mw...)
	all = append(all, mw...)
	return NewPipeline(all...).Then(h)
}

func (g *registrar) child(prefix string) *registrar {
	return &registrar{
		mux:    g.mux,
		prefix: g.prefix + prefix,
		mw:     append([]Middleware(nil), g.mw...),
	}
}

func (g *registrar) pattern(path string) string {
	if g.prefix != "" && (path == "" || path == "/") {
		return g.prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.prefix + path
}

// ChainMatchers tries each matcher in order and returns the first match.
// When none matches, ErrMethodNotAllowed wins over ErrRouteNotFound; any
// other error stops the search.
func ChainMatchers(matchers ...RouteMatcher) RouteMatcher {
	return RouteMatcherFunc(func(r *Request) (HandlerFunc, error) {
		notFound := ErrRouteNotFound
		for _, m := range matchers {
			if m == nil {
				continue
			}
			h, err := m.Match(r)
			switch {
			case err == nil && h != nil:
				return h, nil
			case err == nil, errors.Is(err, ErrRouteNotFound):
			case errors.Is(err, ErrMethodNotAllowed):
				notFound = err
			default:
				return nil, err
			}
		}
		return nil, notFound
	})
}
