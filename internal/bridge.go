package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// LegacyRouter is the matching surface of older routers: path and method in,
// handler and path parameters out. A nil handler or any error means no match.
type LegacyRouter interface {
	Match(path, method string) (HandlerFunc, map[string]string, error)
}

// Bridge adapts a LegacyRouter to RouteMatcher.
// Select it at construction time with WithRouteMatcher.
//
// Example:
//
//	app := forgecore.New(
//	    forgecore.WithRouteMatcher(forgecore.Bridge(oldRouter)),
//	)
func Bridge(legacy LegacyRouter) RouteMatcher {
	return RouteMatcherFunc(func(r *Request) (HandlerFunc, error) {
		h, params, err := legacy.Match(r.Path(), r.Method())
		if err != nil {
			if errors.Is(err, ErrRouteNotFound) || errors.Is(err, ErrMethodNotAllowed) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrRouteNotFound, err)
		}
		if h == nil {
			return nil, ErrRouteNotFound
		}
		if len(params) == 0 {
			return h, nil
		}
		return func(req *Request) (*Response, error) {
			return h(req.WithParams(params))
		}, nil
	})
}

// HTTPHandler adapts a net/http handler into a HandlerFunc.
// The handler's output is buffered and returned as a Response.
func HTTPHandler(h http.Handler) HandlerFunc {
	return func(r *Request) (*Response, error) {
		hr, err := ToHTTPRequest(r)
		if err != nil {
			return nil, err
		}
		w := newBufferedWriter()
		h.ServeHTTP(w, hr)
		return w.Response()
	}
}

// ToHTTPRequest converts a Request into a server-side net/http request
// sharing its context, headers and body.
func ToHTTPRequest(r *Request) (*http.Request, error) {
	// Path is decoded: it must not be parsed again.
	u := &url.URL{Path: r.Path(), RawQuery: r.QueryValues().Encode()}

	hr, err := http.NewRequestWithContext(r.Context(), r.Method(), "/", r.Body())
	if err != nil {
		return nil, fmt.Errorf("forgecore: build http request: %w", err)
	}
	hr.URL = u
	hr.RequestURI = u.RequestURI()
	hr.Header = r.Headers()
	hr.RemoteAddr = r.RemoteAddr()
	if host := r.Header("Host"); host != "" {
		hr.Host = host
	}
	return hr, nil
}
