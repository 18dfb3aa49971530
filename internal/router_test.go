package internal_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
)

func match(t *testing.T, m internal.RouteMatcher, method, target string) (*internal.Response, error) {
	t.Helper()
	r := internal.NewRequest(method, target)
	h, err := m.Match(r)
	if err != nil {
		return nil, err
	}
	return h(r)
}

func tag(name string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			resp, err := next(r)
			if err != nil {
				return nil, err
			}
			return resp.AddHeader("X-Tag", name), nil
		}
	}
}

func TestMux(t *testing.T) {
	t.Parallel()

	mux := newMux(func(r internal.Router) {
		r.GET("/", ok("root"))
		r.GET("/users/{id}", func(r *internal.Request) (*internal.Response, error) {
			return internal.Text(200, "user "+r.Param("id")), nil
		})
		r.POST("/users", ok("created"))
		r.PUT("/users/{id}", ok("put"))
		r.PATCH("/users/{id}", ok("patch"))
		r.DELETE("/users/{id}", ok("delete"))
		r.HEAD("/head", ok("head"))
		r.OPTIONS("/opts", ok("opts"))
		r.Handle("purge", "/cache", ok("purged"))

		r.Route("/api", func(r internal.Router) {
			r.Use(tag("api"))
			r.GET("/", ok("api root"))
			r.GET("/items", ok("items"), tag("route"))
		})
		r.Group(func(r internal.Router) {
			r.Use(tag("group"))
			r.GET("/grouped", ok("grouped"))
		})
		r.GET("/plain", ok("plain"))

		r.Mount("/legacy", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Legacy-Path", r.URL.Path)
			_, _ = io.WriteString(w, "legacy")
		}))
	})

	t.Run("static and param routes", func(t *testing.T) {
		t.Parallel()

		resp, err := match(t, mux, "GET", "/")
		require.NoError(t, err)
		require.Equal(t, "root", string(resp.Body()))

		resp, err = match(t, mux, "GET", "/users/42")
		require.NoError(t, err)
		require.Equal(t, "user 42", string(resp.Body()))
	})

	t.Run("all verbs", func(t *testing.T) {
		t.Parallel()

		for route, want := range map[string]string{
			"POST /users":     "created",
			"PUT /users/1":    "put",
			"PATCH /users/1":  "patch",
			"DELETE /users/1": "delete",
			"HEAD /head":      "head",
			"OPTIONS /opts":   "opts",
			"PURGE /cache":    "purged",
		} {
			method, path, _ := strings.Cut(route, " ")
			resp, err := match(t, mux, method, path)
			require.NoError(t, err, route)
			require.Equal(t, want, string(resp.Body()), route)
		}
	})

	t.Run("not found and method not allowed", func(t *testing.T) {
		t.Parallel()

		_, err := match(t, mux, "GET", "/nope")
		require.ErrorIs(t, err, internal.ErrRouteNotFound)

		_, err = match(t, mux, "DELETE", "/")
		require.ErrorIs(t, err, internal.ErrMethodNotAllowed)
	})

	t.Run("custom method path rejects other methods", func(t *testing.T) {
		t.Parallel()

		_, err := match(t, mux, "GET", "/cache")
		require.ErrorIs(t, err, internal.ErrMethodNotAllowed)
	})

	t.Run("group middleware is scoped", func(t *testing.T) {
		t.Parallel()

		resp, err := match(t, mux, "GET", "/api/items")
		require.NoError(t, err)
		require.Equal(t, []string{"route", "api"}, resp.Headers().Values("X-Tag"))

		resp, err = match(t, mux, "GET", "/api")
		require.NoError(t, err)
		require.Equal(t, "api root", string(resp.Body()))

		resp, err = match(t, mux, "GET", "/grouped")
		require.NoError(t, err)
		require.Equal(t, []string{"group"}, resp.Headers().Values("X-Tag"))

		resp, err = match(t, mux, "GET", "/plain")
		require.NoError(t, err)
		require.Empty(t, resp.Headers().Values("X-Tag"))
	})

	t.Run("mount strips prefix", func(t *testing.T) {
		t.Parallel()

		resp, err := match(t, mux, "POST", "/legacy/a/b")
		require.NoError(t, err)
		require.Equal(t, "legacy", string(resp.Body()))
		require.Equal(t, "/a/b", resp.Header("X-Legacy-Path"))
	})
}

func TestMuxCustomMethods(t *testing.T) {
	t.Parallel()

	mux := newMux(func(r internal.Router) {
		r.Handle("REPORT", "/reports/{id}", func(r *internal.Request) (*internal.Response, error) {
			return internal.Text(200, "report "+r.Param("id")), nil
		})
		r.Handle("report", "/reports", ok("all reports"))
	})

	resp, err := match(t, mux, "REPORT", "/reports/7")
	require.NoError(t, err)
	require.Equal(t, "report 7", string(resp.Body()))

	resp, err = match(t, mux, "REPORT", "/reports")
	require.NoError(t, err)
	require.Equal(t, "all reports", string(resp.Body()))

	for _, method := range []string{"GET", "POST", "DELETE", "UNKNOWN"} {
		_, err = match(t, mux, method, "/reports/7")
		require.ErrorIs(t, err, internal.ErrMethodNotAllowed, method)
	}

	_, err = match(t, mux, "REPORT", "/missing")
	require.ErrorIs(t, err, internal.ErrRouteNotFound)

	k := internal.NewKernel(mux)
	require.Equal(t, http.StatusMethodNotAllowed, k.Handle(internal.NewRequest("GET", "/reports")).Status())
}

func TestChainMatchers(t *testing.T) {
	t.Parallel()

	first := newMux(func(r internal.Router) { r.GET("/a", ok("first")) })
	second := newMux(func(r internal.Router) {
		r.GET("/a", ok("shadowed"))
		r.GET("/b", ok("second"))
		r.POST("/c", ok("c"))
	})
	broken := internal.RouteMatcherFunc(func(*internal.Request) (internal.HandlerFunc, error) {
		return nil, errors.New("router exploded")
	})

	chain := internal.ChainMatchers(first, nil, second)

	resp, err := match(t, chain, "GET", "/a")
	require.NoError(t, err)
	require.Equal(t, "first", string(resp.Body()))

	resp, err = match(t, chain, "GET", "/b")
	require.NoError(t, err)
	require.Equal(t, "second", string(resp.Body()))

	_, err = match(t, chain, "GET", "/c")
	require.ErrorIs(t, err, internal.ErrMethodNotAllowed)

	_, err = match(t, chain, "GET", "/z")
	require.ErrorIs(t, err, internal.ErrRouteNotFound)

	_, err = match(t, internal.ChainMatchers(broken, second), "GET", "/b")
	require.EqualError(t, err, "router exploded")
}
