package internal_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/events"
)

// routes adapts a function to internal.Handler.
type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func usersHandler() internal.Handler {
	return routes(func(r internal.Router) {
		r.GET("/users/{id}", func(r *internal.Request) (*internal.Response, error) {
			if r.Param("id") == "0" {
				return nil, internal.ErrNotFound("user not found")
			}
			return internal.JSON(http.StatusOK, map[string]string{"id": r.Param("id")})
		})
	})
}

func serve(t *testing.T, h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp(t *testing.T) {
	t.Parallel()

	t.Run("routes handlers through the kernel", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		app := internal.New(
			internal.WithHandlers(usersHandler()),
			internal.WithEventPublisher(rec),
		)

		w := serve(t, app, http.MethodGet, "/users/7")
		require.Equal(t, 200, w.Code)
		require.JSONEq(t, `{"id":"7"}`, w.Body.String())

		w = serve(t, app, http.MethodGet, "/users/0")
		require.Equal(t, 404, w.Code)
		require.Equal(t, "user not found", w.Body.String())
		require.Equal(t, "not_found", rec.last().Category)
	})

	t.Run("handle without http", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithHandlers(usersHandler()))
		resp := app.Handle(internal.NewRequest("GET", "/users/3"))
		require.Equal(t, 200, resp.Status())
		require.NotNil(t, app.Kernel())
		require.NotNil(t, app.Logger())
	})

	t.Run("global middleware order", func(t *testing.T) {
		t.Parallel()

		tr := &tracer{}
		app := internal.New(
			internal.WithMiddleware(tr.stage("a")),
			internal.WithMiddleware(tr.stage("b")),
			internal.WithHandlers(usersHandler()),
		)
		app.Handle(internal.NewRequest("GET", "/users/1"))
		require.Equal(t, []string{"in:a", "in:b", "out:b", "out:a"}, tr.log)
	})

	t.Run("error matcher and strategy", func(t *testing.T) {
		t.Parallel()

		errGone := errors.New("gone")
		app := internal.New(
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/gone", func(*internal.Request) (*internal.Response, error) { return nil, errGone })
			})),
			internal.WithErrorMatcher(
				func(err error) bool { return errors.Is(err, errGone) },
				func(*internal.Request, error) (*internal.Response, error) { return internal.Text(410, "gone"), nil },
			),
			internal.WithErrorStrategy(internal.CategoryNotFound,
				func(*internal.Request, error) (*internal.Response, error) { return internal.HTML(404, "<p>404</p>"), nil },
			),
		)

		require.Equal(t, 410, serve(t, app, "GET", "/gone").Code)
		require.Equal(t, "<p>404</p>", serve(t, app, "GET", "/nope").Body.String())
	})

	t.Run("custom error service", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithErrorService(internal.ErrorServiceFunc(
			func(*internal.Request, error) (*internal.Response, error) { return internal.Text(599, "custom"), nil },
		)))
		require.Equal(t, 599, serve(t, app, "GET", "/").Code)
	})

	t.Run("several publishers", func(t *testing.T) {
		t.Parallel()

		a, b := &recorder{}, &recorder{}
		app := internal.New(internal.WithEventPublisher(a, nil, b))
		app.Handle(internal.NewRequest("GET", "/"))
		require.Equal(t, a.kinds(), b.kinds())
		require.Len(t, a.kinds(), 2)
	})

	t.Run("route matcher bridge", func(t *testing.T) {
		t.Parallel()

		legacy := legacyTable{"GET /ping": ok("pong"), "GET /users/1": ok("legacy user")}
		app := internal.New(
			internal.WithHandlers(usersHandler()),
			internal.WithRouteMatcher(internal.Bridge(legacy)),
		)

		require.Equal(t, "pong", serve(t, app, "GET", "/ping").Body.String())
		require.JSONEq(t, `{"id":"1"}`, serve(t, app, "GET", "/users/1").Body.String())
		require.Equal(t, 404, serve(t, app, "GET", "/none").Code)
	})

	t.Run("health checks", func(t *testing.T) {
		t.Parallel()

		failing := true
		var mu sync.Mutex
		app := internal.New(internal.WithHealthChecks(
			internal.WithLivenessPath("/live"),
			internal.WithReadinessPath("/ready"),
			internal.WithHealthTimeout(time.Second),
			internal.WithReadinessCheck("db", func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				if failing {
					return errors.New("down")
				}
				return nil
			}),
		))

		require.Equal(t, 200, serve(t, app, "GET", "/live").Code)
		require.Equal(t, http.StatusServiceUnavailable, serve(t, app, "GET", "/ready").Code)

		mu.Lock()
		failing = false
		mu.Unlock()
		w := serve(t, app, "GET", "/ready", "Accept", "application/json")
		require.Equal(t, 200, w.Code)
		require.Contains(t, w.Body.String(), `"status":"healthy"`)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("lifecycle and hooks", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			order []string
		)
		note := func(s string) {
			mu.Lock()
			order = append(order, s)
			mu.Unlock()
		}
		hook := func(name string) func(context.Context) error {
			return func(context.Context) error {
				note(name)
				return nil
			}
		}

		addrCh := make(chan string, 1)
		pub := events.PublisherFunc(func(_ context.Context, e events.Event) error {
			if !e.IsRequest() {
				note(string(e.Kind))
			}
			if e.Kind == events.AppStarted {
				addrCh <- e.Attrs["address"]
			}
			return nil
		})

		app := internal.New(
			internal.WithHandlers(usersHandler()),
			internal.WithEventPublisher(pub),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Run("127.0.0.1:0",
				internal.WithContext(ctx),
				internal.ShutdownTimeout(time.Second),
				internal.StartupHook(hook("start-1")),
				internal.StartupHook(hook("start-2")),
				internal.ShutdownHook(hook("stop-1")),
				internal.ShutdownHook(hook("stop-2")),
			)
		}()

		var addr string
		select {
		case addr = <-addrCh:
		case <-time.After(5 * time.Second):
			t.Fatal("server did not start")
		}

		res, err := http.Get(fmt.Sprintf("http://%s/users/5", addr))
		require.NoError(t, err)
		body, _ := io.ReadAll(res.Body)
		_ = res.Body.Close()
		require.Equal(t, 200, res.StatusCode)
		require.JSONEq(t, `{"id":"5"}`, string(body))

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{
			"app.starting", "start-1", "start-2", "app.started",
			"app.stopping", "app.stopped", "stop-2", "stop-1",
		}, order)
	})

	t.Run("startup hook failure aborts", func(t *testing.T) {
		t.Parallel()

		var stopped bool
		errBoom := errors.New("boom")
		err := internal.Run(internal.New(),
			internal.Address("127.0.0.1:0"),
			internal.StartupHook(func(context.Context) error { return errBoom }),
			internal.ShutdownHook(func(context.Context) error { stopped = true; return nil }),
		)
		require.ErrorIs(t, err, internal.ErrStartupHook)
		require.ErrorIs(t, err, errBoom)
		require.True(t, stopped)
	})

	t.Run("shutdown hook errors are joined", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		errA, errB := errors.New("a"), errors.New("b")
		err := internal.Run(internal.New(),
			internal.Address("127.0.0.1:0"),
			internal.WithContext(ctx),
			internal.StartupHook(func(context.Context) error { cancel(); return nil }),
			internal.ShutdownHook(func(context.Context) error { return errA }),
			internal.ShutdownHook(func(context.Context) error { return errB }),
		)
		require.ErrorIs(t, err, errA)
		require.ErrorIs(t, err, errB)
	})

	t.Run("nil app", func(t *testing.T) {
		t.Parallel()

		require.ErrorIs(t, internal.Run(nil), internal.ErrNilApp)
	})
}

func TestRunOptionsIgnoreZeroValues(t *testing.T) {
	t.Parallel()

	// Zero values must not override defaults; the run still binds.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := internal.Run(internal.New(),
		internal.Address("127.0.0.1:0"),
		internal.Address(""),
		internal.ShutdownTimeout(0),
		internal.Logger(nil),
		internal.StartupHook(nil),
		internal.ShutdownHook(nil),
		internal.WithContext(ctx),
	)
	require.NoError(t, err)
}
