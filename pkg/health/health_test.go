package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/pkg/health"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()

		r := health.Run(context.Background(), nil)
		assert.True(t, r.Healthy())
		assert.NoError(t, r.Err())
	})

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		r := health.Run(context.Background(), health.Checks{"a": ok, "b": ok})
		assert.True(t, r.Healthy())
		require.Len(t, r.Checks, 2)
		assert.Equal(t, health.StatusHealthy, r.Checks["a"].Status)
	})

	t.Run("failure is reported per check", func(t *testing.T) {
		t.Parallel()

		r := health.Run(context.Background(), health.Checks{
			"db":    ok,
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		assert.False(t, r.Healthy())
		assert.Equal(t, health.StatusUnhealthy, r.Checks["redis"].Status)
		assert.Equal(t, "connection refused", r.Checks["redis"].Error)
		assert.Equal(t, health.StatusHealthy, r.Checks["db"].Status)

		err := r.Err()
		require.ErrorIs(t, err, health.ErrCheckFailed)
		assert.Contains(t, err.Error(), "redis: connection refused")
	})

	t.Run("panicking check is unhealthy", func(t *testing.T) {
		t.Parallel()

		r := health.Run(context.Background(), health.Checks{
			"boom": func(context.Context) error { panic("kaboom") },
		})
		assert.False(t, r.Healthy())
		assert.Contains(t, r.Checks["boom"].Error, "kaboom")
	})

	t.Run("slow check times out", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		t.Cleanup(func() { close(block) })

		start := time.Now()
		r := health.Run(context.Background(), health.Checks{
			"slow": func(context.Context) error { <-block; return nil },
		}, health.WithTimeout(20*time.Millisecond))

		assert.Less(t, time.Since(start), time.Second)
		assert.False(t, r.Healthy())
		assert.Equal(t, health.ErrCheckTimeout.Error(), r.Checks["slow"].Error)
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness text", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		health.LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("readiness json failure", func(t *testing.T) {
		t.Parallel()

		h := health.ReadinessHandler(health.Checks{
			"redis": func(context.Context) error { return errors.New("down") },
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?format=json", nil)
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var rep health.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
		assert.Equal(t, health.StatusUnhealthy, rep.Status)
		assert.Equal(t, "down", rep.Checks["redis"].Error)
	})

	t.Run("mux routes both probes", func(t *testing.T) {
		t.Parallel()

		mux := health.Mux("/live", "/ready", health.Checks{"a": ok})

		for _, path := range []string{"/live", "/ready"} {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
		}

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/other", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
