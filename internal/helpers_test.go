package internal_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/events"
)

// recorder collects published events.
type recorder struct {
	events []events.Event
	mu     sync.Mutex
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.Event{}
	}
	return r.events[len(r.events)-1]
}

func ok(body string) internal.HandlerFunc {
	return func(*internal.Request) (*internal.Response, error) {
		return internal.Text(http.StatusOK, body), nil
	}
}

func TestParamAs(t *testing.T) {
	t.Parallel()

	r := internal.NewRequest("GET", "/").WithParams(map[string]string{
		"id":    "42",
		"big":   "9000000000",
		"price": "9.5",
		"flag":  "true",
		"name":  "alice",
		"bad":   "x",
	})

	require.Equal(t, 42, internal.ParamAs[int](r, "id"))
	require.Equal(t, int64(9000000000), internal.ParamAs[int64](r, "big"))
	require.InDelta(t, 9.5, internal.ParamAs[float64](r, "price"), 0.0001)
	require.True(t, internal.ParamAs[bool](r, "flag"))
	require.Equal(t, "alice", internal.ParamAs[string](r, "name"))
	require.Zero(t, internal.ParamAs[int](r, "bad"))
	require.Zero(t, internal.ParamAs[int](r, "missing"))
}

func TestQueryAs(t *testing.T) {
	t.Parallel()

	r := internal.NewRequest("GET", "/?page=3&limit=abc&on=1")

	require.Equal(t, 3, internal.QueryAs[int](r, "page"))
	require.Zero(t, internal.QueryAs[int](r, "limit"))
	require.True(t, internal.QueryAs[bool](r, "on"))

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, 3, internal.QueryDefault(r, "page", 1))
		require.Equal(t, 20, internal.QueryDefault(r, "limit", 20))
		require.Equal(t, "asc", internal.QueryDefault(r, "order", "asc"))
	})
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
