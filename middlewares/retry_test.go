package middlewares_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/middlewares"
)

func flaky(failures int32, err error) (internal.HandlerFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(r *internal.Request) (*internal.Response, error) {
		if calls.Add(1) <= failures {
			return nil, err
		}
		return okHandler(r)
	}, &calls
}

func TestRetry(t *testing.T) {
	t.Parallel()

	upstream := internal.ErrUpstream(errors.New("connection reset"))
	fast := middlewares.WithRetryInterval(time.Millisecond)

	t.Run("retries upstream failures", func(t *testing.T) {
		t.Parallel()

		h, calls := flaky(2, upstream)
		resp, err := middlewares.Retry(fast)(h)(newRequest("GET", "/"))
		require.NoError(t, err)
		require.Equal(t, 200, resp.Status())
		require.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		t.Parallel()

		h, calls := flaky(10, upstream)
		_, err := middlewares.Retry(fast, middlewares.WithRetryAttempts(2))(h)(newRequest("GET", "/"))
		require.ErrorIs(t, err, upstream)
		require.EqualValues(t, 2, calls.Load())
	})

	t.Run("does not retry other categories", func(t *testing.T) {
		t.Parallel()

		h, calls := flaky(10, internal.ErrBadRequest("bad"))
		_, err := middlewares.Retry(fast)(h)(newRequest("GET", "/"))
		require.Error(t, err)
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("does not retry non-idempotent methods", func(t *testing.T) {
		t.Parallel()

		h, calls := flaky(10, upstream)
		_, err := middlewares.Retry(fast)(h)(newRequest("POST", "/"))
		require.Error(t, err)
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("custom methods and predicate", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("try again")
		h, calls := flaky(1, sentinel)
		mw := middlewares.Retry(fast,
			middlewares.WithRetryMethods("POST"),
			middlewares.WithRetryIf(func(err error) bool { return errors.Is(err, sentinel) }),
		)
		_, err := mw(h)(newRequest("POST", "/"))
		require.NoError(t, err)
		require.EqualValues(t, 2, calls.Load())
	})

	t.Run("stops when context is done", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h, calls := flaky(10, upstream)
		_, err := middlewares.Retry(middlewares.WithRetryInterval(time.Hour))(h)(
			newRequest("GET", "/", internal.WithRequestContext(ctx)),
		)
		require.ErrorIs(t, err, upstream)
		require.EqualValues(t, 1, calls.Load())
	})
}
