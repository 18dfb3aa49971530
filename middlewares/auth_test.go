package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/middlewares"
)

func TestAuth(t *testing.T) {
	t.Parallel()

	auth := middlewares.Auth(middlewares.StaticTokens("secret"))

	t.Run("missing token short-circuits", func(t *testing.T) {
		t.Parallel()

		called := false
		h := auth(func(r *internal.Request) (*internal.Response, error) {
			called = true
			return okHandler(r)
		})

		resp, err := h(newRequest("GET", "/"))
		require.Nil(t, resp)
		require.False(t, called)
		require.ErrorIs(t, err, middlewares.ErrMissingToken)
		require.Equal(t, internal.CategoryAuthorization, internal.CategoryOf(err))
		require.Equal(t, http.StatusUnauthorized, internal.AsError(err).StatusCode())
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		t.Parallel()

		req := newRequest("GET", "/", internal.WithRequestHeader("Authorization", "Bearer wrong"))
		_, err := auth(okHandler)(req)
		require.ErrorIs(t, err, middlewares.ErrInvalidToken)
		require.Equal(t, internal.CategoryAuthorization, internal.CategoryOf(err))
	})

	t.Run("valid token stores principal", func(t *testing.T) {
		t.Parallel()

		var principal string
		h := auth(func(r *internal.Request) (*internal.Response, error) {
			principal = middlewares.Principal[string](r)
			return okHandler(r)
		})

		req := newRequest("GET", "/", internal.WithRequestHeader("Authorization", "Bearer secret"))
		resp, err := h(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Status())
		require.Equal(t, "secret", principal)
	})

	t.Run("custom extractor", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Auth(
			middlewares.StaticTokens("k1"),
			middlewares.WithAuthExtractor(internal.NewExtractor(internal.FromHeader("X-API-Key"))),
		)(okHandler)

		resp, err := h(newRequest("GET", "/", internal.WithRequestHeader("X-API-Key", "k1")))
		require.NoError(t, err)
		require.Equal(t, 200, resp.Status())
	})

	t.Run("empty static tokens are ignored", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Auth(
			middlewares.StaticTokens(""),
			middlewares.WithAuthExtractor(internal.NewExtractor(internal.FromQuery("token"))),
		)(okHandler)

		_, err := h(newRequest("GET", "/?token="))
		require.ErrorIs(t, err, middlewares.ErrMissingToken)
	})
}
