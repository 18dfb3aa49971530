package internal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
)

func TestExtractor(t *testing.T) {
	t.Parallel()

	t.Run("empty sources", func(t *testing.T) {
		t.Parallel()

		v, found := internal.NewExtractor().Extract(internal.NewRequest("GET", "/"))
		require.False(t, found)
		require.Empty(t, v)
	})

	t.Run("first source wins", func(t *testing.T) {
		t.Parallel()

		ext := internal.NewExtractor(internal.FromHeader("X-First"), internal.FromHeader("X-Second"))
		req := internal.NewRequest("GET", "/",
			internal.WithRequestHeader("X-First", "one"),
			internal.WithRequestHeader("X-Second", "two"),
		)
		v, found := ext.Extract(req)
		require.True(t, found)
		require.Equal(t, "one", v)
	})

	t.Run("falls through and skips nil", func(t *testing.T) {
		t.Parallel()

		ext := internal.NewExtractor(nil, internal.FromHeader("X-Missing"), internal.FromQuery("token"))
		v, found := ext.Extract(internal.NewRequest("GET", "/?token=q"))
		require.True(t, found)
		require.Equal(t, "q", v)
	})
}

func TestExtractorSources(t *testing.T) {
	t.Parallel()

	req := internal.NewRequest("GET", "/?q=query",
		internal.WithRequestHeader("Cookie", "a=1; session=cookie-val"),
		internal.WithRequestHeader("Authorization", "bearer  tok-123 "),
	).WithParams(map[string]string{"id": "param-val"})
	req.Set("tenant", "bag-val")
	req.Set("count", 3)

	tests := []struct {
		src  internal.ExtractorSource
		name string
		want string
		ok   bool
	}{
		{name: "query", src: internal.FromQuery("q"), want: "query", ok: true},
		{name: "param", src: internal.FromParam("id"), want: "param-val", ok: true},
		{name: "cookie", src: internal.FromCookie("session"), want: "cookie-val", ok: true},
		{name: "missing cookie", src: internal.FromCookie("nope")},
		{name: "bag", src: internal.FromValue("tenant"), want: "bag-val", ok: true},
		{name: "bag non-string", src: internal.FromValue("count"), want: "3", ok: true},
		{name: "bag missing", src: internal.FromValue("nope")},
		{name: "bearer", src: internal.FromBearerToken(), want: "tok-123", ok: true},
		{name: "missing header", src: internal.FromHeader("X-None")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, found := tt.src(req)
			require.Equal(t, tt.ok, found)
			require.Equal(t, tt.want, v)
		})
	}

	t.Run("non-bearer scheme", func(t *testing.T) {
		t.Parallel()

		r := internal.NewRequest("GET", "/", internal.WithRequestHeader("Authorization", "Basic abc"))
		_, found := internal.FromBearerToken()(r)
		require.False(t, found)
	})
}
