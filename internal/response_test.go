package internal_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/forgecore/internal"
)

func TestNewResponse(t *testing.T) {
	t.Parallel()

	t.Run("validates status", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{0, 99, 600} {
			_, err := internal.NewResponse(status, nil, nil)
			require.ErrorIs(t, err, internal.ErrInvalidStatus)
		}

		r, err := internal.NewResponse(201, http.Header{"X-A": {"1"}}, []byte("x"))
		require.NoError(t, err)
		require.Equal(t, 201, r.Status())
		require.Equal(t, "1", r.Header("X-A"))
		require.Equal(t, "x", string(r.Body()))
	})

	t.Run("copies inputs", func(t *testing.T) {
		t.Parallel()

		h := http.Header{"X-A": {"1"}}
		body := []byte("abc")
		r, err := internal.NewResponse(200, h, body)
		require.NoError(t, err)

		h.Set("X-A", "2")
		body[0] = 'z'
		require.Equal(t, "1", r.Header("X-A"))
		require.Equal(t, "abc", string(r.Body()))
	})
}

func TestResponseConstructors(t *testing.T) {
	t.Parallel()

	require.Equal(t, "text/plain; charset=utf-8", internal.Text(200, "hi").Header("Content-Type"))
	require.Equal(t, "text/html; charset=utf-8", internal.HTML(200, "<p>").Header("Content-Type"))
	require.Equal(t, "image/png", internal.Blob(200, "image/png", nil).Header("Content-Type"))
	require.Equal(t, 204, internal.NoContent(204).Status())

	red := internal.Redirect(200, "/login")
	require.Equal(t, http.StatusFound, red.Status())
	require.Equal(t, "/login", red.Header("Location"))

	j, err := internal.JSON(200, map[string]int{"n": 1})
	require.NoError(t, err)
	require.Equal(t, "application/json", j.Header("Content-Type"))
	require.JSONEq(t, `{"n":1}`, string(j.Body()))

	_, err = internal.JSON(200, make(chan int))
	require.Error(t, err)

	require.Panics(t, func() { internal.Text(42, "bad") })
}

func TestResponseImmutability(t *testing.T) {
	t.Parallel()

	orig := internal.Text(200, "ok")
	withHeader := orig.WithHeader("X-A", "1").AddHeader("Vary", "Origin").AddHeader("Vary", "Accept")
	require.Empty(t, orig.Header("X-A"))
	require.Equal(t, []string{"Origin", "Accept"}, withHeader.Headers().Values("Vary"))

	withStatus, err := orig.WithStatus(202)
	require.NoError(t, err)
	require.Equal(t, 200, orig.Status())
	require.Equal(t, 202, withStatus.Status())

	_, err = orig.WithStatus(1000)
	require.ErrorIs(t, err, internal.ErrInvalidStatus)
}

type closingReader struct {
	io.Reader
	closed bool
}

func (c *closingReader) Close() error {
	c.closed = true
	return nil
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestResponseWrite(t *testing.T) {
	t.Parallel()

	t.Run("buffered", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, internal.Text(201, "hello").WithHeader("X-A", "1").Write(w))
		require.Equal(t, 201, w.Code)
		require.Equal(t, "hello", w.Body.String())
		require.Equal(t, "1", w.Header().Get("X-A"))
	})

	t.Run("stream is copied and closed", func(t *testing.T) {
		t.Parallel()

		rd := &closingReader{Reader: strings.NewReader("streamed")}
		resp := internal.Stream(200, "text/plain", rd)
		require.True(t, resp.IsStream())
		require.Nil(t, resp.Body())

		w := httptest.NewRecorder()
		require.NoError(t, resp.Write(w))
		require.Equal(t, "streamed", w.Body.String())
		require.True(t, rd.closed)
	})

	t.Run("write error surfaces", func(t *testing.T) {
		t.Parallel()

		err := internal.Text(200, "x").Write(failingWriter{httptest.NewRecorder()})
		require.Error(t, err)
	})
}
