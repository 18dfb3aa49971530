package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/forgecore/internal"
)

func newRequest(method, target string, opts ...internal.RequestOption) *internal.Request {
	return internal.NewRequest(method, target, opts...)
}

func okHandler(_ *internal.Request) (*internal.Response, error) {
	return internal.Text(http.StatusOK, "ok"), nil
}

func failWith(err error) internal.HandlerFunc {
	return func(*internal.Request) (*internal.Response, error) {
		return nil, err
	}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
