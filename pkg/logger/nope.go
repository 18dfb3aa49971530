package logger

import (
	"io"
	"log/slog"
)

// NewNope returns a logger that discards everything.
// Components default to it until a real logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
