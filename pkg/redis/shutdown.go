package redis

import (
	"context"
	"io"
)

// Shutdown returns a shutdown hook closing client.
//
// Example:
//
//	app.Run(":8080", forgecore.ShutdownHook(redis.Shutdown(client)))
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		if client == nil {
			return nil
		}
		return client.Close()
	}
}
