package events

import (
	"context"
	"errors"
	"time"
)

// Kind identifies a lifecycle event.
type Kind string

// Lifecycle event kinds.
const (
	RequestReceived  Kind = "request.received"
	RequestCompleted Kind = "request.completed"
	RequestError     Kind = "request.error"
	RequestCancelled Kind = "request.cancelled"
	AppStarting      Kind = "app.starting"
	AppStarted       Kind = "app.started"
	AppStopping      Kind = "app.stopping"
	AppStopped       Kind = "app.stopped"
)

// Event is a lifecycle notification.
// Request events carry the request fields; application events only carry
// Kind, Timestamp and optional Attrs.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Err       error             `json:"-"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Kind      Kind              `json:"kind"`
	RequestID string            `json:"request_id,omitempty"`
	Method    string            `json:"method,omitempty"`
	Path      string            `json:"path,omitempty"`
	Category  string            `json:"category,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration_ns,omitempty"`
	Status    int               `json:"status,omitempty"`
}

// IsRequest reports whether the event belongs to a request.
func (e Event) IsRequest() bool {
	switch e.Kind {
	case RequestReceived, RequestCompleted, RequestError, RequestCancelled:
		return true
	}
	return false
}

// Publisher delivers lifecycle events.
// Implementations must not block the caller for long; the kernel treats
// delivery as best-effort and only logs a returned error.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

// Publish calls f(ctx, e).
func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Nop returns a publisher that drops every event.
func Nop() Publisher {
	return PublisherFunc(func(context.Context, Event) error { return nil })
}

// Multi fans an event out to every publisher.
// All publishers are called; their errors are joined.
func Multi(publishers ...Publisher) Publisher {
	ps := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return PublisherFunc(func(ctx context.Context, e Event) error {
		var errs []error
		for _, p := range ps {
			if err := p.Publish(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
