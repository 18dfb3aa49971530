package events

import "errors"

var (
	ErrBusClosed        = errors.New("events: bus closed")
	ErrQueueFull        = errors.New("events: queue full, event dropped")
	ErrPublishFailed    = errors.New("events: publish failed")
	ErrSubscriberPanics = errors.New("events: subscriber panicked")
)
