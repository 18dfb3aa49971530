package events

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Default bus settings.
const (
	DefaultBufferSize = 1024
	DefaultWorkers    = 1
)

// All subscribes to every event kind.
const All Kind = "*"

// Subscriber handles a delivered event.
type Subscriber func(ctx context.Context, e Event) error

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBufferSize sets the queue capacity. Publish drops events once it is full.
func WithBufferSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithWorkers sets the number of dispatch goroutines.
// With more than one worker, delivery order across events is not preserved.
func WithWorkers(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger used for subscriber failures.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

type subscription struct {
	fn       Subscriber
	kind     Kind
	id       uint64
	priority int
}

// Bus is an in-process, asynchronous Publisher.
// Publish never blocks: events are queued and delivered by background
// workers to subscribers in priority order (higher first, then
// subscription order).
type Bus struct {
	logger     *slog.Logger
	queue      chan Event
	group      *errgroup.Group
	subs       map[Kind][]subscription
	bufferSize int
	workers    int
	nextID     uint64
	dropped    atomic.Uint64
	mu         sync.RWMutex
	closed     bool
}

// NewBus creates a bus and starts its workers.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		logger:     logger.NewNope(),
		subs:       make(map[Kind][]subscription),
		bufferSize: DefaultBufferSize,
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.queue = make(chan Event, b.bufferSize)
	b.group = new(errgroup.Group)
	for range b.workers {
		b.group.Go(func() error {
			for e := range b.queue {
				b.dispatch(e)
			}
			return nil
		})
	}
	return b
}

// Subscribe registers fn for kind (or All). It returns a function that
// removes the subscription.
func (b *Bus) Subscribe(kind Kind, fn Subscriber, priority ...int) (unsubscribe func()) {
	p := 0
	if len(priority) > 0 {
		p = priority[0]
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	list := append(b.subs[kind], subscription{fn: fn, kind: kind, id: id, priority: p})
	slices.SortStableFunc(list, func(a, c subscription) int {
		return cmp.Compare(c.priority, a.priority)
	})
	b.subs[kind] = list
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[kind] = slices.DeleteFunc(b.subs[kind], func(s subscription) bool {
			return s.id == id
		})
	}
}

// Publish queues e for delivery. It returns ErrQueueFull when the queue is
// saturated and ErrBusClosed after Close.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- e:
		return nil
	default:
		b.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped returns how many events were dropped because the queue was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops accepting events and waits until queued events are delivered
// or ctx is done.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.group.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown returns a hook that closes the bus, suitable for ShutdownHook.
func (b *Bus) Shutdown() func(context.Context) error {
	return b.Close
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	targets := make([]subscription, 0, len(b.subs[e.Kind])+len(b.subs[All]))
	targets = append(targets, b.subs[e.Kind]...)
	targets = append(targets, b.subs[All]...)
	b.mu.RUnlock()

	slices.SortFunc(targets, func(a, c subscription) int {
		return cmp.Or(
			cmp.Compare(c.priority, a.priority),
			cmp.Compare(a.id, c.id),
		)
	})

	ctx := context.Background()
	for _, s := range targets {
		if err := b.deliver(ctx, s, e); err != nil {
			b.logger.WarnContext(ctx, "event subscriber failed",
				slog.String("kind", string(e.Kind)),
				slog.String("request_id", e.RequestID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanics, r)
		}
	}()
	return s.fn(ctx, e)
}
