// Package events defines request and application lifecycle events and the
// publishers that carry them.
//
// The kernel publishes through the [Publisher] interface and never waits on
// delivery semantics: [Bus] queues events for in-process subscribers,
// [RedisPublisher] sends them to a Redis pub/sub channel, [Async] moves any
// publisher off the request path and [Multi] fans out to several.
//
//	bus := events.NewBus(events.WithBufferSize(4096), events.WithLogger(log))
//	bus.Subscribe(events.RequestError, func(ctx context.Context, e events.Event) error {
//	    log.WarnContext(ctx, "request failed", "category", e.Category)
//	    return nil
//	})
//
//	app := forgecore.New(forgecore.WithEventPublisher(bus))
//	app.Run(":8080", forgecore.ShutdownHook(bus.Shutdown()))
//
// Subscribers with a higher priority run first. A subscriber error or panic
// is logged and does not affect other subscribers.
package events
