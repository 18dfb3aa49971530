package events

// Async decorates p so that Publish enqueues and returns immediately.
// Delivery happens on the returned bus's workers; close the bus on shutdown.
//
// Example:
//
//	pub := events.Async(events.NewRedisPublisher(client, ""), events.WithBufferSize(4096))
//	app := forgecore.New(forgecore.WithEventPublisher(pub))
//	// ...
//	forgecore.ShutdownHook(pub.Shutdown())
func Async(p Publisher, opts ...BusOption) *Bus {
	b := NewBus(opts...)
	b.Subscribe(All, p.Publish)
	return b
}
