package events

// Subscriber consumes events for one transport. Implementations must be
// comparable so they can be unsubscribed.
type Subscriber interface {
	// Send delivers an event. Implementations must not block.
	Send(Event) error

	// Close releases the subscriber.
	Close() error
}
