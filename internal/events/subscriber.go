package events

// Envelope is a received event: the subject it arrived on and its raw JSON
// payload.
type Envelope struct {
	Topic string
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers events on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Envelope, func(), error)
	Close() error
}
