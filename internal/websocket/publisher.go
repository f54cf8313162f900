package websocket

// EventPublisher defines the interface for publishing ledger events to
// connected sessions
type EventPublisher interface {
	Publish(event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event
func (h *Hub) Publish(event Event) {
	h.Broadcast(event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when
// WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(event Event) {}
