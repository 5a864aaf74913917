// Package transport declares the boundary between a connection and the code
// that reacts to it. It has no dependencies so the lifecycle can be built and
// tested without a network stack.
package transport

// Sender accepts outbound text payloads.
type Sender interface {
	Send(payload []byte) error
}

// Handler receives the events of one connection. Calls for a connection are
// never concurrent and arrive in transport order.
type Handler interface {
	Opened(sender Sender)
	Message(payload []byte)
	Closed()
	Error(err error)
}

// Binder hands out a fresh Handler per connection attempt. Begin starts a new
// generation; handlers bound to older generations must ignore their events.
type Binder interface {
	Begin() uint64
	Bind(generation uint64) Handler
}
