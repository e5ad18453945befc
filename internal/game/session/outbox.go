// Package session provides connected-client session state, the per-session
// outbound message buffer, and the shared session registry.
package session

import (
	"fmt"
	"sync"
)

// Outbox buffers outbound text for one session, bridging the game engine to
// the connection's writer goroutine. Delivery to a full or closed Outbox
// fails with an error; callers decide whether that is worth logging.
type Outbox struct {
	id       uint64
	messages chan string
	mu       sync.Mutex
	closed   bool
}

// NewOutbox creates an Outbox for the given session ID.
//
// Precondition: id must be non-zero.
// Postcondition: Returns an Outbox with an open message channel.
func NewOutbox(id uint64, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:       id,
		messages: make(chan string, bufferSize),
	}
}

// Push enqueues text for delivery to the client.
//
// Postcondition: Text is enqueued, or an error if the outbox is closed or full.
func (o *Outbox) Push(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %d is closed", o.id)
	}
	select {
	case o.messages <- text:
		return nil
	default:
		return fmt.Errorf("outbox %d buffer full", o.id)
	}
}

// Messages returns the read-only message channel. The connection's writer
// goroutine drains it; the channel closes when the session is removed.
func (o *Outbox) Messages() <-chan string {
	return o.messages
}

// Close marks the outbox as closed and closes the message channel.
//
// Postcondition: The message channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.messages)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
