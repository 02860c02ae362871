package network

import (
	"context"
	"errors"
	"sync"
)

// Transport errors.
var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("transport closed")
)

// Handler receives the payload of one message published on a topic.
type Handler func(data []byte)

// Transport publishes opaque messages on named topics. Implementations
// deliver messages from one publisher in publish order.
type Transport interface {
	// Publish hands data to the transport. It returns once the transport
	// accepted the message, not when peers received it.
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe calls fn for every message on topic until ctx is done or the
	// transport is closed. It blocks for the lifetime of the subscription.
	Subscribe(ctx context.Context, topic string, fn Handler) error
	Close() error
}

// MemoryBus is an in-process Transport. Publish calls every subscriber of the
// topic synchronously, so delivery order equals publish order.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	done   chan struct{}
	closed bool
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[string]map[int]Handler),
		done: make(chan struct{}),
	}
}

// Publish delivers a copy of data to every current subscriber of topic.
func (b *MemoryBus) Publish(ctx context.Context, topic string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		msg := make([]byte, len(data))
		copy(msg, data)
		fn(msg)
	}
	return nil
}

// Subscribe registers fn on topic and blocks until ctx is done or the bus is
// closed.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string, fn Handler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = fn
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs[topic], id)
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
		b.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return nil
	}
}

// Subscribers returns the number of active subscriptions on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close ends every subscription. Later calls to Publish and Subscribe fail
// with ErrClosed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}
