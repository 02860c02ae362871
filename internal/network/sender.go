package network

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/internal/network/packets"
)

// DefaultQueueSize is the outbound queue capacity used when none is
// configured.
const DefaultQueueSize = 256

// ErrSenderClosed is returned by Enqueue after Close.
var ErrSenderClosed = errors.New("sender closed")

// SenderStats counts what happened to enqueued messages.
type SenderStats struct {
	Sent      uint64 // accepted by the transport
	Dropped   uint64 // rejected by the transport
	Discarded uint64 // still queued when the sender closed
}

// Sender delivers messages to one topic in FIFO order from a single loop
// goroutine. Enqueue is safe to call from any goroutine.
type Sender struct {
	transport Transport
	topic     string
	log       *zap.Logger

	queue  chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// mu is held for reading by Enqueue and for writing while Close marks
	// the sender closed, so nothing reaches the queue after the final drain.
	mu     sync.RWMutex
	closed bool

	sent      atomic.Uint64
	dropped   atomic.Uint64
	discarded atomic.Uint64
}

// NewSender starts a sender for topic. A non-positive queueSize selects
// DefaultQueueSize.
func NewSender(t Transport, topic string, queueSize int, log *zap.Logger) *Sender {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sender{
		transport: t,
		topic:     topic,
		log:       log,
		queue:     make(chan []byte, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go s.loop()
	return s
}

// Enqueue queues an encoded message. It blocks while the queue is full.
func (s *Sender) Enqueue(data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSenderClosed
	}
	select {
	case s.queue <- data:
		return nil
	case <-s.ctx.Done():
		return ErrSenderClosed
	}
}

// Send encodes and queues m.
func (s *Sender) Send(m *packets.Message) error {
	return s.Enqueue(m.Encode())
}

// loop drains the queue in order. A message the transport rejects is
// dropped.
func (s *Sender) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.queue:
			if s.ctx.Err() != nil {
				s.discarded.Add(1)
				return
			}
			if err := s.transport.Publish(s.ctx, s.topic, data); err != nil {
				s.dropped.Add(1)
				s.log.Warn("message dropped",
					zap.String("topic", s.topic),
					zap.Int("bytes", len(data)),
					zap.Error(err))
				continue
			}
			s.sent.Add(1)
		}
	}
}

// Close stops the loop and discards every message still queued. It does not
// wait for pending messages to be delivered, only for an in-flight Publish
// to return.
func (s *Sender) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		<-s.done

		n := 0
		for {
			select {
			case <-s.queue:
				n++
				continue
			default:
			}
			break
		}
		s.discarded.Add(uint64(n))
		if total := s.discarded.Load(); total > 0 {
			s.log.Info("sender closed with pending messages",
				zap.String("topic", s.topic),
				zap.Uint64("discarded", total))
		}
	})
	return nil
}

// Stats returns the current counters.
func (s *Sender) Stats() SenderStats {
	return SenderStats{
		Sent:      s.sent.Load(),
		Dropped:   s.dropped.Load(),
		Discarded: s.discarded.Load(),
	}
}

// Topic returns the topic the sender publishes on.
func (s *Sender) Topic() string {
	return s.topic
}
