package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/internal/entity"
	"github.com/Faultbox/vpet-sync/internal/network/packets"
	"github.com/Faultbox/vpet-sync/internal/param"
)

// DefaultInboxSize is the inbound queue capacity used when none is
// configured.
const DefaultInboxSize = 1024

// ErrUnknownTarget is returned when a message addresses an object or
// parameter that does not exist locally.
var ErrUnknownTarget = errors.New("unknown message target")

// ErrReceiverClosed is reported for deliveries dropped after Close.
var ErrReceiverClosed = errors.New("receiver closed")

// Objects resolves the live objects messages address.
type Objects interface {
	Get(id int32) *entity.Object
	Parameter(parentID, paramID int32) param.Parameter
}

// Recorder receives applied remote changes. It is satisfied by
// *history.Engine.
type Recorder interface {
	Record(p param.Parameter)
	Vanish(entityID int32) int
}

// Receiver decodes messages on the transport's goroutine and applies them on
// the goroutine that calls Dispatch or Run.
type Receiver struct {
	id      uuid.UUID
	objects Objects
	history Recorder
	log     *zap.Logger

	inbox chan *packets.Message
	done  chan struct{}
	once  sync.Once
}

// NewReceiver creates a receiver that ignores messages sent by id. history
// may be nil. A non-positive inboxSize selects DefaultInboxSize.
func NewReceiver(id uuid.UUID, objects Objects, history Recorder, inboxSize int, log *zap.Logger) *Receiver {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Receiver{
		id:      id,
		objects: objects,
		history: history,
		log:     log,
		inbox:   make(chan *packets.Message, inboxSize),
		done:    make(chan struct{}),
	}
}

// HandleMessage is the transport callback. It decodes data and queues the
// message for application. It blocks while the inbox is full, until the
// receiver is closed.
func (r *Receiver) HandleMessage(data []byte) {
	r.handle(context.Background(), data)
}

func (r *Receiver) handle(ctx context.Context, data []byte) {
	m, err := packets.Decode(data)
	if err != nil {
		r.log.Warn("ignoring malformed message", zap.Int("bytes", len(data)), zap.Error(err))
		return
	}
	if m.Sender == r.id {
		return
	}
	select {
	case r.inbox <- m:
	case <-ctx.Done():
		r.dropped(m, ctx.Err())
	case <-r.done:
		r.dropped(m, ErrReceiverClosed)
	}
}

func (r *Receiver) dropped(m *packets.Message, err error) {
	r.log.Warn("inbound message dropped",
		zap.Stringer("type", m.Type),
		zap.Int32("parent", m.ParentID),
		zap.Stringer("sender", m.Sender),
		zap.Error(err))
}

// Listen subscribes the receiver to topic on t. It blocks until ctx is done.
// A delivery waiting for inbox space is abandoned when ctx is done.
func (r *Receiver) Listen(ctx context.Context, t Transport, topic string) error {
	return t.Subscribe(ctx, topic, func(data []byte) {
		r.handle(ctx, data)
	})
}

// Close releases every delivery blocked on a full inbox and makes later
// deliveries that find the inbox full return at once. Queued messages can
// still be dispatched.
func (r *Receiver) Close() {
	r.once.Do(func() { close(r.done) })
}

// Pending returns the number of queued messages.
func (r *Receiver) Pending() int {
	return len(r.inbox)
}

// Dispatch applies every queued message and returns how many it applied.
// Messages that cannot be applied are logged and skipped.
func (r *Receiver) Dispatch() int {
	n := 0
	for {
		select {
		case m := <-r.inbox:
			r.apply(m)
			n++
		default:
			return n
		}
	}
}

// Run applies messages as they arrive until ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-r.inbox:
			r.apply(m)
		}
	}
}

func (r *Receiver) apply(m *packets.Message) {
	if err := r.Apply(m); err != nil {
		r.log.Warn("ignoring message",
			zap.Stringer("type", m.Type),
			zap.Int32("parent", m.ParentID),
			zap.Int32("param", m.ParamID),
			zap.Stringer("sender", m.Sender),
			zap.Error(err))
	}
}

// Apply applies one message to the local objects. An applied parameter
// update is recorded in history; a reset drops the object's history.
func (r *Receiver) Apply(m *packets.Message) error {
	switch m.Type {
	case packets.TypeParameterUpdate:
		p := r.objects.Parameter(m.ParentID, m.ParamID)
		if p == nil {
			return fmt.Errorf("%w: parameter %d/%d", ErrUnknownTarget, m.ParentID, m.ParamID)
		}
		if err := m.ApplyTo(p, param.OriginRemote); err != nil {
			return err
		}
		if r.history != nil {
			r.history.Record(p)
		}

	case packets.TypeLock:
		o := r.objects.Get(m.ParentID)
		if o == nil {
			return fmt.Errorf("%w: object %d", ErrUnknownTarget, m.ParentID)
		}
		o.SetLocked(m.Locked())

	case packets.TypeResetObject:
		o := r.objects.Get(m.ParentID)
		if o == nil {
			return fmt.Errorf("%w: object %d", ErrUnknownTarget, m.ParentID)
		}
		o.ResetAll(param.OriginRemote)
		if r.history != nil {
			r.history.Vanish(o.ID)
		}

	default:
		return fmt.Errorf("%w: %d", packets.ErrUnknownType, int32(m.Type))
	}
	return nil
}
