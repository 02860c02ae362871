// Package session wires scene objects, their edit history and the update
// distribution of one participant.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/vpet-sync/internal/entity"
	"github.com/Faultbox/vpet-sync/internal/history"
	"github.com/Faultbox/vpet-sync/internal/network"
	"github.com/Faultbox/vpet-sync/internal/network/packets"
	"github.com/Faultbox/vpet-sync/internal/param"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

// ErrLocked is returned when editing an object locked by another participant.
var ErrLocked = errors.New("object locked")

// Options configures a session.
type Options struct {
	Topic      string
	MaxHistory int
	QueueSize  int
	InboxSize  int
}

// Session is one participant's view of a shared scene.
type Session struct {
	ID       uuid.UUID
	Objects  *entity.Manager
	History  *history.Engine
	Sender   *network.Sender
	Receiver *network.Receiver

	transport network.Transport
	topic     string
	log       *zap.Logger
}

// New creates a session publishing on t. Objects are added with Load.
func New(t network.Transport, opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Topic == "" {
		opts.Topic = "scene"
	}

	s := &Session{
		ID:        uuid.New(),
		Objects:   entity.NewManager(),
		transport: t,
		topic:     opts.Topic,
	}
	s.log = log.With(zap.Stringer("session", s.ID))
	s.History = history.New(s.Objects, opts.MaxHistory, s.log.Named("history"))
	s.Sender = network.NewSender(t, opts.Topic, opts.QueueSize, s.log.Named("sender"))
	s.Receiver = network.NewReceiver(s.ID, s.Objects, s.History, opts.InboxSize, s.log.Named("receiver"))

	s.History.OnReset(func(id int32) {
		s.send(packets.NewResetObject(s.ID, id))
	})
	return s
}

// Load builds objects for every node of sc and starts tracking their
// changes. Ids come from a fresh allocator, so every participant loading the
// same scene assigns the same ids.
func (s *Session) Load(sc *scene.Scene) ([]*entity.Object, error) {
	objects, err := s.Objects.Build(sc, entity.NewIDAllocator())
	if err != nil {
		return nil, fmt.Errorf("building scene objects: %w", err)
	}
	for _, o := range objects {
		o.Subscribe(s.onChange)
	}
	s.log.Info("scene loaded", zap.Int("objects", len(objects)))
	return objects, nil
}

// onChange routes parameter changes by origin. Local edits are recorded and
// published; undo and redo are published only.
func (s *Session) onChange(c param.Change) {
	switch c.Origin {
	case param.OriginLocal:
		s.History.Record(c.Param)
		s.send(packets.NewParameterUpdate(s.ID, c.Param))
	case param.OriginHistory:
		s.send(packets.NewParameterUpdate(s.ID, c.Param))
	}
}

func (s *Session) send(m *packets.Message) {
	if err := s.Sender.Send(m); err != nil {
		s.log.Warn("update not sent",
			zap.Stringer("type", m.Type),
			zap.Int32("parent", m.ParentID),
			zap.Error(err))
	}
}

// Edit checks that object id is not locked by another participant.
func (s *Session) Edit(id int32) (*entity.Object, error) {
	o := s.Objects.Get(id)
	if o == nil {
		return nil, fmt.Errorf("%w: object %d", network.ErrUnknownTarget, id)
	}
	if o.Locked() {
		return nil, fmt.Errorf("%w: %q", ErrLocked, o.Name)
	}
	return o, nil
}

// Undo reverts the most recent change.
func (s *Session) Undo() error {
	return s.History.Undo()
}

// Redo reapplies the most recently undone change.
func (s *Session) Redo() error {
	return s.History.Redo()
}

// ResetAll restores every object and tells the other participants.
func (s *Session) ResetAll() {
	s.History.ResetAll()
}

// RemoveObject removes an object and its history.
func (s *Session) RemoveObject(id int32) bool {
	if !s.Objects.Remove(id) {
		return false
	}
	n := s.History.Vanish(id)
	s.log.Debug("object removed", zap.Int32("object", id), zap.Int("history", n))
	return true
}

// Lock locks or unlocks an object for the other participants.
func (s *Session) Lock(id int32, locked bool) error {
	if s.Objects.Get(id) == nil {
		return fmt.Errorf("%w: object %d", network.ErrUnknownTarget, id)
	}
	return s.Sender.Send(packets.NewLock(s.ID, id, locked))
}

// Listen queues remote updates until ctx is done or the transport closes.
// Queued updates are applied by Dispatch.
func (s *Session) Listen(ctx context.Context) error {
	err := s.Receiver.Listen(ctx, s.transport, s.topic)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Dispatch applies queued remote updates on the calling goroutine.
func (s *Session) Dispatch() int {
	return s.Receiver.Dispatch()
}

// Run receives remote updates and applies them on its own goroutine until
// ctx is done or the transport closes. Local edits must not race with it;
// use Listen and Dispatch to apply updates on the editing goroutine instead.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Receiver.Listen(ctx, s.transport, s.topic); err != nil {
			return err
		}
		return network.ErrClosed
	})
	g.Go(func() error {
		return s.Receiver.Run(ctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, network.ErrClosed) {
		return nil
	}
	return err
}

// Close releases deliveries blocked on a full inbox and stops the sender,
// discarding undelivered updates.
func (s *Session) Close() error {
	s.Receiver.Close()
	return s.Sender.Close()
}
