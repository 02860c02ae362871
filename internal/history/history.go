// Package history implements the undo/redo log of parameter edits.
package history

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/internal/entity"
	"github.com/Faultbox/vpet-sync/internal/param"
)

// DefaultMaxEntries is the log bound used when none is configured.
const DefaultMaxEntries = 100

// ErrTargetMissing is returned by Undo and Redo when the parameter addressed
// by the entry no longer exists. The cursor still moves past the entry.
var ErrTargetMissing = errors.New("history target missing")

// Objects resolves the live objects whose parameters the log addresses.
type Objects interface {
	Parameter(parentID, paramID int32) param.Parameter
	All() []*entity.Object
}

// Engine is an append-only log of parameter values with a cursor at the most
// recently applied entry. It is safe for concurrent use; all mutations are
// serialized.
type Engine struct {
	mu      sync.Mutex
	objects Objects
	max     int
	log     *zap.Logger

	entries []param.Parameter
	pos     int

	resetListeners []func(entityID int32)
}

// New creates an engine over objects keeping at most maxEntries entries.
// A non-positive maxEntries selects DefaultMaxEntries.
func New(objects Objects, maxEntries int, log *zap.Logger) *Engine {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		objects: objects,
		max:     maxEntries,
		log:     log,
		pos:     -1,
	}
}

// OnReset registers fn to be called once per object reset by ResetAll.
func (e *Engine) OnReset(fn func(entityID int32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetListeners = append(e.resetListeners, fn)
}

// Record appends the current value of p. Entries after the cursor are
// discarded first. When the log is full the oldest entry is evicted.
func (e *Engine) Record(p param.Parameter) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = e.entries[:e.pos+1]
	e.entries = append(e.entries, p.Snapshot())
	if len(e.entries) <= e.max {
		e.pos++
		return
	}
	e.entries[0] = nil
	e.entries = e.entries[1:]
}

// Undo reverts the entry at the cursor and moves the cursor back. The target
// receives the most recent earlier value recorded for it, or its creation
// value if there is none. Listeners run after the engine is unlocked, so they
// may query or record into it.
func (e *Engine) Undo() error {
	target, prev, err := e.stepBack()
	if target == nil {
		return err
	}
	if prev == nil {
		target.Reset(param.OriginHistory)
		return nil
	}
	return target.CopyValue(prev, param.OriginHistory)
}

// stepBack moves the cursor back and resolves the live target of the entry
// it left and the earlier value to restore. prev is nil when the target goes
// back to its creation value.
func (e *Engine) stepBack() (target, prev param.Parameter, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pos < 0 {
		return nil, nil, nil
	}
	at := e.pos
	entry := e.entries[at]
	e.pos--

	target = e.objects.Parameter(entry.ParentID(), entry.ID())
	if target == nil {
		e.log.Warn("undo target missing",
			zap.Int32("parent", entry.ParentID()),
			zap.Int32("param", entry.ID()),
			zap.Int("pos", at))
		return nil, nil, fmt.Errorf("%w: undo of %d/%d", ErrTargetMissing, entry.ParentID(), entry.ID())
	}

	for i := at - 1; i >= 0; i-- {
		p := e.entries[i]
		if p.ParentID() == entry.ParentID() && p.ID() == entry.ID() {
			return target, p, nil
		}
	}
	return target, nil, nil
}

// Redo reapplies the entry after the cursor and advances the cursor.
func (e *Engine) Redo() error {
	target, entry, err := e.stepForward()
	if target == nil {
		return err
	}
	return target.CopyValue(entry, param.OriginHistory)
}

func (e *Engine) stepForward() (target, entry param.Parameter, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pos >= len(e.entries)-1 {
		return nil, nil, nil
	}
	e.pos++
	entry = e.entries[e.pos]

	target = e.objects.Parameter(entry.ParentID(), entry.ID())
	if target == nil {
		e.log.Warn("redo target missing",
			zap.Int32("parent", entry.ParentID()),
			zap.Int32("param", entry.ID()),
			zap.Int("pos", e.pos))
		return nil, nil, fmt.Errorf("%w: redo of %d/%d", ErrTargetMissing, entry.ParentID(), entry.ID())
	}
	return target, entry, nil
}

// Vanish removes every entry of the given object and returns how many were
// removed. The cursor moves to the new index of the entry it pointed at, or
// of the nearest earlier entry that survived.
func (e *Engine) Vanish(entityID int32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vanish(entityID)
}

func (e *Engine) vanish(entityID int32) int {
	kept := make([]param.Parameter, 0, len(e.entries))
	pos := -1
	for i, entry := range e.entries {
		if entry.ParentID() == entityID {
			continue
		}
		kept = append(kept, entry)
		if i <= e.pos {
			pos++
		}
	}
	removed := len(e.entries) - len(kept)
	e.entries = kept
	e.pos = pos
	return removed
}

// ResetAll restores every parameter of every live object to its creation
// value, drops each object's history and notifies the reset listeners. The
// log is emptied before any parameter listener runs.
func (e *Engine) ResetAll() {
	objects := e.objects.All()

	e.mu.Lock()
	for _, o := range objects {
		if n := e.vanish(o.ID); n > 0 {
			e.log.Debug("history vanished", zap.Int32("object", o.ID), zap.Int("entries", n))
		}
	}
	listeners := append([]func(int32){}, e.resetListeners...)
	e.mu.Unlock()

	for _, o := range objects {
		o.ResetAll(param.OriginReset)
		for _, fn := range listeners {
			fn(o.ID)
		}
	}
}

// Clear drops the whole log.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
	e.pos = -1
}

// Pos returns the cursor; -1 means nothing is applied.
func (e *Engine) Pos() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

// Len returns the number of entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Max returns the configured bound.
func (e *Engine) Max() int {
	return e.max
}

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool {
	return e.Pos() >= 0
}

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos < len(e.entries)-1
}

// Entries returns a copy of the log.
func (e *Engine) Entries() []param.Parameter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]param.Parameter(nil), e.entries...)
}
