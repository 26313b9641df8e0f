// Package flow provides a minimal, concrete applayer.Flow: a per-flow
// storage-slot array identified by an opaque uuid.UUID, the same identity
// convention the teacher corpus uses for a bidirectional TCP stream
// (gnet.TCPBidiID). It owns no parsing logic; it only holds whatever the
// dispatcher chooses to store at each slot.
package flow

import (
	"sync"

	"github.com/google/uuid"
)

// ID uniquely identifies a flow, mirroring gnet.TCPBidiID's rationale:
// a UUID rather than a hash of the address/port tuple, since those may be
// reused across unrelated conversations.
type ID uuid.UUID

// NewID generates a fresh flow identifier.
func NewID() ID {
	return ID(uuid.New())
}

// Flow is a concrete applayer.Flow. Calls against a single Flow are
// expected to be serialized by the caller, per the framework's
// concurrency model; the mutex here only guards the slot slice itself
// against growth, not against concurrent parses.
type Flow struct {
	ID ID

	mu    sync.Mutex
	slots []interface{}
}

// New creates an empty Flow with the given identity.
func New(id ID) *Flow {
	return &Flow{ID: id}
}

// Load returns the value stored at slot, or nil if the slot was never
// written or is out of range.
func (f *Flow) Load(slot int) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot < 0 || slot >= len(f.slots) {
		return nil
	}
	return f.slots[slot]
}

// Store sets slot's value, growing the slot array as needed.
func (f *Flow) Store(slot int, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot >= len(f.slots) {
		grown := make([]interface{}, slot+1)
		copy(grown, f.slots)
		f.slots = grown
	}
	f.slots[slot] = value
}

// releaser is implemented by anything stored in a slot that owns
// resources needing explicit teardown (the framework's ParseStateStore).
type releaser interface {
	Release()
}

// Close runs teardown on every slot that supports it and empties the
// flow's storage. Mirrors the host lifecycle note in §5: when a flow
// ends, the host calls each registered protocol's state deallocator and
// the framework's parse-state deallocator.
func (f *Flow) Close(stateFree func(slot int, value interface{})) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for slot, v := range f.slots {
		if v == nil {
			continue
		}
		if r, ok := v.(releaser); ok {
			r.Release()
		}
		if stateFree != nil {
			stateFree(slot, v)
		}
	}
	f.slots = nil
}
