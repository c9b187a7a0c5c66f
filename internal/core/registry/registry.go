// Package registry implements the client registry (component C): a
// generational-index store of connected clients with bounded capacity,
// plus the sink-closed cleanup sweep.
//
// Go has no slotmap in the retrieved example corpus, so the generational
// index (slot + generation counter) is implemented by hand here — the
// direct analogue of slotmap::DefaultKey in the original implementation,
// guaranteeing a freed id is never confused with a later occupant of the
// same slot.
package registry

import (
	"errors"
	"sync"

	"github.com/tobogganhq/toboggan/internal/core/bus"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// ErrTooManyClients is returned by Register when the registry is at
// capacity.
var ErrTooManyClients = errors.New("registry: too many clients")

type slot struct {
	generation uint32
	occupied   bool
	info       entities.ClientInfo
	sink       *bus.Sink
}

// Registry is a generational-index client store, bounded by maxClients.
type Registry struct {
	mu         sync.RWMutex
	slots      []slot
	free       []uint32
	maxClients int
	count      int
}

// New returns an empty registry bounded by maxClients.
func New(maxClients int) *Registry {
	return &Registry{maxClients: maxClients}
}

// Register admits info, assigning it a fresh ClientID. Returns
// ErrTooManyClients if the registry is already at capacity.
func (r *Registry) Register(info entities.ClientInfo) (entities.ClientID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count >= r.maxClients {
		return entities.ClientID{}, ErrTooManyClients
	}

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[index].occupied = true
		r.slots[index].info = info
		r.slots[index].sink = nil
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot{generation: 0, occupied: true, info: info})
	}

	r.count++
	id := entities.NewClientID(index, r.slots[index].generation)
	r.slots[index].info.ID = id
	return id, nil
}

// Unregister removes id from the registry. A no-op if id is not currently
// registered.
func (r *Registry) Unregister(id entities.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, generation := id.Parts()
	if int(index) >= len(r.slots) {
		return
	}
	s := &r.slots[index]
	if !s.occupied || s.generation != generation {
		return
	}
	s.occupied = false
	s.info = entities.ClientInfo{}
	s.sink = nil
	s.generation++
	r.free = append(r.free, index)
	r.count--
}

// AttachSink records sink as the bus subscription backing id, so a later
// Sweep can tell whether that client's reader is still alive. A no-op if
// id is no longer registered (it may have unregistered concurrently).
func (r *Registry) AttachSink(id entities.ClientID, sink *bus.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, generation := id.Parts()
	if int(index) >= len(r.slots) {
		return
	}
	s := &r.slots[index]
	if !s.occupied || s.generation != generation {
		return
	}
	s.sink = sink
}

// Sweep removes every entry whose attached sink has been closed (its
// session's reader is gone) and returns the count removed. Entries with no
// attached sink yet are left alone — AttachSink races Register on a fresh
// connection, so Sweep must not evict a client before its sink exists.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for i := range r.slots {
		s := &r.slots[i]
		if !s.occupied || s.sink == nil || !s.sink.Closed() {
			continue
		}
		s.occupied = false
		s.info = entities.ClientInfo{}
		s.sink = nil
		s.generation++
		r.free = append(r.free, uint32(i))
		r.count--
		removed++
	}
	return removed
}

// Get returns the info for id and whether it is currently registered.
func (r *Registry) Get(id entities.ClientID) (entities.ClientInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, generation := id.Parts()
	if int(index) >= len(r.slots) {
		return entities.ClientInfo{}, false
	}
	s := r.slots[index]
	if !s.occupied || s.generation != generation {
		return entities.ClientInfo{}, false
	}
	return s.info, true
}

// Len returns the number of currently registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Snapshot returns the info of every currently registered client.
func (r *Registry) Snapshot() []entities.ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.ClientInfo, 0, r.count)
	for _, s := range r.slots {
		if s.occupied {
			out = append(out, s.info)
		}
	}
	return out
}
