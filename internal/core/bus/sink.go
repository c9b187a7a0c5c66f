// Package bus implements the notification bus (component D): a
// latest-value, single-slot, lossy-for-slow-readers fan-out used to deliver
// notifications to every connected client session.
package bus

import (
	"sync"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Sink is one subscriber's mailbox: a mutex-protected last-notification
// slot plus a capacity-1 channel used purely as a wakeup signal. A reader
// drains the slot via Latest after waking; a writer that arrives while a
// value is already pending either coalesces (Pong/Blink with a pending
// value of the same kind) or replaces it outright, counting the drop.
type Sink struct {
	mu      sync.Mutex
	pending *entities.Notification
	dropped int
	wake    chan struct{}
	closed  bool
}

func newSink() *Sink {
	return &Sink{wake: make(chan struct{}, 1)}
}

// Wake returns the channel that receives a value every time Publish
// delivers a new notification to this sink.
func (s *Sink) Wake() <-chan struct{} {
	return s.wake
}

// publish writes n into the sink, coalescing with a pending transient
// notification of the same kind, replacing any other pending value.
func (s *Sink) publish(n entities.Notification) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		if !(n.IsTransient() && n.Kind == s.pending.Kind) {
			s.dropped++
		}
	}
	s.pending = &n
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Latest drains and returns the most recently published notification, and
// whether one was pending.
func (s *Sink) Latest() (entities.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return entities.Notification{}, false
	}
	n := *s.pending
	s.pending = nil
	return n, true
}

// Dropped returns the number of notifications this sink has silently
// replaced before delivery, for test observability.
func (s *Sink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Sink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the sink's owning session has cancelled its
// subscription, used by the registry's sweep to find stale entries whose
// reader is gone.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Bus fans notifications out to every subscribed Sink.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]*Sink
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*Sink)}
}

// Subscribe registers a new subscriber, seeded with seed as its first
// pending notification (the caller passes the current navigation state so
// a newly-registered client observes it without a separate round-trip).
// The returned cancel function must be called exactly once when the
// session ends.
func (b *Bus) Subscribe(seed entities.Notification) (sink *Sink, cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	s := newSink()
	s.pending = &seed
	b.subs[id] = s
	b.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return s, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.close()
	}
}

// Publish delivers n to every current subscriber. Best-effort: one
// subscriber's backlog never blocks delivery to another.
func (b *Bus) Publish(n entities.Notification) {
	b.mu.Lock()
	sinks := make([]*Sink, 0, len(b.subs))
	for _, s := range b.subs {
		sinks = append(sinks, s)
	}
	b.mu.Unlock()

	for _, s := range sinks {
		s.publish(n)
	}
}

// PublishExcept delivers n to every subscriber except the one owning
// exceptSink, used for "notify others" broadcasts (ClientConnected /
// ClientDisconnected never echo back to the client that caused them).
func (b *Bus) PublishExcept(n entities.Notification, exceptSink *Sink) {
	b.mu.Lock()
	sinks := make([]*Sink, 0, len(b.subs))
	for _, s := range b.subs {
		if s != exceptSink {
			sinks = append(sinks, s)
		}
	}
	b.mu.Unlock()

	for _, s := range sinks {
		s.publish(n)
	}
}

// Len returns the number of current subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
