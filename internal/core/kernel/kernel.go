// Package kernel wires the four coordination components (deck store,
// navigator, registry, notification bus) into the single command pipeline
// both the HTTP handler and the WebSocket session drive.
package kernel

import (
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/tobogganhq/toboggan/internal/core/bus"
	"github.com/tobogganhq/toboggan/internal/core/deckstore"
	"github.com/tobogganhq/toboggan/internal/core/navigator"
	"github.com/tobogganhq/toboggan/internal/core/registry"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Kernel is the server-side coordination core: every client command, over
// HTTP or WebSocket, is dispatched through Handle.
type Kernel struct {
	Deck     *deckstore.Store
	Nav      *navigator.Navigator
	Registry *registry.Registry
	Bus      *bus.Bus

	// mu serializes every sequence that reads-then-acts-on navigation state
	// across a Bus operation: a new registration's seed-read+Subscribe, a
	// navigation command's dispatch+broadcast, and Reload's reset+broadcast.
	// Without it a registration's seed read and its Subscribe call could
	// straddle a concurrent Dispatch+Publish, seeding the new sink with a
	// stale state that the registration itself then never observes.
	mu sync.Mutex
}

// New builds a Kernel over fresh, empty components, bounded by maxClients.
func New(maxClients int) *Kernel {
	return &Kernel{
		Deck:     deckstore.New(),
		Nav:      navigator.New(),
		Registry: registry.New(maxClients),
		Bus:      bus.New(),
	}
}

// Session is the per-connection handle a WebSocket session (or an
// unregistered HTTP caller) holds: the client id once registered, and the
// sink the notification bus delivers to.
type Session struct {
	ID   entities.ClientID
	Sink *bus.Sink

	kernel *Kernel
	cancel func()
}

// Registered reports whether the session has completed Register.
func (s *Session) Registered() bool {
	return s.Sink != nil
}

// NewSession returns an unregistered session bound to k.
func (k *Kernel) NewSession() *Session {
	return &Session{kernel: k}
}

// Register admits addr/name as a new client, seeding its sink with the
// current navigation state and broadcasting ClientConnected to every other
// client. Returns the Registered notification to echo back to the caller.
func (s *Session) Register(name string, addr netip.Addr) (entities.Notification, error) {
	if s.Registered() {
		return entities.Notification{}, fmt.Errorf("kernel: session already registered")
	}

	info := entities.ClientInfo{Name: name, Addr: addr, ConnectedAt: time.Now()}
	id, err := s.kernel.Registry.Register(info)
	if err != nil {
		return entities.Notification{}, err
	}

	s.kernel.mu.Lock()
	seed := entities.NotifyStateOf(s.kernel.Nav.State())
	sink, cancel := s.kernel.Bus.Subscribe(seed)
	s.kernel.mu.Unlock()

	s.kernel.Registry.AttachSink(id, sink)

	s.ID = id
	s.Sink = sink
	s.cancel = cancel

	s.kernel.Bus.PublishExcept(entities.NotifyClientConnectedOf(id, name), sink)

	return entities.NotifyRegisteredOf(id), nil
}

// Unregister removes the session's client, releasing its sink and
// broadcasting ClientDisconnected to every other client. Safe to call more
// than once; a no-op after the first call.
func (s *Session) Unregister() {
	if !s.Registered() {
		return
	}
	info, _ := s.kernel.Registry.Get(s.ID)
	s.kernel.Registry.Unregister(s.ID)
	s.kernel.Bus.PublishExcept(entities.NotifyClientDisconnectedOf(s.ID, info.Name), s.Sink)
	s.cancel()
	s.Sink = nil
}

// Handle dispatches cmd through the coordination kernel, returning the
// notification that should be echoed to the caller (over HTTP response or
// WS frame). Navigation commands broadcast the resulting State to every
// client, except when the dispatch left the state unchanged (a true no-op,
// e.g. Previous from Init or Next from Done) — the caller still gets the
// state echoed back, but nothing is published to the bus. Blink broadcasts
// to every client; Ping answers only the caller; Register/Unregister are
// handled by the registry, not the navigator, per the command/state-machine
// split in the design.
func (s *Session) Handle(cmd entities.Command) (entities.Notification, error) {
	switch cmd.Kind {
	case entities.CmdRegister:
		return s.Register(cmd.Name, netip.Addr{})

	case entities.CmdUnregister:
		s.Unregister()
		return entities.Notification{}, nil

	case entities.CmdPing:
		return entities.PongNotification, nil

	case entities.CmdBlink:
		s.kernel.Bus.Publish(entities.BlinkNotification)
		return entities.BlinkNotification, nil

	default:
		if !cmd.IsNavigation() {
			err := fmt.Errorf("kernel: unknown command %q", cmd.Kind)
			return entities.NotifyErrorOf(err.Error()), err
		}
		deck := s.kernel.Deck.Current()

		s.kernel.mu.Lock()
		defer s.kernel.mu.Unlock()
		before := s.kernel.Nav.State()
		state, err := s.kernel.Nav.Dispatch(deck, cmd)
		if err != nil {
			return entities.NotifyErrorOf(err.Error()), err
		}
		notif := entities.NotifyStateOf(state)
		if state != before {
			s.kernel.Bus.Publish(notif)
		}
		return notif, nil
	}
}

// Reload installs deck as the new live snapshot, resets the navigation
// state to Init, and broadcasts TalkChange{Init} to every client. Called
// by the deck watcher (component F) after a successful reparse.
func (k *Kernel) Reload(deck *entities.Deck) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.Deck.Swap(deck)
	k.Nav.Reset()
	k.Bus.Publish(entities.NotifyTalkChangeOf(k.Nav.State()))
}
