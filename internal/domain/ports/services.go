package ports

import (
	"context"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// DeckStore holds the live deck snapshot (component A, §4). Swap replaces
// the whole deck atomically so readers never observe a half-updated deck;
// Current never blocks and never returns nil once Swap has been called at
// least once.
type DeckStore interface {
	// Current returns the live deck snapshot. Returns nil if no deck has
	// been loaded yet.
	Current() *entities.Deck

	// Swap installs a new deck snapshot, replacing the previous one.
	Swap(deck *entities.Deck)
}

// Navigator owns the single-writer navigation state machine (component B,
// §4). Dispatch applies a navigation command against the current deck and
// returns the resulting state; it is safe for concurrent use, serializing
// internally.
type Navigator interface {
	// State returns the current navigation state.
	State() entities.NavState

	// Dispatch applies a navigation command (First/Last/GoTo/Next/Previous/
	// NextStep/PreviousStep) against deck, returning the new state. Returns
	// an error if cmd is not a navigation command or deck is nil.
	Dispatch(deck *entities.Deck, cmd entities.Command) (entities.NavState, error)

	// Reset returns the machine to Init, used when a reloaded deck
	// invalidates the current position.
	Reset()
}

// ClientRegistry is the generational-index registry of connected clients
// (component C, §4). Register/Unregister are the only mutators; Register
// fails once the registry is at capacity.
type ClientRegistry interface {
	// Register admits a new client, returning its id. Returns an error if
	// the registry is at capacity.
	Register(info entities.ClientInfo) (entities.ClientID, error)

	// Unregister removes a client. A no-op if id is not currently
	// registered (already removed, or never valid).
	Unregister(id entities.ClientID)

	// Get returns the info for id and whether it is currently registered.
	Get(id entities.ClientID) (entities.ClientInfo, bool)

	// Len returns the number of currently registered clients.
	Len() int

	// Snapshot returns the info of every currently registered client.
	Snapshot() []entities.ClientInfo
}

// NotificationBus fans server-originated notifications out to every
// subscribed client session (component D, §4). It is latest-value and
// lossy: a subscriber that does not keep up observes only the most recent
// notification, whatever its kind, never an unbounded backlog. See
// internal/core/bus for the concrete implementation (*bus.Bus, *bus.Sink);
// this interface documents the contract adapters are written against.
type NotificationBus interface {
	// Publish delivers n to every current subscriber.
	Publish(n entities.Notification)

	// Len returns the number of current subscribers.
	Len() int
}

// HTTPServer is the primary HTTP/WebSocket adapter's lifecycle contract,
// used by the CLI entrypoint to start and stop serving without depending
// on the adapter's concrete type.
type HTTPServer interface {
	// Start begins serving on host:port, returning once the listener is
	// up (or with the error that kept it from binding); serving continues
	// in the background until Shutdown.
	Start(ctx context.Context, host string, port int) error

	// Shutdown gracefully drains in-flight HTTP requests, honoring ctx's
	// deadline; upgraded WebSocket connections are neither closed nor
	// waited for.
	Shutdown(ctx context.Context) error
}
