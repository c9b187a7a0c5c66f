package entities

import (
	"fmt"
	"net/netip"
	"time"
)

// ClientID is a generational index into the client registry: a slot index
// plus a generation counter bumped every time that slot is reused. This is
// the Go analogue of the slotmap::DefaultKey the registry design was
// distilled from — it guarantees a freed id is never confused with a
// later occupant of the same slot, which matters because ids are echoed
// in ClientConnected/ClientDisconnected notifications that may race with
// delivery.
type ClientID struct {
	index      uint32
	generation uint32
}

// NoClient is the zero value, never assigned to a real registration.
var NoClient = ClientID{}

// NewClientID builds a ClientID from a registry slot index and generation.
// Only the registry should call this.
func NewClientID(index, generation uint32) ClientID {
	return ClientID{index: index, generation: generation}
}

// Parts returns the slot index and generation backing this id, for use by
// the registry that issued it.
func (c ClientID) Parts() (index, generation uint32) {
	return c.index, c.generation
}

// String renders the id as "<index>.<generation>".
func (c ClientID) String() string {
	return fmt.Sprintf("%d.%d", c.index, c.generation)
}

// MarshalJSON encodes the id as its opaque string form.
func (c ClientID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes the id from its opaque string form.
func (c *ClientID) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) >= 2 && data[0] == '"' {
		s = string(data[1 : len(data)-1])
	}
	if s == "" {
		*c = NoClient
		return nil
	}
	var index, generation uint32
	if _, err := fmt.Sscanf(s, "%d.%d", &index, &generation); err != nil {
		return fmt.Errorf("invalid client id %q: %w", s, err)
	}
	*c = ClientID{index: index, generation: generation}
	return nil
}

// ClientInfo is the public, read-only view of a registered client: the
// tuple connected_clients() returns.
type ClientInfo struct {
	ID          ClientID     `json:"id"`
	Name        string       `json:"name"`
	Addr        netip.Addr   `json:"addr"`
	ConnectedAt time.Time    `json:"connected_at"`
}
