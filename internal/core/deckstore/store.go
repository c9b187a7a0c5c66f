// Package deckstore implements the deck snapshot store (component A): a
// lock-free, copy-on-write holder of the currently-serving deck.
package deckstore

import (
	"sync/atomic"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Store holds the live deck snapshot. The zero value is ready to use and
// reports Current() == nil until the first Swap.
type Store struct {
	v atomic.Value // holds *entities.Deck
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Current returns the live deck snapshot, a consistent view that remains
// valid to read even if a concurrent Swap installs a newer one. Returns nil
// if no deck has ever been loaded.
func (s *Store) Current() *entities.Deck {
	v := s.v.Load()
	if v == nil {
		return nil
	}
	return v.(*entities.Deck)
}

// Swap installs deck as the new live snapshot, replacing the previous one
// atomically. Readers that already hold the old *entities.Deck continue to
// see a valid, unmodified value — deck values are never mutated in place.
func (s *Store) Swap(deck *entities.Deck) {
	s.v.Store(deck)
}
