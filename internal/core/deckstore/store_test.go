package deckstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

func TestStore_EmptyByDefault(t *testing.T) {
	s := New()
	assert.Nil(t, s.Current())
}

func TestStore_SwapThenCurrent(t *testing.T) {
	s := New()
	deck := &entities.Deck{Title: "talk one"}

	s.Swap(deck)
	assert.Same(t, deck, s.Current())

	next := &entities.Deck{Title: "talk two"}
	s.Swap(next)
	assert.Same(t, next, s.Current())
}

func TestStore_ConcurrentSwapAndRead(t *testing.T) {
	s := New()
	s.Swap(&entities.Deck{Title: "initial"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.Swap(&entities.Deck{Title: "updated"})
		}
	}()

	for i := 0; i < 1000; i++ {
		deck := s.Current()
		assert.NotNil(t, deck)
	}
	<-done
}
