// Package reload coordinates the deck watcher (component F) with the
// coordination kernel: on every debounced, content-verified file change it
// reparses the deck and, on success, swaps it in and resets navigation.
package reload

import (
	"context"
	"fmt"
	"sync"

	"github.com/tobogganhq/toboggan/internal/core/kernel"
	"github.com/tobogganhq/toboggan/internal/domain/ports"
	"github.com/tobogganhq/toboggan/internal/logging"
)

// Service wires a ports.FileWatcher and a ports.DeckParser to a
// kernel.Kernel, reloading the live deck whenever the watched file
// changes.
type Service struct {
	watcher ports.FileWatcher
	parser  ports.DeckParser
	kernel  *kernel.Kernel
	logger  *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	path    string
	running bool
}

// New builds a reload service over watcher/parser/k.
func New(watcher ports.FileWatcher, parser ports.DeckParser, k *kernel.Kernel) *Service {
	return &Service{
		watcher: watcher,
		parser:  parser,
		kernel:  k,
		logger:  logging.New("reload", false),
	}
}

// LoadInitial parses path once and installs the result as the live deck,
// without going through the watcher. Call this before Start so the server
// has a deck to serve from the moment it starts accepting connections.
func (s *Service) LoadInitial(ctx context.Context, path string) error {
	deck, err := s.parser.Parse(ctx, path)
	if err != nil {
		return fmt.Errorf("loading initial deck: %w", err)
	}
	s.kernel.Deck.Swap(deck)
	return nil
}

// Start begins watching path for changes. Each debounced, content-verified
// change reparses the file; on success it swaps the deck and resets
// navigation to Init, broadcasting TalkChange{Init}; on failure it logs
// and leaves the live deck untouched.
func (s *Service) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("reload: already watching")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.path = path
	s.mu.Unlock()

	events, err := s.watcher.Watch(watchCtx, path)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		return fmt.Errorf("starting deck watcher: %w", err)
	}

	go s.handleEvents(watchCtx, events)
	return nil
}

// Stop stops watching. A no-op if not currently watching.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cancel()
	s.running = false
	return s.watcher.Stop()
}

func (s *Service) handleEvents(ctx context.Context, events <-chan ports.FileChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.logger.Info("deck file %s: %s", event.Type, event.Path)

			if event.Type == ports.Deleted {
				s.logger.Warn("deck file removed, keeping previous deck live")
				continue
			}

			deck, err := s.parser.Parse(ctx, event.Path)
			if err != nil {
				s.logger.Error("reload failed, keeping previous deck live: %v", err)
				continue
			}

			s.kernel.Reload(deck)
			s.logger.Info("deck reloaded: %q (%d slides)", deck.Title, deck.SlideCount())
		}
	}
}
