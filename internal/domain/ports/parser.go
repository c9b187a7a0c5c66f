package ports

import (
	"context"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// DeckParser defines the interface for parsing a deck source file into the
// in-memory entities.Deck. Implementations own the source format (TOML) and
// any pre-rendering (markdown-to-HTML, HTML sanitization) that lets the
// result be served directly to clients without further transformation.
type DeckParser interface {
	// Parse reads and validates a deck source file at path.
	Parse(ctx context.Context, path string) (*entities.Deck, error)

	// ParseBytes parses deck source content already in memory, useful for
	// tests and for re-parsing a file the watcher has already read.
	ParseBytes(ctx context.Context, content []byte) (*entities.Deck, error)
}
