// Package deckparser implements the external deck-parsing collaborator:
// TOML deck source into entities.Deck, with additive markdown and HTML
// pre-rendering so thin clients never need their own rendering engine.
package deckparser

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Parser implements ports.DeckParser over a TOML deck source.
type Parser struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// New builds a deck parser with the teacher's markdown feature set
// (GFM tables, strikethrough, task lists, typographic smart punctuation,
// auto heading ids) and a restrictive HTML sanitizer applied to both
// markdown output and any raw Content::Html node.
func New() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
	return &Parser{md: md, sanitizer: slideHTMLPolicy()}
}

func slideHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr")
	p.AllowElements("strong", "b", "em", "i", "u", "s", "mark")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "pre", "code")
	p.AllowElements("a").AllowAttrs("href").OnElements("a")
	p.AllowElements("img").AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowElements("div", "span").AllowAttrs("class").OnElements("div", "span")
	p.AllowAttrs("class", "id").OnElements("h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "span")
	return p
}

// Parse reads path, decodes it as TOML, validates it, and pre-renders its
// content nodes.
func (p *Parser) Parse(ctx context.Context, path string) (*entities.Deck, error) {
	content, err := os.ReadFile(path) // #nosec G304 - path comes from validated configuration
	if err != nil {
		return nil, fmt.Errorf("reading deck file: %w", err)
	}
	return p.ParseBytes(ctx, content)
}

// ParseBytes decodes content as TOML into an entities.Deck, validates it,
// and pre-renders Text/Html content nodes in place.
func (p *Parser) ParseBytes(ctx context.Context, content []byte) (*entities.Deck, error) {
	var deck entities.Deck
	if _, err := toml.Decode(string(content), &deck); err != nil {
		return nil, fmt.Errorf("decoding deck TOML: %w", err)
	}

	if err := deck.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deck: %w", err)
	}

	for i := range deck.Slides {
		slide := &deck.Slides[i]
		var err error
		if slide.Title, err = p.render(slide.Title); err != nil {
			return nil, fmt.Errorf("slide %d title: %w", i, err)
		}
		if slide.Body, err = p.render(slide.Body); err != nil {
			return nil, fmt.Errorf("slide %d body: %w", i, err)
		}
		if slide.Notes, err = p.render(slide.Notes); err != nil {
			return nil, fmt.Errorf("slide %d notes: %w", i, err)
		}
	}

	return &deck, nil
}

// render recursively pre-renders a content node: Text gets a sanitized
// markdown-to-HTML rendering alongside its untouched source, Html's raw
// bytes are structurally validated then sanitized, boxes recurse into
// their children.
func (p *Parser) render(c entities.Content) (entities.Content, error) {
	switch c.Kind {
	case entities.ContentText:
		var buf bytes.Buffer
		if err := p.md.Convert([]byte(c.Text), &buf); err != nil {
			return c, fmt.Errorf("rendering markdown: %w", err)
		}
		c.RenderedHTML = p.sanitizer.Sanitize(buf.String())
		return c, nil

	case entities.ContentHTML:
		if _, err := html.Parse(bytes.NewReader([]byte(c.Raw))); err != nil {
			return c, fmt.Errorf("invalid html content: %w", err)
		}
		c.RenderedHTML = p.sanitizer.Sanitize(c.Raw)
		return c, nil

	case entities.ContentHBox, entities.ContentVBox:
		for i, child := range c.Children {
			rendered, err := p.render(child)
			if err != nil {
				return c, fmt.Errorf("child %d: %w", i, err)
			}
			c.Children[i] = rendered
		}
		return c, nil

	default:
		return c, nil
	}
}
