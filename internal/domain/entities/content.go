package entities

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ContentKind discriminates the variants of Content.
type ContentKind string

const (
	ContentEmpty ContentKind = "empty"
	ContentText  ContentKind = "text"
	ContentHTML  ContentKind = "html"
	ContentIFrame ContentKind = "iframe"
	ContentTerm  ContentKind = "term"
	ContentHBox  ContentKind = "hbox"
	ContentVBox  ContentKind = "vbox"
)

// Content is a tagged sum of the slide content variants: Empty, Text,
// Html, IFrame, Term, HBox and VBox. Only the fields relevant to Kind are
// populated; the others are left zero. This flat-struct-plus-discriminator
// shape (rather than an interface) is what lets a single type round-trip
// through both the TOML deck source and the JSON wire protocol.
type Content struct {
	Kind ContentKind `json:"type" toml:"type"`

	// Text carries the Text variant's markdown source.
	Text string `json:"text,omitempty" toml:"text,omitempty"`
	// RenderedHTML is populated by the deck parser from Text via goldmark,
	// sanitized with bluemonday. Not present in the TOML deck source.
	RenderedHTML string `json:"rendered_html,omitempty" toml:"-"`

	// Raw and Alt back the Html variant.
	Raw string  `json:"raw,omitempty" toml:"raw,omitempty"`
	Alt *string `json:"alt,omitempty" toml:"alt,omitempty"`

	// URL backs the IFrame variant.
	URL string `json:"url,omitempty" toml:"url,omitempty"`

	// Cwd and Bootstrap back the Term variant.
	Cwd       string   `json:"cwd,omitempty" toml:"cwd,omitempty"`
	Bootstrap []string `json:"bootstrap,omitempty" toml:"bootstrap,omitempty"`

	// Columns/Rows and Children back HBox/VBox.
	Columns  string    `json:"columns,omitempty" toml:"columns,omitempty"`
	Rows     string    `json:"rows,omitempty" toml:"rows,omitempty"`
	Children []Content `json:"children,omitempty" toml:"children,omitempty"`
}

// EmptyContent returns the Empty variant.
func EmptyContent() Content {
	return Content{Kind: ContentEmpty}
}

// NewTextContent returns the Text variant.
func NewTextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// NewHTMLContent returns the Html variant.
func NewHTMLContent(raw string, alt *string) Content {
	return Content{Kind: ContentHTML, Raw: raw, Alt: alt}
}

// Validate checks structural invariants of a Content node.
func (c Content) Validate() error {
	switch c.Kind {
	case ContentEmpty, "":
		return nil
	case ContentText:
		return nil
	case ContentHTML:
		if c.Raw == "" {
			return errors.New("html content requires raw")
		}
		return nil
	case ContentIFrame:
		if c.URL == "" {
			return errors.New("iframe content requires url")
		}
		return nil
	case ContentTerm:
		if c.Cwd == "" {
			return errors.New("term content requires cwd")
		}
		return nil
	case ContentHBox, ContentVBox:
		for i, child := range c.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown content kind %q", c.Kind)
	}
}

// String renders a human-readable summary, mirroring the Display impl the
// deck format was distilled from: text for simple variants, a " - "
// joined walk of children for boxes.
func (c Content) String() string {
	switch c.Kind {
	case ContentEmpty, "":
		return "<no content>"
	case ContentText:
		return c.Text
	case ContentHTML:
		if c.Alt != nil {
			return *c.Alt
		}
		return c.Raw
	case ContentIFrame:
		return c.URL
	case ContentTerm:
		s := c.Cwd
		if len(c.Bootstrap) > 0 {
			s += " - " + c.Bootstrap[len(c.Bootstrap)-1]
		}
		return s
	case ContentHBox, ContentVBox:
		out := ""
		for i, child := range c.Children {
			if i > 0 {
				out += " - "
			}
			out += child.String()
		}
		return out
	default:
		return ""
	}
}

// IsEmpty reports whether the content carries no information at all.
func (c Content) IsEmpty() bool {
	return c.Kind == "" || c.Kind == ContentEmpty
}

// MarshalJSON implements the tagged-sum encoding, omitting fields that are
// irrelevant to the variant so the wire form stays minimal.
func (c Content) MarshalJSON() ([]byte, error) {
	type alias Content
	a := alias(c)
	if a.Kind == "" {
		a.Kind = ContentEmpty
	}
	return json.Marshal(a)
}

// UnmarshalJSON implements the tagged-sum decoding.
func (c *Content) UnmarshalJSON(data []byte) error {
	type alias Content
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = ContentEmpty
	}
	*c = Content(a)
	return c.Validate()
}
