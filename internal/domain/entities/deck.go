package entities

import (
	"errors"
	"fmt"
	"time"
)

// SlideKind discriminates the visual role of a slide.
type SlideKind string

const (
	SlideCover    SlideKind = "cover"
	SlidePart     SlideKind = "part"
	SlideStandard SlideKind = "standard"
)

// StyleBag is a free-form set of style tags attached to a slide, mirroring
// the teacher's Theme.Config free-form map but kept as a simple string set
// since slide styling here is a list of CSS-class-like tokens, not nested
// configuration.
type StyleBag []string

// Has reports whether the bag carries the given tag.
func (s StyleBag) Has(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// StepMarker is the Text token that, on its own inside a slide body's box
// children, denotes a progressive-reveal boundary. The token is fixed; the
// deck parser has no option to change it.
const StepMarker = "---"

// Slide is one unit of a presentation.
type Slide struct {
	Kind  SlideKind `json:"kind" toml:"kind"`
	Style StyleBag  `json:"style,omitempty" toml:"style,omitempty"`
	Title Content   `json:"title" toml:"title"`
	Body  Content   `json:"body" toml:"body"`
	Notes Content   `json:"notes,omitempty" toml:"notes,omitempty"`
}

// Validate checks the slide's content nodes.
func (s *Slide) Validate() error {
	if err := s.Title.Validate(); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if err := s.Body.Validate(); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if err := s.Notes.Validate(); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	return nil
}

// StepCount returns the number of progressive-reveal positions in the
// slide's body, counting StepMarker text nodes inside box children one
// level deep (reveals are declared as siblings in the top-level HBox/VBox
// of the body). The result is never below 1: a slide with no markers has
// exactly one step, the base state.
func (s *Slide) StepCount() int {
	return countStepMarkers(s.Body) + 1
}

func countStepMarkers(c Content) int {
	switch c.Kind {
	case ContentHBox, ContentVBox:
		count := 0
		for _, child := range c.Children {
			if child.Kind == ContentText && child.Text == StepMarker {
				count++
			}
		}
		return count
	default:
		return 0
	}
}

// Deck is the full presentation document: title, metadata, ordered slides.
type Deck struct {
	Title  string    `json:"title" toml:"title"`
	Date   time.Time `json:"date" toml:"date"`
	Footer *string   `json:"footer,omitempty" toml:"footer,omitempty"`
	Head   *string   `json:"head,omitempty" toml:"head,omitempty"`
	Slides []Slide   `json:"slides" toml:"slides"`
}

// Validate ensures the deck has valid required fields and slides.
func (d *Deck) Validate() error {
	if d.Title == "" {
		return errors.New("deck title is required")
	}
	if len(d.Slides) == 0 {
		return errors.New("deck must have at least one slide")
	}
	for i := range d.Slides {
		if err := d.Slides[i].Validate(); err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
	}
	return nil
}

// SlideID addresses a slide by its 0-based, snapshot-stable index. Unlike
// the global atomic u8 sequence the deck format was distilled from (which
// wraps at 256 and is shared across reloads), a SlideID here is scoped to
// one Deck value and never reused across a reload: a new Deck means new
// SlideIDs.
type SlideID int

// SlideCount returns the total number of slides.
func (d *Deck) SlideCount() int {
	return len(d.Slides)
}

// InRange reports whether id addresses a slide in this deck.
func (d *Deck) InRange(id SlideID) bool {
	return id >= 0 && int(id) < len(d.Slides)
}

// Slide returns the slide at id, or an error if id is out of range.
func (d *Deck) Slide(id SlideID) (*Slide, error) {
	if !d.InRange(id) {
		return nil, fmt.Errorf("slide id %d out of range (0-%d)", id, len(d.Slides)-1)
	}
	return &d.Slides[id], nil
}

// StepCount returns the step count for the slide at id, or 0 if id is out
// of range (callers that already validated id should prefer Slide().StepCount()).
func (d *Deck) StepCount(id SlideID) int {
	slide, err := d.Slide(id)
	if err != nil {
		return 0
	}
	return slide.StepCount()
}

// LastSlideID returns the last slide's id.
func (d *Deck) LastSlideID() SlideID {
	return SlideID(len(d.Slides) - 1)
}

// Titles returns the title string of every slide, in order.
func (d *Deck) Titles() []string {
	titles := make([]string, len(d.Slides))
	for i, s := range d.Slides {
		titles[i] = s.Title.String()
	}
	return titles
}

// StepCounts returns the step count of every slide, in order.
func (d *Deck) StepCounts() []int {
	counts := make([]int, len(d.Slides))
	for i, s := range d.Slides {
		counts[i] = s.StepCount()
	}
	return counts
}
