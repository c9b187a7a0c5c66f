package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

func step() entities.Content {
	return entities.NewTextContent(entities.StepMarker)
}

// threeSlideDeck has slide 1 carrying two progressive-reveal steps (a
// body with one step marker, giving StepCount()==2).
func threeSlideDeck() *entities.Deck {
	return &entities.Deck{
		Title: "demo",
		Slides: []entities.Slide{
			{Kind: entities.SlideCover, Title: entities.NewTextContent("Intro"), Body: entities.NewTextContent("welcome")},
			{
				Kind:  entities.SlideStandard,
				Title: entities.NewTextContent("Point A"),
				Body: entities.Content{
					Kind:     entities.ContentVBox,
					Children: []entities.Content{entities.NewTextContent("first"), step(), entities.NewTextContent("second")},
				},
			},
			{Kind: entities.SlideStandard, Title: entities.NewTextContent("Outro"), Body: entities.NewTextContent("thanks")},
		},
	}
}

func TestNavigator_StartsAtInit(t *testing.T) {
	n := New()
	assert.True(t, n.State().IsInit())
}

func TestNavigator_First(t *testing.T) {
	n := New()
	deck := threeSlideDeck()

	state, err := n.Dispatch(deck, entities.First())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(0, 0), state)
}

func TestNavigator_Last(t *testing.T) {
	n := New()
	deck := threeSlideDeck()

	state, err := n.Dispatch(deck, entities.Last())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(2, 0), state)
}

func TestNavigator_FirstLastOnEmptyDeckErrors(t *testing.T) {
	n := New()
	empty := &entities.Deck{Title: "empty"}

	_, err := n.Dispatch(empty, entities.First())
	assert.Error(t, err)
	assert.True(t, n.State().IsInit(), "failed First must not mutate state")

	_, err = n.Dispatch(empty, entities.Last())
	assert.Error(t, err)
}

func TestNavigator_GoToOutOfRangeDoesNotMutate(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.First())

	before := n.State()
	_, err := n.Dispatch(deck, entities.GoTo(99))
	assert.Error(t, err)
	assert.Equal(t, before, n.State())
}

func TestNavigator_NextCrossesStepsThenSlides(t *testing.T) {
	n := New()
	deck := threeSlideDeck()

	_, _ = n.Dispatch(deck, entities.GoTo(1)) // slide 1 has 2 steps

	state, err := n.Dispatch(deck, entities.Next())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(1, 1), state, "first Next consumes the step")

	state, err = n.Dispatch(deck, entities.Next())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(2, 0), state, "second Next crosses into the next slide")
}

func TestNavigator_NextStepNeverCrossesSlideBoundary(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.GoTo(1))
	_, _ = n.Dispatch(deck, entities.NextStep()) // consumes the one step: now (1,1)

	state, err := n.Dispatch(deck, entities.NextStep())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(1, 1), state, "NextStep at the last step of a slide is a no-op")
}

func TestNavigator_NextOnLastSlideTransitionsToDone(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.Last())

	state, err := n.Dispatch(deck, entities.Next())
	require.NoError(t, err)
	assert.True(t, state.IsDone())
	assert.Equal(t, entities.SlideID(2), state.Current)
}

func TestNavigator_PreviousSymmetricWithNext(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.GoTo(2))

	state, err := n.Dispatch(deck, entities.Previous())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(1, 1), state, "Previous crosses back to the last step of slide 1")
}

// deckWithSteppedLastSlide gives its last slide two progressive-reveal
// steps, so Next from its last step lands on Done while still carrying a
// nonzero CurrentStep — the case that distinguishes "restore" from
// "decrement" in Previous's Done branch.
func deckWithSteppedLastSlide() *entities.Deck {
	return &entities.Deck{
		Title: "demo",
		Slides: []entities.Slide{
			{Kind: entities.SlideCover, Title: entities.NewTextContent("Intro"), Body: entities.NewTextContent("welcome")},
			{
				Kind:  entities.SlideStandard,
				Title: entities.NewTextContent("Outro"),
				Body: entities.Content{
					Kind:     entities.ContentVBox,
					Children: []entities.Content{entities.NewTextContent("first"), step(), entities.NewTextContent("second")},
				},
			},
		},
	}
}

func TestNavigator_PreviousFromDoneRestoresTheExactStateNextLeft(t *testing.T) {
	// Judgment call: the spec is silent on Previous from Done. Done carries
	// the (current, step) pair Next was at when it hit the absolute end, so
	// the first Previous out of Done must restore that pair unchanged — the
	// same "Previous undoes Next" property that already holds from Running.
	n := New()
	deck := deckWithSteppedLastSlide()
	_, _ = n.Dispatch(deck, entities.GoTo(1))
	_, _ = n.Dispatch(deck, entities.NextStep()) // -> Running(1,1), the slide's last step

	state, err := n.Dispatch(deck, entities.Next())
	require.NoError(t, err)
	require.Equal(t, entities.Done(1, 1), state, "Next past the last step of the last slide transitions to Done, carrying (1,1)")

	state, err = n.Dispatch(deck, entities.Previous())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(1, 1), state, "the first Previous out of Done restores (1,1) unchanged, not a decrement")
}

func TestNavigator_SecondPreviousAfterDoneDecrementsNormally(t *testing.T) {
	n := New()
	deck := deckWithSteppedLastSlide()
	_, _ = n.Dispatch(deck, entities.GoTo(1))
	_, _ = n.Dispatch(deck, entities.NextStep())
	_, _ = n.Dispatch(deck, entities.Next()) // -> Done(1,1)
	_, _ = n.Dispatch(deck, entities.Previous()) // restores Running(1,1)

	state, err := n.Dispatch(deck, entities.Previous())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(1, 0), state, "a second Previous decrements the restored Running state as usual")
}

func TestNavigator_PreviousFromDoneOnSingleStepLastSlideRestoresZero(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.Last())
	_, _ = n.Dispatch(deck, entities.Next()) // -> Done(2,0), last slide has one step

	state, err := n.Dispatch(deck, entities.Previous())
	require.NoError(t, err)
	assert.Equal(t, entities.Running(2, 0), state, "restores the exact pre-Done position rather than crossing into the prior slide")
}

func TestNavigator_Reset(t *testing.T) {
	n := New()
	deck := threeSlideDeck()
	_, _ = n.Dispatch(deck, entities.Last())

	n.Reset()
	assert.True(t, n.State().IsInit())
}

func TestNavigator_DispatchRejectsNonNavigationCommands(t *testing.T) {
	n := New()
	deck := threeSlideDeck()

	_, err := n.Dispatch(deck, entities.Ping())
	assert.Error(t, err)
}

func TestNavigator_DispatchRequiresDeck(t *testing.T) {
	n := New()
	_, err := n.Dispatch(nil, entities.First())
	assert.Error(t, err)
}
