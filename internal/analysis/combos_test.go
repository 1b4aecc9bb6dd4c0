package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
)

func TestSaveCombo_ComputesProbability(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()
	view := fortyCardDeck(t, svc)

	saved, err := svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{Name: "Open Ash", Steps: ashStep()})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	require.NotNil(t, saved.Probability)
	assert.InDelta(t, 33.755, *saved.Probability, 0.001)
	assert.Equal(t, "step-1", saved.Steps[0].ID)
	assert.Equal(t, []string{ashName}, saved.Steps[0].Cards)

	fixed := 12.5
	updated, err := svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{
		ID:          saved.ID,
		Name:        "Open Ash (manual)",
		Steps:       ashStep(),
		Probability: &fixed,
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, saved.CreatedAt.Unix(), updated.CreatedAt.Unix())

	combos, err := svc.ListCombos(ctx, view.Deck.ID)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "Open Ash (manual)", combos[0].Name)
	require.NotNil(t, combos[0].Probability)
	assert.Equal(t, 12.5, *combos[0].Probability)

	steps := StepsFromModel(combos[0].Steps)
	assert.Equal(t, ashStep()[0].AllowedNames, steps[0].AllowedNames)
	assert.Equal(t, 1, steps[0].RequiredCount)

	require.NoError(t, svc.DeleteCombo(ctx, view.Deck.ID, saved.ID))
	assert.ErrorIs(t, svc.DeleteCombo(ctx, view.Deck.ID, saved.ID), ErrNotFound)
}

func TestSaveCombo_Validation(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()
	view := fortyCardDeck(t, svc)

	_, err := svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{Steps: ashStep()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{Name: "no steps"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{
		Name:  "negative",
		Steps: []combo.Step{{AllowedNames: []string{ashName}, RequiredCount: -1}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveCombo(ctx, "missing", ComboRequest{Name: "x", Steps: ashStep()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListCombos(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveCombo_IDOfOtherDeck(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()
	first := fortyCardDeck(t, svc)
	second := fortyCardDeck(t, svc)

	saved, err := svc.SaveCombo(ctx, first.Deck.ID, ComboRequest{Name: "Open Ash", Steps: ashStep()})
	require.NoError(t, err)

	_, err = svc.SaveCombo(ctx, second.Deck.ID, ComboRequest{ID: saved.ID, Name: "Steal", Steps: ashStep()})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSampleHand(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()
	view := fortyCardDeck(t, svc)

	_, err := svc.SaveCombo(ctx, view.Deck.ID, ComboRequest{Name: "Open Ash", Steps: ashStep()})
	require.NoError(t, err)

	hand, err := svc.SampleHand(ctx, view.Deck.ID, 0, combo.Seeded(42))
	require.NoError(t, err)
	assert.Len(t, hand.Hand, 5)
	assert.NotEmpty(t, hand.Next)
	assert.Equal(t, uint64(42), hand.Seed)
	assert.Equal(t, 40, hand.DeckSize)
	require.Len(t, hand.Combos, 1)

	hasAsh := false
	for _, c := range hand.Hand {
		if c == ashName {
			hasAsh = true
		}
	}
	for _, ok := range hand.Combos {
		assert.Equal(t, hasAsh, ok)
	}

	again, err := svc.SampleHand(ctx, view.Deck.ID, 5, combo.Seeded(42))
	require.NoError(t, err)
	assert.Equal(t, hand.Hand, again.Hand)
	assert.Equal(t, hand.Next, again.Next)

	full, err := svc.SampleHand(ctx, view.Deck.ID, 40, nil)
	require.NoError(t, err)
	assert.Len(t, full.Hand, 40)
	assert.Empty(t, full.Next)

	_, err = svc.SampleHand(ctx, view.Deck.ID, 41, nil)
	assert.ErrorIs(t, err, combo.ErrInfeasibleDeck)
}
