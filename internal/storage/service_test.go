package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

func newDeck(id string) *models.Deck {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Deck{ID: id, Name: "Tenpai Dragon", TotalCards: 5, CreatedAt: now, UpdatedAt: now}
}

func TestService_CreateAndUpdateDeck(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	deck := newDeck("deck-1")
	cards := []*models.DeckCard{
		{CardName: "Sangen Kaimen", Area: "MAIN", Quantity: 3},
		{CardName: "Ash Blossom & Joyous Spring", Area: "MAIN", Quantity: 2},
	}
	require.NoError(t, svc.CreateDeck(ctx, deck, cards))

	got, gotCards, err := svc.DeckWithCards(ctx, "deck-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, gotCards, 2)

	deck.Name = "Tenpai"
	deck.TotalCards = 3
	require.NoError(t, svc.UpdateDeck(ctx, deck, cards[:1]))

	got, gotCards, err = svc.DeckWithCards(ctx, "deck-1")
	require.NoError(t, err)
	assert.Equal(t, "Tenpai", got.Name)
	assert.Len(t, gotCards, 1)

	missing, missingCards, err := svc.DeckWithCards(ctx, "deck-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Nil(t, missingCards)
}

func TestService_CreateDeckRollsBack(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// quantity 0 violates the CHECK constraint on deck_cards
	err := svc.CreateDeck(ctx, newDeck("deck-1"), []*models.DeckCard{
		{CardName: "Sangen Kaimen", Area: "MAIN", Quantity: 0},
	})
	require.Error(t, err)

	deck, err := svc.Decks().GetByID(ctx, "deck-1")
	require.NoError(t, err)
	assert.Nil(t, deck, "deck row must be rolled back with the cards")
}

func TestService_DeleteDeckRemovesCombos(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	deck := newDeck("deck-1")
	require.NoError(t, svc.CreateDeck(ctx, deck, nil))
	require.NoError(t, svc.Combos().Upsert(ctx, &models.Combo{
		ID:        "combo-1",
		DeckID:    "deck-1",
		Name:      "Kaimen line",
		Steps:     []models.ComboStep{{ID: "s1", Cards: []string{"Sangen Kaimen"}, Required: 1}},
		CreatedAt: deck.CreatedAt,
		UpdatedAt: deck.UpdatedAt,
	}))

	require.NoError(t, svc.Decks().Delete(ctx, "deck-1"))

	combos, err := svc.Combos().ListByDeck(ctx, "deck-1")
	require.NoError(t, err)
	assert.Empty(t, combos)
}
