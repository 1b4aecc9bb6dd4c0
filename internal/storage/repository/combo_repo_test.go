package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

func TestComboRepository_UpsertListDelete(t *testing.T) {
	db := setupDeckTestDB(t)
	decks := NewDeckRepository(db)
	repo := NewComboRepository(db)
	ctx := context.Background()

	createTestDeck(t, decks, "deck-1", "Snake-Eye")
	createTestDeck(t, decks, "deck-2", "Tenpai")

	now := time.Now().UTC().Truncate(time.Second)
	prob := 42.5
	combo := &models.Combo{
		ID:     "combo-1",
		DeckID: "deck-1",
		Name:   "Ash into Oak",
		Steps: []models.ComboStep{
			{ID: "s1", Label: "Starter", Cards: []string{"Snake-Eye Ash"}, Required: 1},
			{ID: "s2", Cards: []string{"Snake-Eye Oak", "Diabellstar"}, Required: 1},
		},
		Probability: &prob,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Upsert(ctx, combo))

	combo.Name = "Ash line"
	combo.Probability = nil
	require.NoError(t, repo.Upsert(ctx, combo))

	list, err := repo.ListByDeck(ctx, "deck-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ash line", list[0].Name)
	assert.Nil(t, list[0].Probability)
	assert.Equal(t, combo.Steps, list[0].Steps)

	got, err := repo.GetByID(ctx, "deck-1", "combo-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = repo.GetByID(ctx, "deck-2", "combo-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The same ID under another deck must not overwrite it.
	stolen := *combo
	stolen.DeckID = "deck-2"
	err = repo.Upsert(ctx, &stolen)
	assert.ErrorIs(t, err, ErrComboConflict)

	ok, err := repo.Delete(ctx, "deck-2", "combo-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, "deck-1", "combo-1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = repo.ListByDeck(ctx, "deck-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
