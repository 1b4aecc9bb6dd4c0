package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleEntries() []Entry {
	return []Entry{
		{Name: "Ash Blossom & Joyous Spring", Quantity: 3, Area: Main, Tags: []string{"Handtrap"}},
		{Name: "Effect Veiler", Quantity: 2, Area: Main, Tags: []string{"handtrap", "Non-Engine"}},
		{Name: "Snake-Eye Ash", Quantity: 3, Area: Main, Tags: []string{"Starter"}},
		{Name: "Accesscode Talker", Quantity: 1, Area: Extra},
		{Name: "Droll & Lock Bird", Quantity: 3, Area: Side, Tags: []string{"Handtrap"}},
	}
}

func TestMainDeck(t *testing.T) {
	cards := MainDeck(sampleEntries())
	assert.Len(t, cards, 8)
	assert.Equal(t, 8, MainCount(sampleEntries()))
	assert.NotContains(t, cards, "Accesscode Talker")
	assert.NotContains(t, cards, "Droll & Lock Bird")
}

func TestMainDeck_DuplicateEntriesExpandIndependently(t *testing.T) {
	entries := []Entry{
		{Name: "Pot of Prosperity", Quantity: 2, Area: Main},
		{Name: "Pot of Prosperity", Quantity: 1, Area: Main},
	}
	assert.Len(t, MainDeck(entries), 3)
}

func TestAggregate(t *testing.T) {
	entries := []Entry{
		{Name: "Effect Veiler", Quantity: 1, Area: Main, Tags: []string{"Handtrap"}},
		{Name: "Snake-Eye Ash", Quantity: 3, Area: Main},
		{Name: "effect veiler", Quantity: 1, Area: Main, Tags: []string{"handtrap", "Non-Engine"}},
		{Name: "Effect Veiler", Quantity: 1, Area: Side},
	}

	got := Aggregate(entries)
	assert.Len(t, got, 3)
	assert.Equal(t, "Effect Veiler", got[0].Name)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, []string{"Handtrap", "Non-Engine"}, got[0].Tags)
	assert.Equal(t, Side, got[2].Area)
}

func TestTagCounting(t *testing.T) {
	entries := sampleEntries()

	assert.Equal(t, 5, CountTagged(entries, "Handtrap"))
	assert.Equal(t, 3, CountTagged(entries, "starter"))
	assert.Equal(t, 0, CountTagged(entries, "Board Breaker"))
	assert.Equal(t, []string{"Ash Blossom & Joyous Spring", "Effect Veiler"}, NamesWithTag(entries, "HANDTRAP"))
	assert.Equal(t, []string{"Handtrap", "Non-Engine", "Starter"}, TagNames(entries))
	assert.Equal(t, 5, CountNames(entries, []string{"Snake-Eye Ash", "Effect Veiler", "Droll & Lock Bird"}))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeTags(nil))
	assert.Equal(t, []string{"Starter", "Engine"}, NormalizeTags([]string{" Starter ", "", "starter", "Engine"}))
}
