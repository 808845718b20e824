package tarot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckComposition(t *testing.T) {
	deck := Deck()
	require.Len(t, deck, 78)

	majors, minors := 0, 0
	ids := make(map[string]bool, 78)
	for _, c := range deck {
		assert.Falsef(t, ids[c.ID], "duplicate card id %s", c.ID)
		ids[c.ID] = true
		switch c.Arcana {
		case "major":
			majors++
		case "minor":
			minors++
		}
	}
	assert.Equal(t, 22, majors)
	assert.Equal(t, 56, minors)
}

func TestDrawSamplesWithoutReplacement(t *testing.T) {
	spread, ok := SpreadByID("celtic_cross")
	require.True(t, ok)

	rng := rand.New(rand.NewSource(42))
	drawn := Draw(spread, rng)
	require.Len(t, drawn, len(spread.Positions))

	seen := make(map[string]bool)
	for i, d := range drawn {
		assert.Equal(t, spread.Positions[i], d.Position)
		assert.Falsef(t, seen[d.Card.ID], "card %s drawn twice", d.Card.ID)
		seen[d.Card.ID] = true
	}
}

func TestSpreadByID(t *testing.T) {
	s, ok := SpreadByID("year_ahead")
	require.True(t, ok)
	assert.Len(t, s.Positions, 12)

	_, ok = SpreadByID("palm_reading")
	assert.False(t, ok)
}
