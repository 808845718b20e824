package tarot

import "math/rand"

// Spread is a named layout: an ordered list of positions, each filled by one
// drawn card.
type Spread struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Positions []string `json:"positions"`
}

var spreads = []Spread{
	{
		ID:        "daily_card",
		Name:      "Card of the Day",
		Positions: []string{"Today"},
	},
	{
		ID:        "single_card",
		Name:      "One Card Answer",
		Positions: []string{"Answer"},
	},
	{
		ID:        "three_card",
		Name:      "Past, Present, Future",
		Positions: []string{"Past", "Present", "Future"},
	},
	{
		ID:        "love_spread",
		Name:      "Love Triangle",
		Positions: []string{"You", "Your Partner", "The Relationship"},
	},
	{
		ID:   "horseshoe",
		Name: "Horseshoe",
		Positions: []string{
			"Past", "Present", "Hidden Influences", "Obstacles",
			"Outside Influences", "Advice", "Outcome",
		},
	},
	{
		ID:   "celtic_cross",
		Name: "Celtic Cross",
		Positions: []string{
			"Present", "Challenge", "Foundation", "Recent Past",
			"Crown", "Near Future", "Self", "Environment",
			"Hopes and Fears", "Outcome",
		},
	},
	{
		ID:   "year_ahead",
		Name: "Year Ahead",
		Positions: []string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
	},
}

// Spreads returns every spread the product offers.
func Spreads() []Spread {
	out := make([]Spread, len(spreads))
	copy(out, spreads)
	return out
}

// SpreadByID looks up a spread definition.
func SpreadByID(id string) (Spread, bool) {
	for _, s := range spreads {
		if s.ID == id {
			return s, true
		}
	}
	return Spread{}, false
}

// DrawnCard is one card placed in one spread position.
type DrawnCard struct {
	Position string `json:"position"`
	Card     Card   `json:"card"`
	Reversed bool   `json:"reversed"`
}

// Draw fills every position of the spread by sampling the deck without
// replacement. rng must not be nil; callers seed it per request.
func Draw(spread Spread, rng *rand.Rand) []DrawnCard {
	deck := Deck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	drawn := make([]DrawnCard, len(spread.Positions))
	for i, pos := range spread.Positions {
		drawn[i] = DrawnCard{
			Position: pos,
			Card:     deck[i],
			Reversed: rng.Intn(2) == 1,
		}
	}
	return drawn
}
