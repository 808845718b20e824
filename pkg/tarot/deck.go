package tarot

import "fmt"

// Card is one of the 78 cards of a standard Rider-Waite deck.
type Card struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Arcana string `json:"arcana"` // "major" or "minor"
	Suit   string `json:"suit,omitempty"`
	Number int    `json:"number"`
}

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress",
	"The Emperor", "The Hierophant", "The Lovers", "The Chariot",
	"Strength", "The Hermit", "Wheel of Fortune", "Justice",
	"The Hanged Man", "Death", "Temperance", "The Devil",
	"The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var suits = []string{"wands", "cups", "swords", "pentacles"}

var ranks = []string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Page", "Knight", "Queen", "King",
}

var suitNames = map[string]string{
	"wands":     "Wands",
	"cups":      "Cups",
	"swords":    "Swords",
	"pentacles": "Pentacles",
}

// Deck returns a fresh full deck, majors first then minors by suit.
func Deck() []Card {
	cards := make([]Card, 0, 78)
	for i, name := range majorArcana {
		cards = append(cards, Card{
			ID:     fmt.Sprintf("major_%02d", i),
			Name:   name,
			Arcana: "major",
			Number: i,
		})
	}
	for _, suit := range suits {
		for i, rank := range ranks {
			cards = append(cards, Card{
				ID:     fmt.Sprintf("%s_%02d", suit, i+1),
				Name:   fmt.Sprintf("%s of %s", rank, suitNames[suit]),
				Arcana: "minor",
				Suit:   suit,
				Number: i + 1,
			})
		}
	}
	return cards
}
