package gamba

import (
	"math/rand"
	"time"
)

// Deck represents a standard 52 card deck.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// suits in deck construction order.
var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// NewDeck creates a new deck. If rng is nil a time-seeded source is used;
// tests pass a seeded rng for reproducible deals.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cards := make([]Card, 0, 52)
	for _, suit := range suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}

	return &Deck{cards: cards, rng: rng}
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card. The second return is false when
// the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, true
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}
