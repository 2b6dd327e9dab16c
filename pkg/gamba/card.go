package gamba

import (
	"fmt"
	"strings"
)

// Suit represents a card suit. The wire encoding uses the single letters
// H, D, C and S.
type Suit string

const (
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Spades   Suit = "S"
)

// Rank represents a card rank by its numeric game value: 2 through 10 at
// face value, then jack 11, queen 12, king 13 and ace 14.
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// String returns the rank token used on the wire: the number for 2-10,
// J, Q, K or A for the faces.
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card represents a playing card.
type Card struct {
	rank Rank
	suit Suit
}

// NewCard creates a card with the given rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{rank: rank, suit: suit}
}

// Rank returns the card's rank.
func (c Card) Rank() Rank {
	return c.rank
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return c.suit
}

// Value returns the numeric value used for play comparisons.
func (c Card) Value() int {
	return int(c.rank)
}

// String returns the wire token for the card, rank then suit letter,
// e.g. "3H", "10D", "AS".
func (c Card) String() string {
	return c.rank.String() + string(c.suit)
}

// ParseCard decodes a wire token into a card. Parsing is strict: the rank
// must be 2-10, J, Q, K or A and the suit must be one of H, D, C, S.
func ParseCard(token string) (Card, error) {
	if len(token) < 2 {
		return Card{}, fmt.Errorf("invalid card token %q", token)
	}

	suit := Suit(token[len(token)-1])
	switch suit {
	case Hearts, Diamonds, Clubs, Spades:
	default:
		return Card{}, fmt.Errorf("invalid suit in card token %q", token)
	}

	var rank Rank
	switch rankStr := token[:len(token)-1]; rankStr {
	case "2":
		rank = Two
	case "3":
		rank = Three
	case "4":
		rank = Four
	case "5":
		rank = Five
	case "6":
		rank = Six
	case "7":
		rank = Seven
	case "8":
		rank = Eight
	case "9":
		rank = Nine
	case "10":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank in card token %q", token)
	}

	return Card{rank: rank, suit: suit}, nil
}

// ParseCards decodes a comma separated list of wire tokens. It fails on the
// first invalid token and rejects an empty list.
func ParseCards(list string) ([]Card, error) {
	if list == "" {
		return nil, fmt.Errorf("empty card list")
	}
	tokens := strings.Split(list, ",")
	cards := make([]Card, 0, len(tokens))
	for _, tok := range tokens {
		c, err := ParseCard(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// FormatCards renders cards as the comma separated wire list, e.g.
// "3H,10D,AS". An empty slice renders as "".
func FormatCards(cards []Card) string {
	if len(cards) == 0 {
		return ""
	}
	tokens := make([]string, len(cards))
	for i, c := range cards {
		tokens[i] = c.String()
	}
	return strings.Join(tokens, ",")
}
