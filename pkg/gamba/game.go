package gamba

import (
	"fmt"
	"math/rand"

	"github.com/vctt94/gambaserver/pkg/statemachine"
)

// Deal sizes and the seat minimum for starting a game.
const (
	HandSize    = 3
	ReserveSize = 3
	MinPlayers  = 2
)

// Phase identifies where a game is in its lifecycle.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhaseFinished
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PlayResult reports the outcome of a play attempt.
type PlayResult int

const (
	// PlaySuccess means the play stood and the turn advanced.
	PlaySuccess PlayResult = iota
	// PlayInvalidPlayer means the caller is not seated, it is not their
	// turn, or the game is not in progress.
	PlayInvalidPlayer
	// PlayInvalidCard means the card set was rejected: wrong rank mix,
	// cards not held, a pile constraint lost to, or a bad pickup.
	PlayInvalidCard
	// PlayPickupRequired means a blind reserve card failed the pile and
	// the player absorbed the discard pile instead. The turn advanced and
	// the reserve card was consumed.
	PlayPickupRequired
	// PlayGameOver means the play stood and emptied the player's cards,
	// winning the game.
	PlayGameOver
)

// String returns the result name.
func (r PlayResult) String() string {
	switch r {
	case PlaySuccess:
		return "success"
	case PlayInvalidPlayer:
		return "invalid_player"
	case PlayInvalidCard:
		return "invalid_card"
	case PlayPickupRequired:
		return "pickup_required"
	case PlayGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// seat holds one player's cards.
type seat struct {
	name     string
	hand     []Card
	reserves []Card
}

// Game is the card engine for a single room. It holds no lock and performs
// no I/O; callers serialize access through the room registry.
type Game struct {
	deck        *Deck
	discard     []Card
	burned      []Card
	seats       []*seat
	current     int
	forward     bool
	mustPlayLow bool
	winner      string
	dealt       bool

	machine *statemachine.Machine[Game]
}

// Game state functions following Rob Pike's pattern. Each returns the state
// to occupy after the latest mutation; the mutating methods call Step once
// per change.

func gameWaiting(g *Game) statemachine.StateFn[Game] {
	if g.dealt && len(g.seats) >= MinPlayers {
		return gamePlaying
	}
	return gameWaiting
}

func gamePlaying(g *Game) statemachine.StateFn[Game] {
	if g.winner != "" {
		return gameFinished
	}
	return gamePlaying
}

func gameFinished(g *Game) statemachine.StateFn[Game] {
	return gameFinished
}

// NewGame creates an empty game. If rng is nil the deck seeds itself from
// the clock; tests pass a seeded rng for reproducible deals.
func NewGame(rng *rand.Rand) *Game {
	g := &Game{
		deck:    NewDeck(rng),
		forward: true,
	}
	g.machine = statemachine.New(g, gameWaiting)
	return g
}

// Phase returns the lifecycle phase the state machine currently occupies.
func (g *Game) Phase() Phase {
	switch fmt.Sprintf("%p", g.machine.Current()) {
	case fmt.Sprintf("%p", gamePlaying):
		return PhasePlaying
	case fmt.Sprintf("%p", gameFinished):
		return PhaseFinished
	default:
		return PhaseWaiting
	}
}

// AddPlayer seats a player. Seating is only possible before the deal.
func (g *Game) AddPlayer(name string) error {
	if g.Phase() != PhaseWaiting {
		return fmt.Errorf("game already started")
	}
	if g.seatOf(name) >= 0 {
		return fmt.Errorf("player %s already seated", name)
	}
	g.seats = append(g.seats, &seat{name: name})
	return nil
}

// RemovePlayer unseats a player before the deal.
func (g *Game) RemovePlayer(name string) error {
	if g.Phase() != PhaseWaiting {
		return fmt.Errorf("game already started")
	}
	i := g.seatOf(name)
	if i < 0 {
		return fmt.Errorf("player %s not seated", name)
	}
	g.seats = append(g.seats[:i], g.seats[i+1:]...)
	return nil
}

// Start shuffles the deck and deals each seat three reserve cards then
// three hand cards, in seating order. The discard pile starts empty and
// the first seat acts first.
func (g *Game) Start() error {
	if g.Phase() != PhaseWaiting {
		return fmt.Errorf("game already started")
	}
	if len(g.seats) < MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", MinPlayers, len(g.seats))
	}

	g.deck.Shuffle()
	for _, st := range g.seats {
		for i := 0; i < ReserveSize; i++ {
			card, _ := g.deck.Draw()
			st.reserves = append(st.reserves, card)
		}
		for i := 0; i < HandSize; i++ {
			card, _ := g.deck.Draw()
			st.hand = append(st.hand, card)
		}
	}

	g.current = 0
	g.forward = true
	g.mustPlayLow = false
	g.dealt = true
	g.machine.Step()
	return nil
}

// PlayCards plays a same-rank card set from the acting player's hand.
func (g *Game) PlayCards(name string, cards []Card) PlayResult {
	if g.Phase() != PhasePlaying || !g.isTurn(name) {
		return PlayInvalidPlayer
	}
	if len(cards) == 0 {
		return PlayInvalidCard
	}

	st := g.seats[g.current]
	if !holdsAll(st.hand, cards) {
		return PlayInvalidCard
	}
	top, ok := g.TopDiscard()
	if !validPlay(cards, top, !ok, g.mustPlayLow) {
		return PlayInvalidCard
	}

	removeCards(&st.hand, cards)
	g.discard = append(g.discard, cards...)
	g.applyEffects(cards[len(cards)-1])
	g.refill(st)

	if len(st.hand) == 0 && len(st.reserves) == 0 {
		g.winner = st.name
		g.machine.Step()
		return PlayGameOver
	}
	g.advance()
	return PlaySuccess
}

// PlayReserve plays the player's next reserve card face down, legal only
// with an empty hand. The reserve card is consumed either way: a valid
// card plays with full effects, an invalid one joins the player's hand
// together with the entire discard pile and the turn still advances.
func (g *Game) PlayReserve(name string) PlayResult {
	if g.Phase() != PhasePlaying || !g.isTurn(name) {
		return PlayInvalidPlayer
	}

	st := g.seats[g.current]
	if len(st.hand) != 0 || len(st.reserves) == 0 {
		return PlayInvalidCard
	}

	card := st.reserves[0]
	st.reserves = st.reserves[1:]

	top, ok := g.TopDiscard()
	if !ok || canPlayOn(card, top, g.mustPlayLow) {
		g.discard = append(g.discard, card)
		g.applyEffects(card)
		if len(st.hand) == 0 && len(st.reserves) == 0 {
			g.winner = st.name
			g.machine.Step()
			return PlayGameOver
		}
		g.advance()
		return PlaySuccess
	}

	// The revealed card loses: the player takes it and the whole pile.
	st.hand = append(st.hand, card)
	st.hand = append(st.hand, g.discard...)
	g.discard = g.discard[:0]
	g.mustPlayLow = false
	g.advance()
	return PlayPickupRequired
}

// PickupPile moves the whole discard pile into the acting player's hand
// and advances the turn. Picking up an empty pile is rejected.
func (g *Game) PickupPile(name string) PlayResult {
	if g.Phase() != PhasePlaying || !g.isTurn(name) {
		return PlayInvalidPlayer
	}
	if len(g.discard) == 0 {
		return PlayInvalidCard
	}

	st := g.seats[g.current]
	st.hand = append(st.hand, g.discard...)
	g.discard = g.discard[:0]
	g.mustPlayLow = false
	g.advance()
	return PlaySuccess
}

// applyEffects applies the played rank's special effect. A ten burns the
// pile, the played cards included; a seven constrains the next play low;
// any other rank clears the constraint. Burned cards leave circulation
// for the rest of the game.
func (g *Game) applyEffects(played Card) {
	if played.rank == burnRank {
		g.burned = append(g.burned, g.discard...)
		g.discard = g.discard[:0]
	}
	g.mustPlayLow = played.rank == lowRank
}

// refill draws the acting player's hand back up to three while the deck
// lasts. Once the deck is empty hands shrink for good.
func (g *Game) refill(st *seat) {
	for len(st.hand) < HandSize {
		card, ok := g.deck.Draw()
		if !ok {
			return
		}
		st.hand = append(st.hand, card)
	}
}

// advance moves the turn to the next seat in the current direction.
func (g *Game) advance() {
	if len(g.seats) == 0 {
		return
	}
	if g.forward {
		g.current = (g.current + 1) % len(g.seats)
	} else {
		g.current = (g.current - 1 + len(g.seats)) % len(g.seats)
	}
}

func (g *Game) seatOf(name string) int {
	for i, st := range g.seats {
		if st.name == name {
			return i
		}
	}
	return -1
}

func (g *Game) isTurn(name string) bool {
	return len(g.seats) > 0 && g.seats[g.current].name == name
}

// holdsAll reports whether hand contains every card in cards, counting
// duplicates, so a client cannot play two copies of a card it holds once.
func holdsAll(hand, cards []Card) bool {
	remaining := make(map[Card]int, len(hand))
	for _, c := range hand {
		remaining[c]++
	}
	for _, c := range cards {
		if remaining[c] == 0 {
			return false
		}
		remaining[c]--
	}
	return true
}

// removeCards deletes one instance of each card from hand.
func removeCards(hand *[]Card, cards []Card) {
	for _, c := range cards {
		for i, h := range *hand {
			if h == c {
				*hand = append((*hand)[:i], (*hand)[i+1:]...)
				break
			}
		}
	}
}

// Players returns the seat names in seating order.
func (g *Game) Players() []string {
	names := make([]string, len(g.seats))
	for i, st := range g.seats {
		names[i] = st.name
	}
	return names
}

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int {
	return len(g.seats)
}

// Seated reports whether name occupies a seat.
func (g *Game) Seated(name string) bool {
	return g.seatOf(name) >= 0
}

// CurrentPlayer returns the acting seat's name, or "" with no seats.
func (g *Game) CurrentPlayer() string {
	if len(g.seats) == 0 {
		return ""
	}
	return g.seats[g.current].name
}

// Hand returns a copy of the player's hand, nil for unknown names.
func (g *Game) Hand(name string) []Card {
	i := g.seatOf(name)
	if i < 0 {
		return nil
	}
	return append([]Card(nil), g.seats[i].hand...)
}

// HandCount returns the player's hand size, 0 for unknown names.
func (g *Game) HandCount(name string) int {
	i := g.seatOf(name)
	if i < 0 {
		return 0
	}
	return len(g.seats[i].hand)
}

// ReserveCount returns the player's remaining face-down reserves.
func (g *Game) ReserveCount(name string) int {
	i := g.seatOf(name)
	if i < 0 {
		return 0
	}
	return len(g.seats[i].reserves)
}

// DeckSize returns the cards remaining in the draw deck.
func (g *Game) DeckSize() int {
	return g.deck.Size()
}

// DiscardSize returns the discard pile size.
func (g *Game) DiscardSize() int {
	return len(g.discard)
}

// TopDiscard returns the top discard card; ok is false on an empty pile.
func (g *Game) TopDiscard() (Card, bool) {
	if len(g.discard) == 0 {
		return Card{}, false
	}
	return g.discard[len(g.discard)-1], true
}

// MustPlayLow reports whether a seven constrains the next play.
func (g *Game) MustPlayLow() bool {
	return g.mustPlayLow
}

// Winner returns the winner's name, or "" while the game runs.
func (g *Game) Winner() string {
	return g.winner
}
