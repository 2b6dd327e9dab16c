package gamba

import (
	"math/rand"
	"testing"
)

func newStartedGame(t *testing.T, seed int64, names ...string) *Game {
	t.Helper()
	g := NewGame(rand.New(rand.NewSource(seed)))
	for _, name := range names {
		if err := g.AddPlayer(name); err != nil {
			t.Fatalf("AddPlayer(%s): %v", name, err)
		}
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return g
}

// rig replaces a seat's cards so a scenario does not depend on the shuffle.
func rig(t *testing.T, g *Game, name string, hand, reserves []Card) {
	t.Helper()
	i := g.seatOf(name)
	if i < 0 {
		t.Fatalf("no seat for %s", name)
	}
	g.seats[i].hand = append([]Card(nil), hand...)
	g.seats[i].reserves = append([]Card(nil), reserves...)
}

func drainDeck(g *Game) {
	for {
		if _, ok := g.deck.Draw(); !ok {
			return
		}
	}
}

func totalCards(g *Game) int {
	total := g.deck.Size() + len(g.discard) + len(g.burned)
	for _, st := range g.seats {
		total += len(st.hand) + len(st.reserves)
	}
	return total
}

func TestNewGameIsWaiting(t *testing.T) {
	g := NewGame(rand.New(rand.NewSource(1)))
	if g.Phase() != PhaseWaiting {
		t.Fatalf("phase = %v, want waiting", g.Phase())
	}
	if g.CurrentPlayer() != "" {
		t.Errorf("CurrentPlayer = %q before seating", g.CurrentPlayer())
	}
	if err := g.Start(); err == nil {
		t.Error("Start succeeded with no players")
	}
}

func TestAddPlayer(t *testing.T) {
	g := NewGame(rand.New(rand.NewSource(1)))
	if err := g.AddPlayer("Alice"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := g.AddPlayer("Alice"); err == nil {
		t.Error("duplicate seat accepted")
	}
	if err := g.Start(); err == nil {
		t.Error("Start succeeded with one player")
	}

	if err := g.AddPlayer("Bob"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.AddPlayer("Carol"); err == nil {
		t.Error("seat added after start")
	}
	if err := g.Start(); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestRemovePlayer(t *testing.T) {
	g := NewGame(rand.New(rand.NewSource(1)))
	g.AddPlayer("Alice")
	g.AddPlayer("Bob")

	if err := g.RemovePlayer("Bob"); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	if g.Seated("Bob") {
		t.Error("Bob still seated after removal")
	}
	if err := g.RemovePlayer("Bob"); err == nil {
		t.Error("removed an unseated player")
	}

	g.AddPlayer("Bob")
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.RemovePlayer("Alice"); err == nil {
		t.Error("seat removed after start")
	}
}

func TestStartDeals(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")

	if g.Phase() != PhasePlaying {
		t.Fatalf("phase = %v, want playing", g.Phase())
	}
	for _, name := range []string{"Alice", "Bob"} {
		if n := g.HandCount(name); n != HandSize {
			t.Errorf("%s hand = %d, want %d", name, n, HandSize)
		}
		if n := g.ReserveCount(name); n != ReserveSize {
			t.Errorf("%s reserves = %d, want %d", name, n, ReserveSize)
		}
	}
	if g.DeckSize() != 52-2*(HandSize+ReserveSize) {
		t.Errorf("deck = %d, want 40", g.DeckSize())
	}
	if g.DiscardSize() != 0 {
		t.Errorf("discard starts at %d, want 0", g.DiscardSize())
	}
	if g.CurrentPlayer() != "Alice" {
		t.Errorf("first turn = %q, want Alice", g.CurrentPlayer())
	}
	if g.MustPlayLow() {
		t.Error("constraint set at start")
	}
	if totalCards(g) != 52 {
		t.Errorf("total cards = %d", totalCards(g))
	}
}

func TestPlayOnEmptyPileAndAdvance(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")

	card := g.Hand("Alice")[0]
	if res := g.PlayCards("Alice", []Card{card}); res != PlaySuccess {
		t.Fatalf("play on empty pile = %v", res)
	}
	if g.CurrentPlayer() != "Bob" {
		t.Errorf("turn = %q, want Bob", g.CurrentPlayer())
	}
	if totalCards(g) != 52 {
		t.Errorf("total cards = %d", totalCards(g))
	}
}

func TestPlayOutOfTurn(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")

	if res := g.PlayCards("Bob", []Card{g.Hand("Bob")[0]}); res != PlayInvalidPlayer {
		t.Errorf("out of turn play = %v, want invalid_player", res)
	}
	if res := g.PlayCards("Eve", cards(t, "3H")); res != PlayInvalidPlayer {
		t.Errorf("stranger play = %v, want invalid_player", res)
	}
	if g.CurrentPlayer() != "Alice" {
		t.Errorf("turn moved to %q", g.CurrentPlayer())
	}
}

func TestPlayRejectsCardsNotHeld(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "3H"), nil)

	if res := g.PlayCards("Alice", cards(t, "4D")); res != PlayInvalidCard {
		t.Errorf("unheld card = %v, want invalid_card", res)
	}
	if g.HandCount("Alice") != 1 || g.DiscardSize() != 0 {
		t.Error("rejected play mutated state")
	}
	if g.CurrentPlayer() != "Alice" {
		t.Error("rejected play advanced turn")
	}
}

func TestPlayRejectsMixedRanks(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "3H", "4H"), nil)

	if res := g.PlayCards("Alice", cards(t, "3H", "4H")); res != PlayInvalidCard {
		t.Errorf("mixed ranks = %v, want invalid_card", res)
	}
}

func TestPlayRejectsDuplicateCards(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "3H", "5D"), nil)

	if res := g.PlayCards("Alice", cards(t, "3H", "3H")); res != PlayInvalidCard {
		t.Errorf("duplicated card = %v, want invalid_card", res)
	}
}

func TestPlayValueComparison(t *testing.T) {
	cases := []struct {
		card string
		want PlayResult
	}{
		{"8H", PlayInvalidCard}, // below top
		{"9H", PlaySuccess},     // equal value plays
		{"JH", PlaySuccess},     // above top
	}
	for _, tc := range cases {
		g := newStartedGame(t, 42, "Alice", "Bob")
		rig(t, g, "Alice", cards(t, tc.card), cards(t, "KS"))
		g.discard = cards(t, "9D")

		if res := g.PlayCards("Alice", cards(t, tc.card)); res != tc.want {
			t.Errorf("play %s on 9D = %v, want %v", tc.card, res, tc.want)
		}
	}
}

func TestWildTwo(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "2H"), cards(t, "KS"))
	rig(t, g, "Bob", cards(t, "3D"), cards(t, "KD"))
	g.discard = cards(t, "AS")

	// A two lands on an ace.
	if res := g.PlayCards("Alice", cards(t, "2H")); res != PlaySuccess {
		t.Fatalf("two on ace = %v", res)
	}
	// And anything lands on a two.
	if res := g.PlayCards("Bob", cards(t, "3D")); res != PlaySuccess {
		t.Fatalf("three on two = %v", res)
	}
}

func TestSevenConstraint(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "7H"), cards(t, "KS"))
	rig(t, g, "Bob", cards(t, "9D", "10C", "5S"), cards(t, "KD"))

	if res := g.PlayCards("Alice", cards(t, "7H")); res != PlaySuccess {
		t.Fatalf("seven play = %v", res)
	}
	if !g.MustPlayLow() {
		t.Fatal("seven did not set the low constraint")
	}

	if res := g.PlayCards("Bob", cards(t, "9D")); res != PlayInvalidCard {
		t.Errorf("nine under constraint = %v, want invalid_card", res)
	}
	// The constraint is checked before the ten's burn privilege.
	if res := g.PlayCards("Bob", cards(t, "10C")); res != PlayInvalidCard {
		t.Errorf("ten under constraint = %v, want invalid_card", res)
	}
	if !g.MustPlayLow() {
		t.Error("rejected plays cleared the constraint")
	}

	if res := g.PlayCards("Bob", cards(t, "5S")); res != PlaySuccess {
		t.Fatalf("five under constraint = %v", res)
	}
	if g.MustPlayLow() {
		t.Error("constraint survived a non-seven play")
	}
}

func TestSevenOnSevenKeepsConstraint(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "7H"), cards(t, "KS"))
	g.discard = cards(t, "7D")
	g.mustPlayLow = true

	if res := g.PlayCards("Alice", cards(t, "7H")); res != PlaySuccess {
		t.Fatalf("seven on seven = %v", res)
	}
	if !g.MustPlayLow() {
		t.Error("constraint dropped after another seven")
	}
}

func TestTenBurnsPile(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "10H"), cards(t, "KS"))
	g.discard = cards(t, "3H", "5D", "9C")

	if res := g.PlayCards("Alice", cards(t, "10H")); res != PlaySuccess {
		t.Fatalf("ten play = %v", res)
	}
	if g.DiscardSize() != 0 {
		t.Errorf("discard = %d after burn, want 0", g.DiscardSize())
	}
	if len(g.burned) != 4 {
		t.Errorf("burned = %d, want the pile plus the ten", len(g.burned))
	}
	if _, ok := g.TopDiscard(); ok {
		t.Error("top card present after burn")
	}
	if g.MustPlayLow() {
		t.Error("constraint set after burn")
	}
	if g.CurrentPlayer() != "Bob" {
		t.Error("burn did not advance the turn")
	}
}

func TestMultiCardPlayAndRefill(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "3H", "3D", "3C", "8S"), cards(t, "KS"))

	if res := g.PlayCards("Alice", cards(t, "3H", "3D", "3C")); res != PlaySuccess {
		t.Fatalf("triple play = %v", res)
	}
	if g.DiscardSize() != 3 {
		t.Errorf("discard = %d, want 3", g.DiscardSize())
	}
	// One card left, refilled back up to three from the deck.
	if g.HandCount("Alice") != HandSize {
		t.Errorf("hand = %d after refill, want %d", g.HandCount("Alice"), HandSize)
	}
}

func TestNoRefillWhenDeckEmpty(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	drainDeck(g)
	rig(t, g, "Alice", cards(t, "3H", "4D", "5C"), cards(t, "KS"))

	if res := g.PlayCards("Alice", cards(t, "3H")); res != PlaySuccess {
		t.Fatalf("play = %v", res)
	}
	if g.HandCount("Alice") != 2 {
		t.Errorf("hand = %d, want 2 with empty deck", g.HandCount("Alice"))
	}
}

func TestWinOnLastCard(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	drainDeck(g)
	rig(t, g, "Alice", cards(t, "9H"), nil)
	g.discard = cards(t, "3D")

	if res := g.PlayCards("Alice", cards(t, "9H")); res != PlayGameOver {
		t.Fatalf("winning play = %v, want game_over", res)
	}
	if g.Winner() != "Alice" {
		t.Errorf("winner = %q", g.Winner())
	}
	if g.Phase() != PhaseFinished {
		t.Errorf("phase = %v, want finished", g.Phase())
	}
	// No further plays once finished.
	if res := g.PlayCards("Bob", []Card{g.Hand("Bob")[0]}); res != PlayInvalidPlayer {
		t.Errorf("play after finish = %v, want invalid_player", res)
	}
}

func TestReservesBlockWin(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	drainDeck(g)
	rig(t, g, "Alice", cards(t, "9H"), cards(t, "KS"))
	g.discard = cards(t, "3D")

	if res := g.PlayCards("Alice", cards(t, "9H")); res != PlaySuccess {
		t.Fatalf("play = %v", res)
	}
	if g.Winner() != "" {
		t.Errorf("winner set with reserves remaining: %q", g.Winner())
	}
	if g.CurrentPlayer() != "Bob" {
		t.Error("turn did not advance")
	}
}

func TestBlindReserveValid(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", nil, cards(t, "9H", "4D"))
	g.discard = cards(t, "5C")

	if res := g.PlayReserve("Alice"); res != PlaySuccess {
		t.Fatalf("blind reserve = %v", res)
	}
	top, ok := g.TopDiscard()
	if !ok || top.String() != "9H" {
		t.Errorf("top = %v, want 9H", top)
	}
	if g.ReserveCount("Alice") != 1 {
		t.Errorf("reserves = %d, want 1", g.ReserveCount("Alice"))
	}
	if g.CurrentPlayer() != "Bob" {
		t.Error("turn did not advance")
	}
}

func TestBlindReserveInvalid(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", nil, cards(t, "3H"))
	g.discard = cards(t, "9D", "KC")

	if res := g.PlayReserve("Alice"); res != PlayPickupRequired {
		t.Fatalf("blind reserve = %v, want pickup_required", res)
	}
	// The revealed card and the whole pile join the hand.
	if g.HandCount("Alice") != 3 {
		t.Errorf("hand = %d, want 3", g.HandCount("Alice"))
	}
	if g.DiscardSize() != 0 {
		t.Errorf("discard = %d, want 0", g.DiscardSize())
	}
	if g.ReserveCount("Alice") != 0 {
		t.Error("reserve card not consumed")
	}
	if g.CurrentPlayer() != "Bob" {
		t.Error("failed reserve did not advance the turn")
	}
	if g.MustPlayLow() {
		t.Error("constraint survived a pickup")
	}
}

func TestBlindReserveNeedsEmptyHand(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "3H"), cards(t, "4D"))

	if res := g.PlayReserve("Alice"); res != PlayInvalidCard {
		t.Errorf("reserve with cards in hand = %v, want invalid_card", res)
	}
	if g.ReserveCount("Alice") != 1 {
		t.Error("reserve consumed by rejected attempt")
	}
}

func TestBlindReserveOutOfTurn(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Bob", nil, cards(t, "4D"))

	if res := g.PlayReserve("Bob"); res != PlayInvalidPlayer {
		t.Errorf("reserve out of turn = %v, want invalid_player", res)
	}
}

func TestBlindReserveOnEmptyPile(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", nil, cards(t, "3H", "KD"))

	if res := g.PlayReserve("Alice"); res != PlaySuccess {
		t.Fatalf("reserve on empty pile = %v", res)
	}
	top, ok := g.TopDiscard()
	if !ok || top.String() != "3H" {
		t.Errorf("top = %v, want 3H", top)
	}
}

func TestBlindReserveSevenSetsConstraint(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", nil, cards(t, "7H", "KD"))
	g.discard = cards(t, "5D")

	if res := g.PlayReserve("Alice"); res != PlaySuccess {
		t.Fatalf("reserve seven = %v", res)
	}
	if !g.MustPlayLow() {
		t.Error("reserve seven did not set the constraint")
	}
}

func TestBlindReserveWins(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", nil, cards(t, "2H"))
	g.discard = cards(t, "KD")

	if res := g.PlayReserve("Alice"); res != PlayGameOver {
		t.Fatalf("winning reserve = %v, want game_over", res)
	}
	if g.Winner() != "Alice" {
		t.Errorf("winner = %q", g.Winner())
	}
}

func TestPickupPile(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	rig(t, g, "Alice", cards(t, "KD"), cards(t, "KS"))
	g.discard = cards(t, "7D", "7C")
	g.mustPlayLow = true

	if res := g.PickupPile("Alice"); res != PlaySuccess {
		t.Fatalf("pickup = %v", res)
	}
	if g.HandCount("Alice") != 3 {
		t.Errorf("hand = %d, want 3", g.HandCount("Alice"))
	}
	if g.DiscardSize() != 0 {
		t.Error("pile not emptied")
	}
	if g.MustPlayLow() {
		t.Error("constraint survived pickup")
	}
	if g.CurrentPlayer() != "Bob" {
		t.Error("pickup did not advance the turn")
	}
}

func TestPickupEmptyPile(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")

	if res := g.PickupPile("Alice"); res != PlayInvalidCard {
		t.Errorf("pickup of empty pile = %v, want invalid_card", res)
	}
	if g.CurrentPlayer() != "Alice" {
		t.Error("failed pickup advanced the turn")
	}
}

func TestPickupOutOfTurn(t *testing.T) {
	g := newStartedGame(t, 42, "Alice", "Bob")
	g.discard = cards(t, "3H")

	if res := g.PickupPile("Bob"); res != PlayInvalidPlayer {
		t.Errorf("pickup out of turn = %v, want invalid_player", res)
	}
}

// TestCardConservation plays games to completion under a simple policy and
// checks that the 52 cards are always fully accounted for across deck,
// discard, hands and reserves.
func TestCardConservation(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		g := newStartedGame(t, seed, "Alice", "Bob")

		for step := 0; step < 500 && g.Phase() == PhasePlaying; step++ {
			if total := totalCards(g); total != 52 {
				t.Fatalf("seed %d step %d: total cards = %d", seed, step, total)
			}

			cur := g.CurrentPlayer()
			hand := g.Hand(cur)
			if len(hand) == 0 {
				g.PlayReserve(cur)
				continue
			}

			played := false
			for _, c := range hand {
				res := g.PlayCards(cur, []Card{c})
				if res == PlaySuccess || res == PlayGameOver {
					played = true
					break
				}
			}
			if !played {
				if res := g.PickupPile(cur); res != PlaySuccess {
					t.Fatalf("seed %d step %d: stuck, pickup = %v", seed, step, res)
				}
			}
		}

		if total := totalCards(g); total != 52 {
			t.Fatalf("seed %d final: total cards = %d", seed, total)
		}
		if g.Phase() == PhaseFinished && g.Winner() == "" {
			t.Errorf("seed %d: finished without a winner", seed)
		}
	}
}
