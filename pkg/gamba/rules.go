package gamba

// Special ranks. Twos are wild, sevens force the next play low and tens
// burn the discard pile.
const (
	wildRank = Two
	lowRank  = Seven
	burnRank = Ten
)

// lowThreshold is the highest value playable while a seven constrains the
// pile.
const lowThreshold = 7

// canPlayOn reports whether card may land on top under the current
// constraint. The checks are ordered: a wild two always plays and a wild
// two on top accepts anything; the seven's low constraint is tested before
// the ten's burn privilege, so a ten cannot burn a constrained pile.
func canPlayOn(card, top Card, mustPlayLow bool) bool {
	if card.rank == wildRank {
		return true
	}
	if top.rank == wildRank {
		return true
	}
	if mustPlayLow {
		return card.Value() <= lowThreshold
	}
	if card.rank == burnRank {
		return true
	}
	return card.Value() >= top.Value()
}

// sameRank reports whether every card shares one rank. Empty sets do not
// qualify.
func sameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards[1:] {
		if c.rank != cards[0].rank {
			return false
		}
	}
	return true
}

// validPlay reports whether the card set may be played on the discard pile.
// An empty pile accepts any same-rank set.
func validPlay(cards []Card, top Card, pileEmpty, mustPlayLow bool) bool {
	if !sameRank(cards) {
		return false
	}
	if pileEmpty {
		return true
	}
	for _, c := range cards {
		if !canPlayOn(c, top, mustPlayLow) {
			return false
		}
	}
	return true
}
