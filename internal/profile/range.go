package profile

import (
	"sort"
	"sync"

	"github.com/lox/oddsengine/internal/deck"
)

// The percentile table orders all 1326 two-card combos by a Chen-style
// preflop score. Percentile(a, b) is the share of combos at least as
// strong, so "top 25%" means Percentile <= 25.

var (
	tableOnce sync.Once
	pctTable  [52][52]float64
)

// Percentile returns the starting-hand percentile of a two-card combo
// in (0, 100]; lower is stronger.
func Percentile(a, b deck.Card) float64 {
	tableOnce.Do(buildTable)
	return pctTable[a.Index()][b.Index()]
}

func buildTable() {
	cards := deck.All()

	type combo struct {
		i, j  int
		score float64
	}
	combos := make([]combo, 0, 1326)
	for i := 0; i < len(cards)-1; i++ {
		for j := i + 1; j < len(cards); j++ {
			combos = append(combos, combo{
				i:     cards[i].Index(),
				j:     cards[j].Index(),
				score: chenScore(cards[i], cards[j]),
			})
		}
	}

	sort.Slice(combos, func(x, y int) bool {
		return combos[x].score > combos[y].score
	})

	// Equal scores share the percentile of the weakest member of the
	// tie, so a range boundary never splits a hand class.
	total := float64(len(combos))
	for lo := 0; lo < len(combos); {
		hi := lo
		for hi < len(combos) && combos[hi].score == combos[lo].score {
			hi++
		}
		pct := 100 * float64(hi) / total
		for k := lo; k < hi; k++ {
			pctTable[combos[k].i][combos[k].j] = pct
			pctTable[combos[k].j][combos[k].i] = pct
		}
		lo = hi
	}
}

// chenScore implements the Chen formula for preflop hand strength.
func chenScore(a, b deck.Card) float64 {
	high, low := a, b
	if low.Rank > high.Rank {
		high, low = low, high
	}

	score := rankPoints(high.Rank)

	if high.Rank == low.Rank {
		score *= 2
		if score < 5 {
			score = 5
		}
		return score
	}

	if high.Suit == low.Suit {
		score += 2
	}

	gap := int(high.Rank-low.Rank) - 1
	switch {
	case gap == 1:
		score -= 1
	case gap == 2:
		score -= 2
	case gap == 3:
		score -= 4
	case gap >= 4:
		score -= 5
	}

	// connector bonus for low straights
	if gap <= 1 && high.Rank < deck.Queen {
		score += 1
	}

	return score
}

func rankPoints(r deck.Rank) float64 {
	switch r {
	case deck.Ace:
		return 10
	case deck.King:
		return 8
	case deck.Queen:
		return 7
	case deck.Jack:
		return 6
	default:
		return float64(r) / 2
	}
}
