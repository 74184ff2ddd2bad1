// Package profile describes how a simulated player's hole cards are
// chosen: a fixed exact hand, a percentage range of starting hands, or
// fully random.
package profile

import (
	"fmt"
	rand "math/rand/v2"
	"strings"

	"github.com/lox/oddsengine/internal/deck"
)

// Kind tags the profile variant.
type Kind int

const (
	KindRandom Kind = iota
	KindExactCards
	KindRange
)

// String returns the readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRandom:
		return "random"
	case KindExactCards:
		return "exact"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Profile is a player's hole-card policy. Profiles are immutable after
// construction; the simulation identifies them by pointer.
type Profile struct {
	kind       Kind
	cards      []deck.Card
	percentage int
}

// Random returns a profile that samples any available hole cards.
func Random() *Profile {
	return &Profile{kind: KindRandom}
}

// ExactCards returns a profile with a fixed hand. Hand-size validation
// against the game variant happens when the profile joins a simulation.
func ExactCards(cards []deck.Card) *Profile {
	held := make([]deck.Card, len(cards))
	copy(held, cards)
	return &Profile{kind: KindExactCards, cards: held}
}

// Range returns a profile that samples from the top percentage of
// starting hands (1-100). A 100% range is equivalent to Random.
func Range(percentage int) *Profile {
	return &Profile{kind: KindRange, percentage: percentage}
}

// Kind returns the profile variant tag.
func (p *Profile) Kind() Kind {
	return p.kind
}

// Cards returns a copy of the fixed hand, or nil for non-exact profiles.
func (p *Profile) Cards() []deck.Card {
	if p.kind != KindExactCards {
		return nil
	}
	out := make([]deck.Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// Percentage returns the range percentage, or 0 for non-range profiles.
func (p *Profile) Percentage() int {
	if p.kind != KindRange {
		return 0
	}
	return p.percentage
}

// String returns a short description, e.g. "exact(AsKs)" or "range(25%)".
func (p *Profile) String() string {
	switch p.kind {
	case KindExactCards:
		var sb strings.Builder
		for _, c := range p.cards {
			sb.WriteString(c.String())
		}
		return fmt.Sprintf("exact(%s)", sb.String())
	case KindRange:
		return fmt.Sprintf("range(%d%%)", p.percentage)
	default:
		return "random"
	}
}

// SampleHole picks n hole cards for this profile from the available
// cards. Exact profiles never sample; their cards are removed from the
// deck before trials begin. Returns false if the deck is too short.
func (p *Profile) SampleHole(n int, available []deck.Card, rng *rand.Rand) ([]deck.Card, bool) {
	if len(available) < n {
		return nil, false
	}
	if p.kind == KindRange && n == 2 {
		return p.sampleRange(available, rng)
	}
	return sampleUniform(n, available, rng)
}

// sampleUniform picks n distinct cards without building a permutation.
func sampleUniform(n int, available []deck.Card, rng *rand.Rand) ([]deck.Card, bool) {
	if n == 2 {
		idx1 := rng.IntN(len(available))
		idx2 := rng.IntN(len(available) - 1)
		if idx2 >= idx1 {
			idx2++
		}
		return []deck.Card{available[idx1], available[idx2]}, true
	}

	picked := make([]deck.Card, 0, n)
	used := make(map[int]bool, n)
	for len(picked) < n {
		idx := rng.IntN(len(available))
		if !used[idx] {
			used[idx] = true
			picked = append(picked, available[idx])
		}
	}
	return picked, true
}

// sampleRange rejection-samples two cards until the combo falls inside
// the profile's starting-hand percentile, falling back to a uniform
// sample when the remaining deck cannot satisfy the range.
func (p *Profile) sampleRange(available []deck.Card, rng *rand.Rand) ([]deck.Card, bool) {
	const maxAttempts = 200
	for attempt := 0; attempt < maxAttempts; attempt++ {
		hand, ok := sampleUniform(2, available, rng)
		if !ok {
			return nil, false
		}
		if Percentile(hand[0], hand[1]) <= float64(p.percentage) {
			return hand, true
		}
	}
	return sampleUniform(2, available, rng)
}
