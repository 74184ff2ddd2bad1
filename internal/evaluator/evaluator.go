// Package evaluator ranks poker hands using bitmask arithmetic.
// A hand is a bitfield of up to 7 cards; evaluation derives rank and
// suit masks from it and packs the result into a comparable HandRank.
package evaluator

import (
	"math/bits"

	"github.com/lox/oddsengine/internal/deck"
)

// Hand is a bitfield representing up to 7 cards.
// Bit position = suit*13 + (rank-2).
type Hand uint64

// NewHand builds a Hand bitfield from cards.
func NewHand(cards []deck.Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= 1 << (int(c.Suit)*13 + int(c.Rank-deck.Two))
	}
	return h
}

// suitMask returns a 13-bit mask of ranks present for one suit.
func suitMask(h Hand, suit int) uint16 {
	return uint16((uint64(h) >> (suit * 13)) & 0x1FFF)
}

// rankMask returns a 13-bit mask of all ranks present in the hand.
func rankMask(h Hand) uint16 {
	return suitMask(h, 0) | suitMask(h, 1) | suitMask(h, 2) | suitMask(h, 3)
}

// straightHigh returns the high rank of the best straight in a rank
// mask, or 0 if there is none. The wheel (A-5) reports 5.
func straightHigh(ranks uint16) int {
	// A-K-Q-J-T down to 6-5-4-3-2
	mask := uint16(0x1F00)
	for high := 14; high >= 6; high-- {
		if ranks&mask == mask {
			return high
		}
		mask >>= 1
	}
	// wheel: A,2,3,4,5
	if ranks&0x100F == 0x100F {
		return 5
	}
	return 0
}

// topRanks returns up to count ranks present in the mask, highest first.
func topRanks(ranks uint16, count int) []int {
	out := make([]int, 0, count)
	for bit := 12; bit >= 0 && len(out) < count; bit-- {
		if ranks&(1<<bit) != 0 {
			out = append(out, bit+2)
		}
	}
	return out
}

// pack encodes a category and its tiebreak ranks (highest significance
// first) into a single comparable value.
func pack(category int, ranks ...int) HandRank {
	v := category << 20
	shift := 16
	for _, r := range ranks {
		v |= r << shift
		shift -= 4
	}
	return HandRank(v)
}

// Evaluate ranks a hand of 5 to 7 cards.
func Evaluate(h Hand) HandRank {
	ranks := rankMask(h)

	flushSuit := -1
	for suit := 0; suit < 4; suit++ {
		if bits.OnesCount16(suitMask(h, suit)) >= 5 {
			flushSuit = suit
			break
		}
	}

	if flushSuit >= 0 {
		if high := straightHigh(suitMask(h, flushSuit)); high != 0 {
			return pack(StraightFlush, high)
		}
	}

	// Rank multiplicities
	var quad, trip1, trip2, pair1, pair2 int
	for bit := 12; bit >= 0; bit-- {
		if ranks&(1<<bit) == 0 {
			continue
		}
		rank := bit + 2
		count := 0
		for suit := 0; suit < 4; suit++ {
			if suitMask(h, suit)&(1<<bit) != 0 {
				count++
			}
		}
		switch count {
		case 4:
			quad = rank
		case 3:
			if trip1 == 0 {
				trip1 = rank
			} else if trip2 == 0 {
				trip2 = rank
			}
		case 2:
			if pair1 == 0 {
				pair1 = rank
			} else if pair2 == 0 {
				pair2 = rank
			}
		}
	}

	if quad != 0 {
		kickers := ranksExcept(ranks, 1, quad)
		return pack(FourOfAKind, quad, kickers[0])
	}

	if trip1 != 0 && (pair1 != 0 || trip2 != 0) {
		pair := pair1
		// a second trip outranks any pair as the filler
		if trip2 > pair {
			pair = trip2
		}
		return pack(FullHouse, trip1, pair)
	}

	if flushSuit >= 0 {
		top := topRanks(suitMask(h, flushSuit), 5)
		return pack(Flush, top...)
	}

	if high := straightHigh(ranks); high != 0 {
		return pack(Straight, high)
	}

	if trip1 != 0 {
		kickers := ranksExcept(ranks, 2, trip1)
		return pack(ThreeOfAKind, trip1, kickers[0], kickers[1])
	}

	if pair2 != 0 {
		kickers := ranksExcept(ranks, 1, pair1, pair2)
		return pack(TwoPair, pair1, pair2, kickers[0])
	}

	if pair1 != 0 {
		kickers := ranksExcept(ranks, 3, pair1)
		return pack(OnePair, pair1, kickers[0], kickers[1], kickers[2])
	}

	return pack(HighCard, topRanks(ranks, 5)...)
}

// ranksExcept returns up to count ranks present in the mask, highest
// first, skipping the excluded ranks.
func ranksExcept(ranks uint16, count int, exclude ...int) []int {
	out := make([]int, 0, count)
	for bit := 12; bit >= 0 && len(out) < count; bit-- {
		if ranks&(1<<bit) == 0 {
			continue
		}
		rank := bit + 2
		skip := false
		for _, ex := range exclude {
			if rank == ex {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, rank)
		}
	}
	return out
}

// Evaluate7 ranks a 7-card hand given as cards.
func Evaluate7(cards []deck.Card) HandRank {
	return Evaluate(NewHand(cards))
}

// EvaluateOmaha ranks the best Omaha hand: exactly two of the four hole
// cards combined with exactly three of the five board cards.
func EvaluateOmaha(hole []deck.Card, board []deck.Card) HandRank {
	var best HandRank
	five := make([]deck.Card, 5)
	for i := 0; i < len(hole)-1; i++ {
		for j := i + 1; j < len(hole); j++ {
			five[0], five[1] = hole[i], hole[j]
			for a := 0; a < len(board)-2; a++ {
				for b := a + 1; b < len(board)-1; b++ {
					for c := b + 1; c < len(board); c++ {
						five[2], five[3], five[4] = board[a], board[b], board[c]
						if rank := Evaluate(NewHand(five)); rank > best {
							best = rank
						}
					}
				}
			}
		}
	}
	return best
}
