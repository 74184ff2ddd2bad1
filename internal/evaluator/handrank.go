package evaluator

// Hand categories (higher number = stronger hand)
const (
	HighCard = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// HandRank represents a poker hand ranking with embedded tiebreaks.
// Higher values are stronger hands.
type HandRank int

// Category returns the hand category (HighCard..StraightFlush).
func (h HandRank) Category() int {
	return int(h) >> 20
}

// Compare returns 1 if h is stronger, -1 if other is stronger, 0 if equal.
func (h HandRank) Compare(other HandRank) int {
	if h > other {
		return 1
	} else if h < other {
		return -1
	}
	return 0
}

// String returns the readable name of the hand category
func (h HandRank) String() string {
	switch h.Category() {
	case StraightFlush:
		return "Straight Flush"
	case FourOfAKind:
		return "Four of a Kind"
	case FullHouse:
		return "Full House"
	case Flush:
		return "Flush"
	case Straight:
		return "Straight"
	case ThreeOfAKind:
		return "Three of a Kind"
	case TwoPair:
		return "Two Pair"
	case OnePair:
		return "One Pair"
	case HighCard:
		return "High Card"
	default:
		return "Unknown"
	}
}
