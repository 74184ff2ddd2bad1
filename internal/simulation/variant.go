package simulation

import "fmt"

// GameVariant selects the poker variant being simulated.
type GameVariant int

const (
	HoldEm GameVariant = iota
	Omaha
)

// HoleCards returns the number of hole cards dealt per player.
func (v GameVariant) HoleCards() int {
	switch v {
	case Omaha:
		return 4
	default:
		return 2
	}
}

// String returns the variant name.
func (v GameVariant) String() string {
	switch v {
	case HoldEm:
		return "holdem"
	case Omaha:
		return "omaha"
	default:
		return "unknown"
	}
}

func (v GameVariant) valid() bool {
	return v == HoldEm || v == Omaha
}

// ParseVariant parses a variant name ("holdem" or "omaha").
func ParseVariant(s string) (GameVariant, error) {
	switch s {
	case "holdem":
		return HoldEm, nil
	case "omaha":
		return Omaha, nil
	default:
		return 0, fmt.Errorf("%w: unknown game variant %q", ErrInvalidInput, s)
	}
}
