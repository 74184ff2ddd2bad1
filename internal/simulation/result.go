package simulation

import (
	"time"

	"github.com/lox/oddsengine/internal/profile"
)

// PlayerResult holds one player's estimated outcome percentages. The
// three values sum to ~100 within rounding tolerance.
type PlayerResult struct {
	Profile *profile.Profile
	Win     float64
	Lose    float64
	Tie     float64
}

// FinalResult is the combined outcome of a completed run. It is built
// exactly once, after every worker has finished, and never mutated.
type FinalResult struct {
	Variant GameVariant
	Players []PlayerResult
	Trials  int // trials actually executed (>= requested, multiple of workers)
	Elapsed time.Duration
}

// combineResults averages per-worker percentages. Worker shares are
// equal by construction, so the plain arithmetic mean is exact.
func combineResults(variant GameVariant, profiles []*profile.Profile,
	workers []*worker, trials int, elapsed time.Duration) *FinalResult {

	players := make([]PlayerResult, len(profiles))
	for i, p := range profiles {
		players[i].Profile = p
		for _, w := range workers {
			win := 100 * float64(w.wins[i]) / float64(w.trials)
			tie := 100 * float64(w.ties[i]) / float64(w.trials)
			players[i].Win += win
			players[i].Tie += tie
			players[i].Lose += 100 - win - tie
		}
		players[i].Win /= float64(len(workers))
		players[i].Tie /= float64(len(workers))
		players[i].Lose /= float64(len(workers))
	}

	return &FinalResult{
		Variant: variant,
		Players: players,
		Trials:  trials,
		Elapsed: elapsed,
	}
}
