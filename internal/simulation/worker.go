package simulation

import (
	"context"
	rand "math/rand/v2"
	"sync/atomic"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/evaluator"
	"github.com/lox/oddsengine/internal/profile"
)

// worker executes one share of the simulation's trials. It owns its own
// RNG and scratch buffers; the only values shared with other goroutines
// are the atomic progress (written here, read by the aggregator) and
// the win/tie counters, which the supervisor reads only after the
// termination barrier has released.
type worker struct {
	index       int
	variant     GameVariant
	profiles    []*profile.Profile
	board       []deck.Card // set community cards, dealing order
	trials      int
	granularity int // percent step between progress recomputes
	rng         *rand.Rand
	notify      func() // coalesced progress tick to the aggregator

	progress atomic.Int32
	wins     []int
	ties     []int
}

// run executes the worker's trials. It returns ctx.Err() when the run
// is cancelled; the errgroup barrier is decremented on return either
// way, so the supervisor never waits on an interrupted worker.
func (w *worker) run(ctx context.Context) error {
	nPlayers := len(w.profiles)
	w.wins = make([]int, nPlayers)
	w.ties = make([]int, nPlayers)

	base := deck.NewSet(w.board)
	for _, p := range w.profiles {
		for _, c := range p.Cards() {
			base.Add(c)
		}
	}
	available := make([]deck.Card, 0, 52)
	for _, c := range deck.All() {
		if !base.Contains(c) {
			available = append(available, c)
		}
	}

	step := w.trials * w.granularity / 100
	if step < 1 {
		step = 1
	}

	holeSize := w.variant.HoleCards()
	holes := make([][]deck.Card, nPlayers)
	for i, p := range w.profiles {
		if p.Kind() == profile.KindExactCards {
			holes[i] = p.Cards()
		}
	}
	fullBoard := make([]deck.Card, 5)
	candidates := make([]deck.Card, 0, 52)
	ranks := make([]evaluator.HandRank, nPlayers)
	seven := make([]deck.Card, 7)

	for t := 0; t < w.trials; t++ {
		if t&0x3ff == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		w.playTrial(base, available, holeSize, holes, fullBoard, &candidates, ranks, seven)

		if (t+1)%step == 0 && t+1 < w.trials {
			w.progress.Store(int32((t + 1) * 100 / w.trials))
			w.notify()
		}
	}

	// 100 is stored only after every counter is final, so a worker at
	// 100 always has a readable result.
	w.progress.Store(100)
	w.notify()
	return nil
}

// playTrial simulates a single random showdown and updates the win/tie
// counters.
func (w *worker) playTrial(base deck.Set, available []deck.Card, holeSize int,
	holes [][]deck.Card, fullBoard []deck.Card, candidates *[]deck.Card,
	ranks []evaluator.HandRank, seven []deck.Card) {

	used := base

	// Deal sampled players first come first served from the remaining deck.
	for i, p := range w.profiles {
		if p.Kind() == profile.KindExactCards {
			continue
		}
		cand := (*candidates)[:0]
		for _, c := range available {
			if !used.Contains(c) {
				cand = append(cand, c)
			}
		}
		*candidates = cand
		hole, ok := p.SampleHole(holeSize, cand, w.rng)
		if !ok {
			return
		}
		holes[i] = hole
		for _, c := range hole {
			used.Add(c)
		}
	}

	// Complete the board by partial selection with swap-to-end, so no
	// card is picked twice.
	copy(fullBoard, w.board)
	needed := 5 - len(w.board)
	if needed > 0 {
		cand := (*candidates)[:0]
		for _, c := range available {
			if !used.Contains(c) {
				cand = append(cand, c)
			}
		}
		*candidates = cand
		if len(cand) < needed {
			return
		}
		for k := 0; k < needed; k++ {
			idx := w.rng.IntN(len(cand) - k)
			fullBoard[len(w.board)+k] = cand[idx]
			cand[idx], cand[len(cand)-1-k] = cand[len(cand)-1-k], cand[idx]
		}
	}

	for i, hole := range holes {
		if w.variant == Omaha {
			ranks[i] = evaluator.EvaluateOmaha(hole, fullBoard)
		} else {
			copy(seven[:2], hole)
			copy(seven[2:], fullBoard)
			ranks[i] = evaluator.Evaluate7(seven)
		}
	}

	best := ranks[0]
	for _, r := range ranks[1:] {
		if r > best {
			best = r
		}
	}
	winners := 0
	for _, r := range ranks {
		if r == best {
			winners++
		}
	}
	for i, r := range ranks {
		if r == best {
			if winners == 1 {
				w.wins[i]++
			} else {
				w.ties[i]++
			}
		}
	}
}
