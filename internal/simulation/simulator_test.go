package simulation

import (
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/profile"
)

// recorder is a thread-safe test observer. It snapshots whether the
// result was readable at the moment each notification arrived.
type recorder struct {
	sim *Simulator

	mu              sync.Mutex
	events          [][2]int
	outcomes        []Outcome
	resultAtHundred bool
	finishedAfter   bool // RunFinished arrived after the 100% event
}

func (r *recorder) ProgressChanged(oldPct, newPct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, [2]int{oldPct, newPct})
	if newPct == 100 && r.sim != nil {
		r.resultAtHundred = r.sim.Result() != nil
	}
}

func (r *recorder) RunFinished(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	for _, e := range r.events {
		if e[1] == 100 {
			r.finishedAfter = true
		}
	}
}

func (r *recorder) snapshot() ([][2]int, []Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([][2]int, len(r.events))
	copy(events, r.events)
	outcomes := make([]Outcome, len(r.outcomes))
	copy(outcomes, r.outcomes)
	return events, outcomes
}

func waitDone(t *testing.T, sim *Simulator) {
	t.Helper()
	select {
	case <-sim.Done():
	case <-time.After(60 * time.Second):
		t.Fatal("simulation did not terminate in time")
	}
}

func TestRunCompletes(t *testing.T) {
	sim, err := New(HoldEm, 40000, WithSeed(42))
	require.NoError(t, err)
	require.NoError(t, sim.SetWorkers(4))
	require.NoError(t, sim.SetUpdateInterval(10))

	hero := profile.ExactCards(deck.MustParseCards("AsKs"))
	require.NoError(t, sim.AddPlayer(hero))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	assert.Equal(t, StateCompleted, sim.State())
	assert.Equal(t, 100, sim.Progress())

	result := sim.Result()
	require.NotNil(t, result)
	assert.Equal(t, HoldEm, result.Variant)
	assert.GreaterOrEqual(t, result.Trials, 40000)
	assert.Zero(t, result.Trials%4, "executed trials are a multiple of the worker count")
	assert.Equal(t, result.Trials, sim.Trials())
	assert.Greater(t, result.Elapsed, time.Duration(0))

	require.Len(t, result.Players, 2)
	assert.Same(t, hero, result.Players[0].Profile)
	for _, p := range result.Players {
		assert.InDelta(t, 100, p.Win+p.Lose+p.Tie, 0.001,
			"percentages for %s should sum to 100", p.Profile)
	}
	assert.Greater(t, result.Players[0].Win, result.Players[1].Win,
		"AKs should be favored over a random hand")
}

func TestProgressNotifications(t *testing.T) {
	sim, err := New(HoldEm, 20000, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, sim.SetWorkers(1))
	require.NoError(t, sim.SetUpdateInterval(10))
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	rec := &recorder{sim: sim}
	sim.Subscribe(rec)

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	events, outcomes := rec.snapshot()
	require.NotEmpty(t, events)

	last := 0
	for i, e := range events {
		assert.Equal(t, last, e[0], "event %d old value should chain from the previous report", i)
		assert.Greater(t, e[1], e[0], "progress never decreases")
		if e[1] != 100 {
			assert.Greater(t, e[1]-e[0], 10, "intermediate reports clear the interval threshold")
		}
		last = e[1]
	}
	assert.Equal(t, 100, events[len(events)-1][1], "final event reports 100")

	require.Equal(t, []Outcome{OutcomeCompleted}, outcomes)
	assert.True(t, rec.resultAtHundred, "result must be readable when 100%% is observed")
	assert.True(t, rec.finishedAfter, "RunFinished arrives after the 100%% event")
}

func TestStopCancelsRun(t *testing.T) {
	sim, err := New(HoldEm, 50_000_000)
	require.NoError(t, err)
	require.NoError(t, sim.SetWorkers(4))
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	rec := &recorder{sim: sim}
	sim.Subscribe(rec)

	require.NoError(t, sim.Start())
	sim.Stop()
	sim.Stop() // idempotent
	waitDone(t, sim)

	assert.Equal(t, StateCancelled, sim.State())
	assert.Nil(t, sim.Result())

	events, outcomes := rec.snapshot()
	assert.Equal(t, []Outcome{OutcomeCancelled}, outcomes)
	for _, e := range events {
		assert.NotEqual(t, 100, e[1], "a cancelled run never reports 100%%")
	}
}

func TestInstantCompletionReachesTerminalState(t *testing.T) {
	// A 1-trial single-worker run can finish before Start returns. The
	// running state and start timestamp must be in place before the
	// workers launch, or the supervisor's terminal state gets clobbered.
	for i := 0; i < 500; i++ {
		sim, err := New(HoldEm, 1, WithSeed(int64(i)))
		require.NoError(t, err)
		require.NoError(t, sim.SetWorkers(1))
		require.NoError(t, sim.AddPlayer(profile.Random()))
		require.NoError(t, sim.AddPlayer(profile.Random()))

		require.NoError(t, sim.Start())
		waitDone(t, sim)

		require.Equal(t, StateCompleted, sim.State(), "iteration %d", i)
		require.NotNil(t, sim.Result(), "iteration %d", i)
		require.GreaterOrEqual(t, sim.Result().Elapsed, time.Duration(0), "iteration %d", i)
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	sim, err := New(HoldEm, 1000)
	require.NoError(t, err)
	sim.Stop()
	assert.Equal(t, StateIdle, sim.State())
}

func TestStartTwice(t *testing.T) {
	sim, err := New(HoldEm, 1000)
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	require.NoError(t, sim.Start())
	assert.ErrorIs(t, sim.Start(), ErrIllegalState)
	waitDone(t, sim)

	// Terminal states are sticky: no restart after completion either.
	assert.ErrorIs(t, sim.Start(), ErrIllegalState)
}

func TestDeterministicWithSeed(t *testing.T) {
	run := func() *FinalResult {
		sim, err := New(HoldEm, 20000, WithSeed(42))
		require.NoError(t, err)
		require.NoError(t, sim.SetWorkers(2))
		require.NoError(t, sim.AddPlayer(profile.ExactCards(deck.MustParseCards("AsKs"))))
		require.NoError(t, sim.AddPlayer(profile.Random()))
		require.NoError(t, sim.Start())
		waitDone(t, sim)
		result := sim.Result()
		require.NotNil(t, result)
		return result
	}

	a, b := run(), run()
	require.Len(t, b.Players, len(a.Players))
	for i := range a.Players {
		assert.Equal(t, a.Players[i].Win, b.Players[i].Win, "player %d win", i)
		assert.Equal(t, a.Players[i].Tie, b.Players[i].Tie, "player %d tie", i)
		assert.Equal(t, a.Players[i].Lose, b.Players[i].Lose, "player %d lose", i)
	}
}

func TestMockClockElapsed(t *testing.T) {
	clock := quartz.NewMock(t)
	sim, err := New(HoldEm, 1000, WithClock(clock), WithSeed(7))
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	result := sim.Result()
	require.NotNil(t, result)
	assert.Equal(t, time.Duration(0), result.Elapsed,
		"a mock clock that is never advanced reports zero elapsed time")
}

func TestKnownEquity(t *testing.T) {
	sim, err := New(HoldEm, 50000, WithSeed(11))
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.ExactCards(deck.MustParseCards("AsAh"))))
	require.NoError(t, sim.AddPlayer(profile.ExactCards(deck.MustParseCards("KsKh"))))

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	result := sim.Result()
	require.NotNil(t, result)

	// AA vs KK preflop is roughly 82/18 with a sliver of ties.
	assert.InDelta(t, 82, result.Players[0].Win, 2.5)
	assert.InDelta(t, 18, result.Players[1].Win, 2.5)
	assert.Less(t, result.Players[0].Tie, 2.0)
}

func TestRangePlayerIsFavoredOverRandom(t *testing.T) {
	sim, err := New(HoldEm, 30000, WithSeed(3))
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.Range(10)))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	result := sim.Result()
	require.NotNil(t, result)
	assert.Greater(t, result.Players[0].Win, result.Players[1].Win,
		"a top-10%% range should beat a random hand")
}

func TestOmahaRun(t *testing.T) {
	sim, err := New(Omaha, 10000, WithSeed(5))
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	result := sim.Result()
	require.NotNil(t, result)
	assert.Equal(t, Omaha, result.Variant)
	for _, p := range result.Players {
		assert.InDelta(t, 100, p.Win+p.Lose+p.Tie, 0.001)
	}
	// Two random seats are symmetric in expectation.
	assert.InDelta(t, result.Players[0].Win, result.Players[1].Win, 5)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	sim, err := New(HoldEm, 1000, WithSeed(9))
	require.NoError(t, err)
	require.NoError(t, sim.AddPlayer(profile.Random()))
	require.NoError(t, sim.AddPlayer(profile.Random()))

	kept := &recorder{}
	dropped := &recorder{}
	double := &recorder{}

	sim.Subscribe(kept)
	sim.Subscribe(dropped)
	sim.Subscribe(double)
	sim.Subscribe(double) // second registration is delivered independently

	assert.True(t, sim.Unsubscribe(dropped))
	assert.False(t, sim.Unsubscribe(dropped), "already removed")
	assert.False(t, sim.Unsubscribe(&recorder{}), "never registered")

	require.NoError(t, sim.Start())
	waitDone(t, sim)

	_, keptOutcomes := kept.snapshot()
	_, droppedOutcomes := dropped.snapshot()
	_, doubleOutcomes := double.snapshot()

	assert.Len(t, keptOutcomes, 1)
	assert.Empty(t, droppedOutcomes)
	assert.Len(t, doubleOutcomes, 2)
}
