// Package simulation coordinates parallel Monte Carlo poker odds runs:
// it partitions trials across a fixed pool of workers, throttles
// progress notifications, and combines per-worker statistics into one
// final result.
//
// A typical use:
//
//	sim, _ := simulation.New(simulation.HoldEm, 100_000)
//	_ = sim.SetUpdateInterval(10)
//	_ = sim.AddPlayer(profile.ExactCards(deck.MustParseCards("AhKh")))
//	_ = sim.AddPlayer(profile.Random())
//	sim.Subscribe(obs)
//	_ = sim.Start()
//	<-sim.Done()
//	result := sim.Result()
package simulation

import (
	"context"
	"fmt"
	"io"
	rand "math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/profile"
	"github.com/lox/oddsengine/internal/randutil"
)

// RunState tracks the lifecycle of one Simulator instance. Terminal
// states never transition further; a new run needs a new instance.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StateCancelled
	StateCompleted
)

// String returns the readable state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Simulator is the control center of one simulation run. It accepts
// configuration until Start freezes it, supervises the worker pool, and
// exposes combined progress and the final result.
//
// Progress notifications are throttled: a new combined value is
// reported only when it exceeds the last reported value by more than
// the configured update interval. The terminal 100% notification is
// emitted by the completion supervisor strictly after the result is
// stored, so an observer that sees 100 can always read the result.
type Simulator struct {
	mu        sync.Mutex
	variant   GameVariant
	trials    int
	profiles  []*profile.Profile
	community [5]*deck.Card

	workerCount    int
	updateInterval int
	logger         *log.Logger
	clock          quartz.Clock
	rng            *rand.Rand

	state         atomic.Int32
	totalProgress atomic.Int32
	result        atomic.Pointer[FinalResult]

	workers   []*worker
	cancel    context.CancelFunc
	trigger   chan struct{}
	finishCh  chan bool
	doneCh    chan struct{}
	observers observerList
	startedAt time.Time
}

// Option configures a Simulator at construction.
type Option func(*Simulator)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

// WithClock sets the clock used for elapsed-time measurement. Tests use
// quartz.NewMock.
func WithClock(clock quartz.Clock) Option {
	return func(s *Simulator) { s.clock = clock }
}

// WithSeed makes trial sampling deterministic.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = randutil.New(seed) }
}

// New creates a simulator for the given variant and requested trial
// count. The worker count defaults to the number of logical CPUs.
func New(variant GameVariant, trials int, opts ...Option) (*Simulator, error) {
	if !variant.valid() {
		return nil, fmt.Errorf("%w: unknown game variant", ErrInvalidInput)
	}
	if trials <= 0 {
		return nil, fmt.Errorf("%w: trial count must be positive, got %d", ErrInvalidInput, trials)
	}

	s := &Simulator{
		variant:        variant,
		trials:         trials,
		workerCount:    runtime.NumCPU(),
		updateInterval: 100, // report only at completion unless configured
		logger:         log.New(io.Discard),
		clock:          quartz.NewReal(),
		rng:            randutil.New(time.Now().UnixNano()),
		trigger:        make(chan struct{}, 1),
		finishCh:       make(chan bool, 1),
		doneCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetUpdateInterval sets the minimum combined-progress delta required
// before observers are re-notified. The value must be a positive
// divisor of 100. Calls after Start are silently ignored: configuration
// freezes once trials begin. The comparison is strict, so with interval
// 10 a move from 0 to 11 is reported but 0 to 10 is not.
func (s *Simulator) SetUpdateInterval(percentage int) error {
	if percentage <= 0 || 100%percentage != 0 {
		return fmt.Errorf("%w: update interval must be a positive divisor of 100, got %d", ErrInvalidInput, percentage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StateIdle {
		s.updateInterval = percentage
	}
	return nil
}

// SetWorkers overrides the worker count. Only valid before Start.
func (s *Simulator) SetWorkers(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidInput, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureIdle(); err != nil {
		return err
	}
	s.workerCount = n
	return nil
}

// Workers returns the configured worker count.
func (s *Simulator) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workerCount
}

// Trials returns the total trial count. After Start this reflects the
// round-up to a multiple of the worker count.
func (s *Simulator) Trials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trials
}

// State returns the current run state.
func (s *Simulator) State() RunState {
	return RunState(s.state.Load())
}

// Progress returns the last combined progress value reported to
// observers (0-100). Safe to call from any goroutine.
func (s *Simulator) Progress() int {
	return int(s.totalProgress.Load())
}

// Result returns the final result, or nil unless the run completed.
func (s *Simulator) Result() *FinalResult {
	return s.result.Load()
}

// Done returns a channel closed after the terminal notification has
// been delivered, for callers that want to block on run termination.
func (s *Simulator) Done() <-chan struct{} {
	return s.doneCh
}

// Subscribe registers an observer. The same observer may subscribe more
// than once and will be notified once per registration. Safe to call
// while a run is in flight.
func (s *Simulator) Subscribe(o Observer) {
	s.observers.subscribe(o)
}

// Unsubscribe removes one registration of the observer, reporting
// whether one was found.
func (s *Simulator) Unsubscribe(o Observer) bool {
	return s.observers.unsubscribe(o)
}

// Start freezes the configuration, launches the workers and the
// completion supervisor, and returns immediately. Starting a
// deterministic configuration, a broken community sequence, or an
// already-started instance fails with ErrIllegalState.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateIdle {
		return fmt.Errorf("%w: simulator already started", ErrIllegalState)
	}
	if len(s.profiles) < 2 {
		return fmt.Errorf("%w: at least two players required", ErrIllegalState)
	}
	if !s.communitySequenceOK() {
		return fmt.Errorf("%w: community cards out of sequence", ErrIllegalState)
	}
	if s.predictable() {
		return fmt.Errorf("%w: result is predictable, nothing to simulate", ErrIllegalState)
	}
	if need := len(s.profiles)*s.variant.HoleCards() + 5; need > 52 {
		return fmt.Errorf("%w: %d players need %d cards, deck has 52", ErrIllegalState, len(s.profiles), need)
	}

	pl := partition(s.trials, s.workerCount)
	s.trials = pl.total

	profiles := make([]*profile.Profile, len(s.profiles))
	copy(profiles, s.profiles)
	board := s.boardCards()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)

	// The timestamp and state must be in place before any goroutine
	// launches: the supervisor reads startedAt after the barrier, and a
	// worker pool this small can finish before Start returns.
	s.startedAt = s.clock.Now()
	s.state.Store(int32(StateRunning))

	s.workers = make([]*worker, pl.workers)
	for i := range s.workers {
		w := &worker{
			index:       i,
			variant:     s.variant,
			profiles:    profiles,
			board:       board,
			trials:      pl.perWorker,
			granularity: pl.granularity,
			rng:         randutil.New(s.rng.Int64()),
			notify:      s.notifyProgress,
		}
		s.workers[i] = w
		group.Go(func() error { return w.run(gctx) })
	}

	go s.dispatch()
	go s.supervise(group)

	s.logger.Info("simulation started",
		"variant", s.variant,
		"players", len(profiles),
		"trials", s.trials,
		"workers", pl.workers,
		"granularity", pl.granularity)
	return nil
}

// Stop requests cancellation of all in-flight workers. Idempotent, and
// a no-op before Start or after completion.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// notifyProgress coalesces worker progress ticks: the aggregator
// recomputes from current values, so dropped ticks lose nothing.
func (s *Simulator) notifyProgress() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// dispatch is the single delivery goroutine for all notifications. It
// owns the last-reported progress value, which gives the ordering
// guarantee observers rely on.
func (s *Simulator) dispatch() {
	for {
		select {
		case <-s.trigger:
			s.reportProgress()
		case success := <-s.finishCh:
			if success {
				old := int(s.totalProgress.Load())
				s.totalProgress.Store(100)
				s.observers.publishProgress(old, 100)
				s.observers.publishFinished(OutcomeCompleted)
			} else {
				s.observers.publishFinished(OutcomeCancelled)
			}
			close(s.doneCh)
			return
		}
	}
}

// reportProgress recomputes the combined progress as the truncated mean
// of all workers and notifies observers when it clears the threshold.
// The exact value 100 is reserved for the supervisor.
func (s *Simulator) reportProgress() {
	combined := 0
	for _, w := range s.workers {
		combined += int(w.progress.Load())
	}
	combined /= len(s.workers)

	last := int(s.totalProgress.Load())
	if combined-last > s.updateInterval && combined != 100 {
		s.totalProgress.Store(int32(combined))
		s.observers.publishProgress(last, combined)
		s.logger.Debug("progress", "pct", combined)
	}
}

// supervise blocks on the termination barrier, then finalizes the run.
// The result is stored and the state moved to Completed before the
// terminal notification is handed to the dispatcher.
func (s *Simulator) supervise(group *errgroup.Group) {
	err := group.Wait()

	success := err == nil && s.workersFinished()
	if success {
		elapsed := s.clock.Since(s.startedAt)
		res := combineResults(s.variant, s.workers[0].profiles, s.workers, s.trials, elapsed)
		s.result.Store(res)
		s.state.Store(int32(StateCompleted))
		s.logger.Info("simulation completed", "trials", s.trials, "elapsed", elapsed)
	} else {
		s.state.Store(int32(StateCancelled))
		s.logger.Info("simulation cancelled")
	}

	s.cancel()
	s.finishCh <- success
}

// workersFinished reports whether every worker ran all of its trials.
func (s *Simulator) workersFinished() bool {
	for _, w := range s.workers {
		if w.progress.Load() != 100 {
			return false
		}
	}
	return true
}
