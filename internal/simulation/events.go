package simulation

import "sync"

// Outcome tags the terminal notification of a run.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
)

// String returns the readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Observer receives simulation notifications. All callbacks are
// delivered from a single dispatcher goroutine, never from the caller
// of Start or Stop, so an observer that sees ProgressChanged(_, 100)
// can immediately read a fully-populated result.
type Observer interface {
	// ProgressChanged reports a combined progress move. newPct is 100
	// only for the terminal notification of a completed run.
	ProgressChanged(oldPct, newPct int)

	// RunFinished reports the run outcome, exactly once per run.
	RunFinished(outcome Outcome)
}

// observerList is a subscription registry safe against concurrent
// subscribe/unsubscribe and in-flight publishes. The same observer may
// be registered more than once; each registration is delivered
// independently.
type observerList struct {
	mu        sync.RWMutex
	observers []Observer
}

func (l *observerList) subscribe(o Observer) {
	if o == nil {
		return
	}
	l.mu.Lock()
	l.observers = append(l.observers, o)
	l.mu.Unlock()
}

// unsubscribe removes one registration of o, reporting whether one was
// found.
func (l *observerList) unsubscribe(o Observer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the registration list so publishes never hold the
// lock while calling observer code.
func (l *observerList) snapshot() []Observer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Observer, len(l.observers))
	copy(out, l.observers)
	return out
}

func (l *observerList) publishProgress(oldPct, newPct int) {
	for _, o := range l.snapshot() {
		o.ProgressChanged(oldPct, newPct)
	}
}

func (l *observerList) publishFinished(outcome Outcome) {
	for _, o := range l.snapshot() {
		o.RunFinished(outcome)
	}
}
