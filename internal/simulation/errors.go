package simulation

import "errors"

// Configuration-time failures. All are returned synchronously by the
// call that violates the contract; the notification path never carries
// errors (a requested stop is an outcome, not a fault).
var (
	// ErrInvalidInput reports malformed arguments: nil or wrong-shaped
	// card sets, a non-divisor update interval, a non-positive trial
	// count or an unknown game variant.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCardConflict reports a card reused across fixed hands and/or
	// community slots.
	ErrCardConflict = errors.New("card conflict")

	// ErrIllegalState reports a start that cannot proceed: a
	// deterministic configuration, a broken community-card sequence, a
	// table too large for the deck, or reuse of a started instance.
	ErrIllegalState = errors.New("illegal state")
)
