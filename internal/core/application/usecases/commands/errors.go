package commands

import "errors"

// Business outcomes that are not failures. Callers discriminate with
// errors.Is and translate them into benign responses.
var (
	// ErrNoOrderFound means the referenced order does not exist.
	ErrNoOrderFound = errors.New("no order found")

	// ErrNoCourierFound means the referenced courier does not exist.
	ErrNoCourierFound = errors.New("no courier found")

	// ErrAlreadyResolved means the event arrived for an attempt that another
	// event (accept, reject or timeout) already resolved, or the guarded
	// save lost the race to a concurrent writer. The event is discarded as
	// an idempotent no-op; it is never retried.
	ErrAlreadyResolved = errors.New("attempt already resolved")

	// ErrNoCourierAvailable means the search found zero eligible couriers
	// and the order moved to its Rejected terminal.
	ErrNoCourierAvailable = errors.New("no courier available")

	// ErrRetryCeilingExceeded means the attempt ceiling was reached with no
	// acceptance and the order moved to its Rejected terminal. Distinct
	// from ErrNoCourierAvailable only in the customer-facing message.
	ErrRetryCeilingExceeded = errors.New("retry ceiling exceeded")
)

// IsBenignDispatchOutcome reports whether err is one of the dispatch
// outcomes that resolve or terminate an attempt without being failures.
func IsBenignDispatchOutcome(err error) bool {
	return errors.Is(err, ErrNoCourierAvailable) ||
		errors.Is(err, ErrRetryCeilingExceeded) ||
		errors.Is(err, ErrAlreadyResolved)
}
