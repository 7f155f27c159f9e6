package progression

import "errors"

// Error taxonomy. Handlers map these onto HTTP statuses; everything else
// that bubbles out of the store is treated as an internal failure.
var (
	// ErrValidation covers invalid input and unknown catalog ids.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound covers missing quests, battles and inventory instances.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers precondition failures: quest already completed
	// today, battle already active, item already used, not enough gold.
	// Never retried.
	ErrConflict = errors.New("precondition failed")

	// ErrTransient is returned when transaction retries are exhausted.
	// The caller may re-issue the action.
	ErrTransient = errors.New("transient conflict, retry")
)
