package model

// State represents the lifecycle state of a queue item
type State string

const (
	// StatePending means the item is queued but not yet picked by a batch run
	StatePending State = "pending"

	// StateProcessing means the batch driver is resolving or fetching the item
	StateProcessing State = "processing"

	// StateCompleted means the item's media is on disk
	StateCompleted State = "completed"

	// StateFailed means resolution, probing or fetching failed
	StateFailed State = "failed"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// IsActive returns true if the item is being worked on
func (s State) IsActive() bool {
	return s == StateProcessing
}

// IsFinished returns true if the item reached completed or failed
func (s State) IsFinished() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. failed -> processing is only legal for an explicit retry.
func (s State) CanTransition(next State, retry bool) bool {
	switch s {
	case StatePending:
		return next == StateProcessing || next == StateFailed
	case StateProcessing:
		return next == StateCompleted || next == StateFailed
	case StateFailed:
		return retry && next == StateProcessing
	default:
		return false
	}
}

// ParseState converts a raw string into a known State
func ParseState(raw string) (State, bool) {
	switch State(raw) {
	case StatePending, StateProcessing, StateCompleted, StateFailed:
		return State(raw), true
	}
	return "", false
}
