package domain

// State represents the lifecycle state of a poll
type State string

const (
	StateCollecting State = "COLLECTING" // Accepting answers for the current question
	StateCompleted  State = "COMPLETED"  // Submissions closed, all results visible
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition from current state to target state is valid
func (s State) CanTransitionTo(target State) bool {
	validTransitions := map[State][]State{
		StateCollecting: {StateCompleted},
		StateCompleted:  {StateCollecting}, // Only through a reset
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}
