package workflow

import "github.com/garyjia/signage-ops/internal/domain/entity"

// State is a position in the approval request lifecycle
type State string

const (
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// FromStatus maps a request status to its lifecycle state
func FromStatus(status entity.Status) (State, error) {
	switch status {
	case entity.StatusPending:
		return StatePending, nil
	case entity.StatusApproved:
		return StateApproved, nil
	case entity.StatusRejected:
		return StateRejected, nil
	}
	return "", ErrInvalidState
}

// Status maps the lifecycle state back to a request status
func (s State) Status() entity.Status {
	switch s {
	case StateApproved:
		return entity.StatusApproved
	case StateRejected:
		return entity.StatusRejected
	default:
		return entity.StatusPending
	}
}
