package workflow

import "fmt"

// Builder collects permitted transitions and builds independent machines
type Builder struct {
	transitions map[State]map[Trigger]State
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger]State)}
}

// Permit allows trigger to move from one state to another.
// Panics on states outside the lifecycle, since that is a programming error.
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger]State)
	}
	b.transitions[from][trigger] = to
	return b
}

// Build creates a machine in the given state. The machine copies the
// transition table so later Permit calls do not affect it.
func (b *Builder) Build(initial State) (StateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}

	table := make(map[State]map[Trigger]State, len(b.transitions))
	for from, byTrigger := range b.transitions {
		cp := make(map[Trigger]State, len(byTrigger))
		for t, to := range byTrigger {
			cp[t] = to
		}
		table[from] = cp
	}

	return &stateMachine{current: initial, transitions: table}, nil
}

// ApprovalLifecycle is the request lifecycle: pending moves once to
// approved or rejected; both are terminal.
func ApprovalLifecycle() *Builder {
	return NewBuilder().
		Permit(StatePending, TriggerApprove, StateApproved).
		Permit(StatePending, TriggerReject, StateRejected)
}
