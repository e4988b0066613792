package workflow

import "github.com/garyjia/signage-ops/internal/domain/entity"

// Trigger is a reviewer action that can cause a state transition
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor returns the trigger that applies the given decision
func TriggerFor(d entity.Decision) (Trigger, bool) {
	switch d {
	case entity.DecisionApproved:
		return TriggerApprove, true
	case entity.DecisionRejected:
		return TriggerReject, true
	}
	return "", false
}
