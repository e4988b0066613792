// Package effect defines the side-effect instructions a decision emits for
// external collaborators. The mapping from request kind to effect type is
// fixed: the same kind always yields the same effect, and only on approval.
package effect

import (
	"fmt"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// Type tags a side-effect variant
type Type string

const (
	TypeIncreaseContractPaid         Type = "IncreaseContractPaid"
	TypeRemoveFromPendingPayoutQueue Type = "RemoveFromPendingPayoutQueue"
	TypeAppendNotification           Type = "AppendNotification"
)

// SideEffect is one instruction for a collaborator
type SideEffect interface {
	Type() Type
	String() string
}

// IncreaseContractPaid raises a contract's paid amount, capped at its total
type IncreaseContractPaid struct {
	ContractID string  `json:"contract_id"`
	Amount     float64 `json:"amount"`
}

func (IncreaseContractPaid) Type() Type { return TypeIncreaseContractPaid }

func (e IncreaseContractPaid) String() string {
	return fmt.Sprintf("%s(%s, %.2f)", e.Type(), e.ContractID, e.Amount)
}

// RemoveFromPendingPayoutQueue moves a payout item out of the pending queue
type RemoveFromPendingPayoutQueue struct {
	RequestID string `json:"request_id"`
}

func (RemoveFromPendingPayoutQueue) Type() Type { return TypeRemoveFromPendingPayoutQueue }

func (e RemoveFromPendingPayoutQueue) String() string {
	return fmt.Sprintf("%s(%s)", e.Type(), e.RequestID)
}

// AppendNotification pushes a self-approved informational record into the registry
type AppendNotification struct {
	Record entity.ApprovalRequest `json:"record"`
}

func (AppendNotification) Type() Type { return TypeAppendNotification }

func (e AppendNotification) String() string {
	return fmt.Sprintf("%s(%s)", e.Type(), e.Record.ID)
}
