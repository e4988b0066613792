package port

import (
	"context"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// ContractLedger holds customer contracts and their paid amounts
type ContractLedger interface {
	Get(ctx context.Context, id string) (*entity.Contract, error)
	List(ctx context.Context) ([]*entity.Contract, error)

	// IncreasePaid adds amount to the contract's paid field, capped at the contract total
	IncreasePaid(ctx context.Context, contractID string, amount float64) (*entity.Contract, error)
}

// PayoutQueue holds corporate payouts waiting to be paid, and their paid history
type PayoutQueue interface {
	Enqueue(ctx context.Context, item *entity.PayoutItem) error
	ListPending(ctx context.Context) ([]*entity.PayoutItem, error)
	ListHistory(ctx context.Context) ([]*entity.PayoutItem, error)
	TotalPending(ctx context.Context) (float64, error)

	// Remove takes the item for requestID out of the pending collection
	Remove(ctx context.Context, requestID string) error
}

// NotificationFeed accepts self-approved informational records
type NotificationFeed interface {
	AppendNotification(ctx context.Context, record entity.ApprovalRequest) error
}

// StaffRoster is the HR employee roster
type StaffRoster interface {
	Add(ctx context.Context, emp *entity.Employee) error
	Get(ctx context.Context, id string) (*entity.Employee, error)
	Update(ctx context.Context, emp *entity.Employee) error
	List(ctx context.Context, status string) ([]*entity.Employee, error)
}
