package port

import (
	"context"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// HistoryRepository persists the decision journal
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error

	// GetByRequestID returns a request's journal, oldest entry first
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
