package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/infrastructure/persistence/sqlite"
)

// PayoutRepository is the sqlite-backed payout queue. Paid items stay in
// the table with paid_at set and form the history.
type PayoutRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewPayoutRepository creates a payout queue
func NewPayoutRepository(db *sql.DB, logger *zap.Logger) *PayoutRepository {
	return &PayoutRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const payoutColumns = `request_id, payee_name, payee_account, amount, purpose, enqueued_at, paid_at`

// Enqueue adds a pending payout keyed by its request id
func (r *PayoutRepository) Enqueue(ctx context.Context, item *entity.PayoutItem) error {
	if item.RequestID == "" || item.PayeeName == "" {
		return entity.Validationf("payout requires request id and payee name")
	}
	if item.Amount <= 0 {
		return entity.Validationf("payout amount must be positive")
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = r.now()
	}

	query := `INSERT INTO payout_items (` + payoutColumns + `) VALUES (?, ?, ?, ?, ?, ?, NULL)`
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		item.RequestID, item.PayeeName, item.PayeeAccount, item.Amount, item.Purpose, item.EnqueuedAt.UTC())
	if err != nil {
		r.logger.Error("Failed to enqueue payout", zap.String("request_id", item.RequestID), zap.Error(err))
		return fmt.Errorf("failed to enqueue payout: %w", err)
	}

	r.logger.Info("Payout enqueued",
		zap.String("request_id", item.RequestID),
		zap.Float64("amount", item.Amount))
	return nil
}

// ListPending returns unpaid items, oldest first
func (r *PayoutRepository) ListPending(ctx context.Context) ([]*entity.PayoutItem, error) {
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payout_items WHERE paid_at IS NULL ORDER BY enqueued_at, request_id`)
}

// ListHistory returns paid items, most recently paid first
func (r *PayoutRepository) ListHistory(ctx context.Context) ([]*entity.PayoutItem, error) {
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payout_items WHERE paid_at IS NOT NULL ORDER BY paid_at DESC, request_id`)
}

// TotalPending sums the unpaid amounts
func (r *PayoutRepository) TotalPending(ctx context.Context) (float64, error) {
	var total float64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payout_items WHERE paid_at IS NULL`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total pending payouts: %w", err)
	}
	return total, nil
}

// Remove marks the pending item for requestID as paid
func (r *PayoutRepository) Remove(ctx context.Context, requestID string) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`UPDATE payout_items SET paid_at = ? WHERE request_id = ? AND paid_at IS NULL`,
		r.now().UTC(), requestID)
	if err != nil {
		r.logger.Error("Failed to remove payout", zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to remove payout: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrPayoutNotFound, requestID)
	}

	r.logger.Info("Payout removed from pending queue", zap.String("request_id", requestID))
	return nil
}

func (r *PayoutRepository) list(ctx context.Context, query string) ([]*entity.PayoutItem, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var items []*entity.PayoutItem
	for rows.Next() {
		var item entity.PayoutItem
		var paidAt sql.NullTime
		if err := rows.Scan(&item.RequestID, &item.PayeeName, &item.PayeeAccount,
			&item.Amount, &item.Purpose, &item.EnqueuedAt, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		if paidAt.Valid {
			t := paidAt.Time
			item.PaidAt = &t
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

var _ port.PayoutQueue = (*PayoutRepository)(nil)
