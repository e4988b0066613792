package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/infrastructure/persistence/sqlite"
)

// ContractRepository is the sqlite-backed contract ledger
type ContractRepository struct {
	db     *sql.DB
	tx     port.TransactionManager
	logger *zap.Logger
}

// NewContractRepository creates a contract ledger
func NewContractRepository(db *sql.DB, tx port.TransactionManager, logger *zap.Logger) *ContractRepository {
	return &ContractRepository{
		db:     db,
		tx:     tx,
		logger: logger,
	}
}

const contractColumns = `id, title, customer, address, amount, paid, status, owner`

// Create inserts a new contract
func (r *ContractRepository) Create(ctx context.Context, c *entity.Contract) error {
	if c.ID == "" || c.Title == "" {
		return entity.Validationf("contract requires id and title")
	}
	if c.Amount < 0 || c.Paid < 0 || c.Paid > c.Amount {
		return entity.Validationf("contract %s has inconsistent amounts", c.ID)
	}

	query := `INSERT INTO contracts (` + contractColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.Title, c.Customer, c.Address, c.Amount, c.Paid, c.Status, c.Owner)
	if err != nil {
		r.logger.Error("Failed to create contract", zap.String("contract_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// Get retrieves a contract by id
func (r *ContractRepository) Get(ctx context.Context, id string) (*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`
	c, err := scanContract(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrContractNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

// List returns all contracts ordered by id
func (r *ContractRepository) List(ctx context.Context) ([]*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts ORDER BY id`
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*entity.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// IncreasePaid adds amount to the paid field, capped at the contract total.
// A zero amount leaves the contract unchanged; a negative one is rejected.
func (r *ContractRepository) IncreasePaid(ctx context.Context, contractID string, amount float64) (*entity.Contract, error) {
	if amount < 0 {
		return nil, entity.Validationf("remittance amount %.2f is negative", amount)
	}

	var updated *entity.Contract
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
			`UPDATE contracts SET paid = MIN(amount, paid + ?) WHERE id = ?`,
			amount, contractID)
		if err != nil {
			return fmt.Errorf("failed to increase paid amount: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", entity.ErrContractNotFound, contractID)
		}

		updated, err = r.Get(ctx, contractID)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to record remittance",
			zap.String("contract_id", contractID),
			zap.Float64("amount", amount),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("Contract remittance recorded",
		zap.String("contract_id", contractID),
		zap.Float64("amount", amount),
		zap.Float64("paid", updated.Paid),
		zap.Float64("total", updated.Amount))
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*entity.Contract, error) {
	var c entity.Contract
	if err := row.Scan(&c.ID, &c.Title, &c.Customer, &c.Address, &c.Amount, &c.Paid, &c.Status, &c.Owner); err != nil {
		return nil, err
	}
	return &c, nil
}

var _ port.ContractLedger = (*ContractRepository)(nil)
