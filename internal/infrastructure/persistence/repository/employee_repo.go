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

// EmployeeRepository is the sqlite-backed HR roster
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a staff roster
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const employeeColumns = `id, name, dept, phone, username, status, join_date, offboard_date, alipay_account`

// Add inserts an employee
func (r *EmployeeRepository) Add(ctx context.Context, emp *entity.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Dept, emp.Phone, emp.Username, emp.Status,
		emp.JoinDate, emp.OffboardDate, emp.AlipayAccount)
	if err != nil {
		r.logger.Error("Failed to add employee", zap.String("employee_id", emp.ID), zap.Error(err))
		return fmt.Errorf("failed to add employee: %w", err)
	}
	return nil
}

// Get retrieves an employee by id
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`
	emp, err := scanEmployee(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// Update overwrites an employee record
func (r *EmployeeRepository) Update(ctx context.Context, emp *entity.Employee) error {
	query := `
		UPDATE employees
		SET name = ?, dept = ?, phone = ?, username = ?, status = ?,
			join_date = ?, offboard_date = ?, alipay_account = ?
		WHERE id = ?
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		emp.Name, emp.Dept, emp.Phone, emp.Username, emp.Status,
		emp.JoinDate, emp.OffboardDate, emp.AlipayAccount, emp.ID)
	if err != nil {
		r.logger.Error("Failed to update employee", zap.String("employee_id", emp.ID), zap.Error(err))
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrEmployeeNotFound, emp.ID)
	}
	return nil
}

// List returns employees with the given status, or all when status is empty.
// Newest joiners come first.
func (r *EmployeeRepository) List(ctx context.Context, status string) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY join_date DESC, id DESC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*entity.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row rowScanner) (*entity.Employee, error) {
	var e entity.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Dept, &e.Phone, &e.Username, &e.Status,
		&e.JoinDate, &e.OffboardDate, &e.AlipayAccount)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

var _ port.StaffRoster = (*EmployeeRepository)(nil)
