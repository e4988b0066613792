package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/signage-ops/pkg/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run())
	return db.DB
}

func newContracts(t *testing.T) *ContractRepository {
	db := setupDB(t)
	return NewContractRepository(db, sqlite.NewTxManager(db, zap.NewNop()), zap.NewNop())
}

func TestContractRepository_SeededContract(t *testing.T) {
	repo := newContracts(t)

	c, err := repo.Get(context.Background(), "HT-001")

	require.NoError(t, err)
	assert.Equal(t, "万达广场广告牌更换项目", c.Title)
	assert.Equal(t, 120000.0, c.Amount)
	assert.Equal(t, 45000.0, c.Paid)
	assert.Equal(t, 75000.0, c.Outstanding())
}

func TestContractRepository_IncreasePaid(t *testing.T) {
	tests := []struct {
		name     string
		paid     float64
		total    float64
		amount   float64
		wantPaid float64
	}{
		{"adds remittance", 1000, 5000, 3000, 4000},
		{"clamps at total", 4500, 5000, 3000, 5000},
		{"exactly total", 2000, 5000, 3000, 5000},
		{"zero amount is a no-op", 1000, 5000, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newContracts(t)
			require.NoError(t, repo.Create(ctx, &entity.Contract{
				ID: "HT-100", Title: "门头发光字", Amount: tt.total, Paid: tt.paid, Status: entity.ContractStatusExecuting,
			}))

			c, err := repo.IncreasePaid(ctx, "HT-100", tt.amount)

			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, c.Paid)
			stored, err := repo.Get(ctx, "HT-100")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, stored.Paid)
			assert.LessOrEqual(t, stored.Paid, stored.Amount)
		})
	}
}

func TestContractRepository_IncreasePaidErrors(t *testing.T) {
	ctx := context.Background()
	repo := newContracts(t)

	_, err := repo.IncreasePaid(ctx, "HT-404", 100)
	assert.ErrorIs(t, err, entity.ErrContractNotFound)

	_, err = repo.IncreasePaid(ctx, "HT-001", -1)
	assert.ErrorIs(t, err, entity.ErrValidation)

	c, err := repo.Get(ctx, "HT-001")
	require.NoError(t, err)
	assert.Equal(t, 45000.0, c.Paid)
}

func TestContractRepository_CreateValidates(t *testing.T) {
	repo := newContracts(t)

	err := repo.Create(context.Background(), &entity.Contract{ID: "HT-2", Title: "x", Amount: 100, Paid: 200})
	assert.ErrorIs(t, err, entity.ErrValidation)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPayoutRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPayoutRepository(setupDB(t), zap.NewNop())
	paidAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return paidAt }

	require.NoError(t, repo.Enqueue(ctx, &entity.PayoutItem{
		RequestID: "PAY-1", PayeeName: "上海灯饰厂", PayeeAccount: "pay@example.com", Amount: 1200,
		EnqueuedAt: paidAt.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Enqueue(ctx, &entity.PayoutItem{
		RequestID: "PAY-2", PayeeName: "亚克力供应商", Amount: 800,
		EnqueuedAt: paidAt.Add(-time.Hour),
	}))

	total, err := repo.TotalPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, total)

	require.NoError(t, repo.Remove(ctx, "PAY-1"))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "PAY-2", pending[0].RequestID)
	assert.Nil(t, pending[0].PaidAt)

	history, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "PAY-1", history[0].RequestID)
	require.NotNil(t, history[0].PaidAt)
	assert.True(t, paidAt.Equal(*history[0].PaidAt))

	total, err = repo.TotalPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 800.0, total)
}

func TestPayoutRepository_RemoveUnknownOrPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewPayoutRepository(setupDB(t), zap.NewNop())
	require.NoError(t, repo.Enqueue(ctx, &entity.PayoutItem{RequestID: "PAY-1", PayeeName: "x", Amount: 1}))
	require.NoError(t, repo.Remove(ctx, "PAY-1"))

	assert.ErrorIs(t, repo.Remove(ctx, "PAY-1"), entity.ErrPayoutNotFound)
	assert.ErrorIs(t, repo.Remove(ctx, "PAY-9"), entity.ErrPayoutNotFound)
}

func TestPayoutRepository_EnqueueValidates(t *testing.T) {
	repo := NewPayoutRepository(setupDB(t), zap.NewNop())

	assert.ErrorIs(t, repo.Enqueue(context.Background(), &entity.PayoutItem{RequestID: "PAY-1", PayeeName: "x"}), entity.ErrValidation)
	assert.ErrorIs(t, repo.Enqueue(context.Background(), &entity.PayoutItem{PayeeName: "x", Amount: 1}), entity.ErrValidation)
}

func TestEmployeeRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(setupDB(t), zap.NewNop())

	seeded, err := repo.List(ctx, entity.EmployeeStatusActive)
	require.NoError(t, err)
	require.Len(t, seeded, 2)
	assert.Equal(t, "李晓明", seeded[0].Name, "latest joiner first")

	emp := &entity.Employee{
		ID: "3", Name: "王芳", Dept: "业务部", Phone: "13700001111", Username: "13700001111",
		Status: entity.EmployeeStatusActive, JoinDate: "2024-03-01",
	}
	require.NoError(t, repo.Add(ctx, emp))

	emp.Status = entity.EmployeeStatusOffboarded
	emp.OffboardDate = "2024-06-30"
	require.NoError(t, repo.Update(ctx, emp))

	got, err := repo.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, entity.EmployeeStatusOffboarded, got.Status)
	assert.Equal(t, "2024-06-30", got.OffboardDate)

	offboarded, err := repo.List(ctx, entity.EmployeeStatusOffboarded)
	require.NoError(t, err)
	assert.Len(t, offboarded, 1)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEmployeeRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(setupDB(t), zap.NewNop())

	_, err := repo.Get(ctx, "99")
	assert.ErrorIs(t, err, entity.ErrEmployeeNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &entity.Employee{ID: "99"}), entity.ErrEmployeeNotFound)
}

func TestHistoryRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(setupDB(t), zap.NewNop())
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	entries := []*entity.ApprovalHistory{
		{RequestID: "REM-1", ActorID: "王强", NewStatus: "pending", ActionType: entity.ActionSubmit, Timestamp: base},
		{RequestID: "REM-1", ActorID: "张经理", PreviousStatus: "pending", NewStatus: "approved", ActionType: entity.ActionDecide, Timestamp: base.Add(time.Minute)},
		{RequestID: "REM-1", ActionType: entity.ActionEffectFailed, ActionData: `{"effect":"IncreaseContractPaid"}`, Timestamp: base.Add(time.Minute)},
		{RequestID: "LV-1", ActionType: entity.ActionSubmit, Timestamp: base},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotZero(t, e.ID)
	}

	trail, err := repo.GetByRequestID(ctx, "REM-1")

	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, entity.ActionSubmit, trail[0].ActionType)
	assert.Equal(t, entity.ActionDecide, trail[1].ActionType)
	assert.Equal(t, entity.ActionEffectFailed, trail[2].ActionType)
	assert.True(t, base.Equal(trail[0].Timestamp))
}

func TestTxManager_RollbackSpansRepositories(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	tx := sqlite.NewTxManager(db, zap.NewNop())
	history := NewHistoryRepository(db, zap.NewNop())
	payouts := NewPayoutRepository(db, zap.NewNop())

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := history.Create(ctx, &entity.ApprovalHistory{RequestID: "PAY-1", ActionType: entity.ActionSubmit, Timestamp: time.Now()}); err != nil {
			return err
		}
		return payouts.Enqueue(ctx, &entity.PayoutItem{RequestID: "PAY-1", PayeeName: "x"})
	})
	require.ErrorIs(t, err, entity.ErrValidation)

	trail, err := history.GetByRequestID(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Empty(t, trail, "journal entry must roll back with the failed enqueue")
}
