package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/decision"
	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/registry"
	"github.com/garyjia/signage-ops/internal/application/template"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/i18n"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockHistory struct {
	mu         sync.Mutex
	entries    []*entity.ApprovalHistory
	createFunc func(ctx context.Context, h *entity.ApprovalHistory) error
}

func (m *mockHistory) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, h)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, h)
	return nil
}

func (m *mockHistory) GetByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.ApprovalHistory
	for _, h := range m.entries {
		if h.RequestID == requestID {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *mockHistory) actions(requestID string) []string {
	entries, _ := m.GetByRequestID(context.Background(), requestID)
	actions := make([]string, len(entries))
	for i, h := range entries {
		actions[i] = h.ActionType
	}
	return actions
}

type mockLedger struct {
	mu        sync.Mutex
	contracts map[string]entity.Contract
	increases int
}

func (m *mockLedger) Get(ctx context.Context, id string) (*entity.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrContractNotFound, id)
	}
	return &c, nil
}

func (m *mockLedger) List(ctx context.Context) ([]*entity.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Contract
	for _, c := range m.contracts {
		c := c
		result = append(result, &c)
	}
	return result, nil
}

func (m *mockLedger) IncreasePaid(ctx context.Context, id string, amount float64) (*entity.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrContractNotFound, id)
	}
	m.increases++
	c.Paid += amount
	if c.Paid > c.Amount {
		c.Paid = c.Amount
	}
	m.contracts[id] = c
	return &c, nil
}

func (m *mockLedger) paid(id string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contracts[id].Paid
}

type mockPayouts struct {
	mu          sync.Mutex
	pending     map[string]*entity.PayoutItem
	enqueueFunc func(ctx context.Context, item *entity.PayoutItem) error
}

func (m *mockPayouts) Enqueue(ctx context.Context, item *entity.PayoutItem) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[item.RequestID] = item
	return nil
}

func (m *mockPayouts) ListPending(ctx context.Context) ([]*entity.PayoutItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.PayoutItem
	for _, item := range m.pending {
		result = append(result, item)
	}
	return result, nil
}

func (m *mockPayouts) ListHistory(ctx context.Context) ([]*entity.PayoutItem, error) {
	return nil, nil
}

func (m *mockPayouts) TotalPending(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, item := range m.pending {
		total += item.Amount
	}
	return total, nil
}

func (m *mockPayouts) Remove(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[requestID]; !ok {
		return fmt.Errorf("%w: %s", entity.ErrPayoutNotFound, requestID)
	}
	delete(m.pending, requestID)
	return nil
}

type mockRoster struct {
	mu        sync.Mutex
	employees map[string]entity.Employee
}

func (m *mockRoster) Add(ctx context.Context, emp *entity.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = *emp
	return nil
}

func (m *mockRoster) Get(ctx context.Context, id string) (*entity.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmployeeNotFound, id)
	}
	return &emp, nil
}

func (m *mockRoster) Update(ctx context.Context, emp *entity.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[emp.ID]; !ok {
		return fmt.Errorf("%w: %s", entity.ErrEmployeeNotFound, emp.ID)
	}
	m.employees[emp.ID] = *emp
	return nil
}

func (m *mockRoster) List(ctx context.Context, status string) ([]*entity.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Employee
	for _, emp := range m.employees {
		if status == "" || emp.Status == status {
			emp := emp
			result = append(result, &emp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// harness wires the services the way the container does, over in-memory fakes
type harness struct {
	now        time.Time
	registry   *registry.Registry
	bus        dispatcher.Bus
	history    *mockHistory
	ledger     *mockLedger
	payouts    *mockPayouts
	roster     *mockRoster
	translator *i18n.Translator
	editor     *template.Editor
	approvals  ApprovalService
	forms      FormService
	hr         HRService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		now:     time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local),
		history: &mockHistory{},
		ledger: &mockLedger{contracts: map[string]entity.Contract{
			"HT-001": {ID: "HT-001", Title: "万达广场广告牌更换项目", Amount: 120000, Paid: 45000},
		}},
		payouts: &mockPayouts{pending: map[string]*entity.PayoutItem{}},
		roster:  &mockRoster{employees: map[string]entity.Employee{}},
	}
	logger := &mockLogger{}

	h.registry = registry.New(zap.NewNop(), registry.WithClock(func() time.Time { return h.now }))
	h.bus = dispatcher.NewBus()
	t.Cleanup(func() { _ = h.bus.Close() })

	seed, err := template.LoadSeed("")
	require.NoError(t, err)
	templates := template.NewStore(zap.NewNop())
	require.NoError(t, templates.Seed(seed))
	h.editor = template.NewEditor(templates, zap.NewNop())

	h.translator, err = i18n.New("zh")
	require.NoError(t, err)

	feed := NewNotificationFeed(h.registry, h.bus, logger)
	effects := dispatcher.NewEffectDispatcher(h.ledger, h.payouts, feed, zap.NewNop())

	h.approvals = NewApprovalService(h.registry, decision.NewEngine(func() time.Time { return h.now }), effects, h.bus, templates, h.history, logger)
	h.forms = NewFormService(h.approvals, h.ledger, h.payouts, h.translator, logger)
	h.hr = NewHRService(h.roster, effects, h.translator, logger)

	NewJournal(h.history, logger).Register(h.bus)
	return h
}

func (h *harness) submit(t *testing.T, kind entity.Kind, related string, amount float64) entity.ApprovalRequest {
	t.Helper()
	req, err := h.approvals.Submit(context.Background(), entity.NewApprovalRequest{
		RequesterID:     "张伟",
		RequesterDept:   "行政部",
		Kind:            kind,
		AmountDisplay:   i18n.FormatCurrency(amount),
		Detail:          "测试申请",
		RelatedEntityID: related,
		Metadata:        &entity.Metadata{Amount: entity.Float(amount)},
	})
	require.NoError(t, err)
	return req
}
