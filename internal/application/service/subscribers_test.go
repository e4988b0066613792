package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
	"github.com/garyjia/signage-ops/internal/i18n"
)

type mockMetrics struct {
	submitted []string
	decided   []string
	notices   []string
	failed    []string
	pending   int
}

func (m *mockMetrics) RequestSubmitted(kind string) { m.submitted = append(m.submitted, kind) }
func (m *mockMetrics) RequestDecided(kind, status string) {
	m.decided = append(m.decided, kind+"/"+status)
}
func (m *mockMetrics) NoticeAppended(kind string)     { m.notices = append(m.notices, kind) }
func (m *mockMetrics) EffectFailed(effectType string) { m.failed = append(m.failed, effectType) }
func (m *mockMetrics) SetPending(n int)               { m.pending = n }

type mockBroadcaster struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.texts = append(m.texts, text)
	return nil
}

func TestMetricsObserver_CountsLifecycle(t *testing.T) {
	h := newHarness(t)
	m := &mockMetrics{}
	NewMetricsObserver(m, h.registry).Register(h.bus)
	ctx := context.Background()

	ok := h.submit(t, entity.KindContractRemittance, "HT-001", 100)
	broken := h.submit(t, entity.KindContractRemittance, "HT-404", 100)
	_, err := h.approvals.Decide(ctx, ok.ID, entity.DecisionApproved, "")
	require.NoError(t, err)
	_, err = h.approvals.Decide(ctx, broken.ID, entity.DecisionApproved, "")
	require.Error(t, err)
	onboard(t, h, "王五")

	assert.Equal(t, []string{"contract-remittance", "contract-remittance"}, m.submitted)
	assert.Equal(t, []string{"contract-remittance/approved", "contract-remittance/approved"}, m.decided)
	assert.Equal(t, []string{"IncreaseContractPaid"}, m.failed)
	assert.Equal(t, []string{"staff-lifecycle-notice"}, m.notices)
	assert.Equal(t, 0, m.pending)
}

func TestFeedAnnouncer_Text(t *testing.T) {
	translator, err := i18n.New("zh")
	require.NoError(t, err)
	f := NewFeedAnnouncer(&mockBroadcaster{}, translator, &mockLogger{})
	req := entity.ApprovalRequest{ID: "ADV-1", Kind: entity.KindAdvancePayment, Status: entity.StatusApproved, Detail: "预支事由：出差"}

	// reader locale never leaks into the shared chat
	ctx := i18n.WithLocale(context.Background(), "en")

	decided := event.NewEvent(event.TypeRequestApproved, req, nil).WithActor("王经理")
	assert.Equal(t, "审批【ADV-1】预支申请已通过，审批人：王经理", f.Text(ctx, decided))

	failed := event.NewEvent(event.TypeEffectFailed, req, map[string]interface{}{"effect": "IncreaseContractPaid(HT-404, 100.00)"})
	assert.Equal(t, "审批【ADV-1】已生效，但联动处理失败：IncreaseContractPaid(HT-404, 100.00)", f.Text(ctx, failed))

	notice := event.NewEvent(event.TypeNoticeAppended, req, nil)
	assert.Equal(t, "预支事由：出差", f.Text(ctx, notice))

	submitted := event.NewEvent(event.TypeRequestSubmitted, req, nil)
	assert.Empty(t, f.Text(ctx, submitted))
}

func TestFeedAnnouncer_BroadcastsNoticesAsync(t *testing.T) {
	h := newHarness(t)
	feed := &mockBroadcaster{}
	NewFeedAnnouncer(feed, h.translator, &mockLogger{}).Register(h.bus)

	onboard(t, h, "王五")
	require.NoError(t, h.bus.Close())

	feed.mu.Lock()
	defer feed.mu.Unlock()
	require.Len(t, feed.texts, 1)
	assert.Contains(t, feed.texts[0], "王五")
}

func TestFeedAnnouncer_HandleReturnsBroadcastError(t *testing.T) {
	translator, err := i18n.New("zh")
	require.NoError(t, err)
	f := NewFeedAnnouncer(&mockBroadcaster{err: errors.New("lark down")}, translator, &mockLogger{})

	evt := event.NewEvent(event.TypeNoticeAppended, entity.ApprovalRequest{ID: "NOTIFY-JOIN-1", Detail: "入职备案"}, nil)

	assert.EqualError(t, f.Handle(context.Background(), evt), "lark down")
}

func TestJournal_RecordsEffectFailurePayload(t *testing.T) {
	history := &mockHistory{}
	j := NewJournal(history, &mockLogger{})
	req := entity.ApprovalRequest{ID: "PAY-1", Status: entity.StatusApproved}

	err := j.Handle(context.Background(), event.NewEvent(event.TypeEffectFailed, req, map[string]interface{}{
		"effect": "RemoveFromPendingPayoutQueue(PAY-1)",
		"error":  "payout item not found: PAY-1",
	}))

	require.NoError(t, err)
	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	assert.Equal(t, entity.ActionEffectFailed, entry.ActionType)
	assert.Equal(t, "approved", entry.NewStatus)
	assert.JSONEq(t, `{"effect":"RemoveFromPendingPayoutQueue(PAY-1)","error":"payout item not found: PAY-1"}`, entry.ActionData)
}
