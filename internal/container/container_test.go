package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
	"github.com/garyjia/signage-ops/pkg/database"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = database.MemoryPath
	return cfg
}

func startContainer(t *testing.T, cfg *Config) *Container {
	t.Helper()
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Lark.Enabled = true
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_StartAndHealth(t *testing.T) {
	c := startContainer(t, testConfig())

	assert.True(t, c.Ready())
	health := c.Health()
	assert.Equal(t, "ok", health["database"])
	assert.Equal(t, "ok (4)", health["templates"])
	assert.Equal(t, "disabled", health["lark_feed"])
	assert.Equal(t, "enabled", health["metrics"])

	deps := c.HTTPDependencies()
	assert.NotNil(t, deps.Approvals)
	assert.NotNil(t, deps.Metrics)
	assert.Equal(t, c, deps.Health)
}

func TestContainer_StartTwice(t *testing.T) {
	c := startContainer(t, testConfig())
	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_ServicesShareOneJournal(t *testing.T) {
	c := startContainer(t, testConfig())
	ctx := context.Background()
	services := c.Services()

	req, err := services.Forms.SubmitRemittance(ctx, service.RemittanceForm{
		RequesterID: "张伟", ContractID: "HT-001", Amount: 1000,
	})
	require.NoError(t, err)

	_, err = services.Approvals.Decide(ctx, req.ID, entity.DecisionApproved, "王经理")
	require.NoError(t, err)

	contract, err := c.Repositories().Contracts.Get(ctx, "HT-001")
	require.NoError(t, err)
	assert.Equal(t, 46000.0, contract.Paid)

	history, err := services.Approvals.History(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.ActionSubmit, history[0].ActionType)
	assert.Equal(t, entity.ActionDecide, history[1].ActionType)
}

func TestContainer_LarkFeedSubscribes(t *testing.T) {
	cfg := testConfig()
	cfg.Lark = LarkConfig{Enabled: true, AppID: "cli_test", AppSecret: "secret", NotifyChatID: "oc_mgmt"}
	c := startContainer(t, cfg)

	assert.Equal(t, "enabled", c.Health()["lark_feed"])

	var names []string
	for _, h := range c.Bus().Handlers(event.TypeNoticeAppended) {
		names = append(names, h.Name)
		if h.Name == "lark-feed" {
			assert.True(t, h.Async)
		}
	}
	assert.Contains(t, names, "lark-feed")
}

func TestContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	c := startContainer(t, cfg)

	assert.Nil(t, c.HTTPDependencies().Metrics)
	assert.Equal(t, "disabled", c.Health()["metrics"])
}

func TestContainer_Close(t *testing.T) {
	c, err := NewContainer(testConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Equal(t, "down", c.Health()["database"])
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_StartCancelled(t *testing.T) {
	c, err := NewContainer(testConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Start(ctx), context.Canceled)
	assert.False(t, c.Ready())
}
