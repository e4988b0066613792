package lark

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSender struct {
	mu    sync.Mutex
	calls [][3]string
	err   error
}

func (m *mockSender) SendText(ctx context.Context, receiveIDType, receiveID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, [3]string{receiveIDType, receiveID, text})
	return m.err
}

func TestBroadcaster_SendsToChat(t *testing.T) {
	sender := &mockSender{}
	b := NewBroadcaster(sender, "oc_management")

	require.NoError(t, b.Broadcast(context.Background(), "审批【REM-1】合同回款已通过"))

	require.Len(t, sender.calls, 1)
	assert.Equal(t, [3]string{"chat_id", "oc_management", "审批【REM-1】合同回款已通过"}, sender.calls[0])
}

func TestBroadcaster_PropagatesError(t *testing.T) {
	down := errors.New("lark down")
	b := NewBroadcaster(&mockSender{err: down}, "oc_management")

	assert.ErrorIs(t, b.Broadcast(context.Background(), "x"), down)
}

func TestMessenger_Validation(t *testing.T) {
	m := NewMessenger(NewSDKClient(Config{AppID: "cli_test", AppSecret: "secret"}, zap.NewNop()), zap.NewNop())

	assert.Error(t, m.SendText(context.Background(), ReceiveIDTypeChat, "", "hello"))
	assert.Error(t, m.SendText(context.Background(), ReceiveIDTypeChat, "oc_1", ""))
}

func TestMessenger_SendText(t *testing.T) {
	var (
		mu      sync.Mutex
		gotBody map[string]interface{}
		gotType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "tenant_access_token"):
			_, _ = io.WriteString(w, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`)
		case strings.HasSuffix(r.URL.Path, "/im/v1/messages"):
			mu.Lock()
			gotType = r.URL.Query().Get("receive_id_type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			mu.Unlock()
			_, _ = io.WriteString(w, `{"code":0,"msg":"success","data":{"message_id":"om_1"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	sdk := NewSDKClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: server.URL}, zap.NewNop())
	m := NewMessenger(sdk, zap.NewNop())

	err := m.SendText(context.Background(), ReceiveIDTypeChat, "oc_1", `员工【王芳】"已入职"`)

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "chat_id", gotType)
	assert.Equal(t, "oc_1", gotBody["receive_id"])
	assert.Equal(t, "text", gotBody["msg_type"])

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(gotBody["content"].(string)), &content))
	assert.Equal(t, `员工【王芳】"已入职"`, content["text"])
}
