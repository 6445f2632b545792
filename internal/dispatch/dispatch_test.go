package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/jsonrpc"
	"github.com/kandev/meddler/internal/logger"
	"github.com/kandev/meddler/internal/session"
	"github.com/kandev/meddler/internal/storage/memory"
)

func newTestDispatcher() (*Dispatcher, *memory.Store, *session.Manager) {
	store := memory.New()
	sessions := session.NewManager()
	d := New(store, store, store, sessions, logger.Default(), "test")
	return d, store, sessions
}

func rpcRequest(id, method string, params any) jsonrpc.Request {
	var raw json.RawMessage
	if params != nil {
		data, _ := json.Marshal(params)
		raw = data
	}
	return jsonrpc.Request{JSONRPC: "2.0", ID: json.RawMessage(id), Method: method, Params: raw}
}

func TestInitializeReturnsServerInfo(t *testing.T) {
	d, _, _ := newTestDispatcher()
	resp := d.Dispatch(context.Background(), rpcRequest(`1`, "initialize", nil))
	require.Nil(t, resp.Error)

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	serverInfo, ok := result["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "meddler", serverInfo["name"])
}

func TestToolsListReturnsFiveTools(t *testing.T) {
	d, _, _ := newTestDispatcher()
	resp := d.Dispatch(context.Background(), rpcRequest(`1`, "tools/list", nil))
	require.Nil(t, resp.Error)

	var result struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Len(t, result.Tools, 5)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher()
	resp := d.Dispatch(context.Background(), rpcRequest(`1`, "bogus/method", nil))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, resp.Error.Code)
}

func TestDispatchRegistersOrchestrator(t *testing.T) {
	d, store, _ := newTestDispatcher()
	d.Dispatch(context.Background(), rpcRequest(`1`, "tools/list", nil))

	agent, err := store.GetByName(context.Background(), domain.OrchestratorName)
	require.NoError(t, err)
	assert.Equal(t, domain.OrchestratorName, agent.Name)
}

func TestListAgentsExcludesOrchestrator(t *testing.T) {
	d, store, _ := newTestDispatcher()
	ctx := context.Background()
	_, err := store.Register(ctx, domain.RegisterAgent{Name: "worker-1", Description: "a worker"})
	require.NoError(t, err)

	resp := d.Dispatch(ctx, rpcRequest(`1`, "tools/call", map[string]any{"name": "list_agents"}))
	require.Nil(t, resp.Error)

	text := extractText(t, resp)
	assert.Contains(t, text, "worker-1")
	assert.NotContains(t, text, domain.OrchestratorName)
}

func TestSendMessageMissingToIsInvalidParams(t *testing.T) {
	d, _, _ := newTestDispatcher()
	resp := d.Dispatch(context.Background(), rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "send_message",
		"arguments": map[string]any{"content": "hi"},
	}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, resp.Error.Code)
}

func TestSendMessageInvalidTaskIDIsInvalidParams(t *testing.T) {
	d, store, _ := newTestDispatcher()
	ctx := context.Background()
	_, err := store.Register(ctx, domain.RegisterAgent{Name: "worker-1", Description: "a worker"})
	require.NoError(t, err)

	resp := d.Dispatch(ctx, rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "send_message",
		"arguments": map[string]any{"to": "worker-1", "content": "hi", "task_id": "not-a-uuid"},
	}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, resp.Error.Code)
}

func TestSendMessagePersistsThenPublishes(t *testing.T) {
	d, store, sessions := newTestDispatcher()
	ctx := context.Background()
	_, err := store.Register(ctx, domain.RegisterAgent{Name: "worker-1", Description: "a worker"})
	require.NoError(t, err)

	sub := sessions.Subscribe("worker-1")
	defer sub.Close()

	resp := d.Dispatch(ctx, rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "send_message",
		"arguments": map[string]any{"to": "worker-1", "content": "hello"},
	}))
	require.Nil(t, resp.Error)

	text := extractText(t, resp)
	assert.Contains(t, text, `"delivered": true`)

	msgs, err := store.Query(ctx, domain.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)

	evt, ok := sub.Recv(ctx)
	require.True(t, ok)
	require.NotNil(t, evt.Message)
	assert.Equal(t, "hello", evt.Message.Content)
}

func TestCreateTaskAndGetStatus(t *testing.T) {
	d, _, _ := newTestDispatcher()
	ctx := context.Background()

	createResp := d.Dispatch(ctx, rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "create_task",
		"arguments": map[string]any{"title": "ship it", "time_budget_secs": 3600},
	}))
	require.Nil(t, createResp.Error)

	var created struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(extractText(t, createResp)), &created))
	require.NotEmpty(t, created.TaskID)

	statusResp := d.Dispatch(ctx, rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "get_task_status",
		"arguments": map[string]any{"task_id": created.TaskID},
	}))
	require.Nil(t, statusResp.Error)
	assert.Contains(t, extractText(t, statusResp), "ship it")
}

func TestGetTaskStatusUnknownIDIsInternalError(t *testing.T) {
	d, _, _ := newTestDispatcher()
	resp := d.Dispatch(context.Background(), rpcRequest(`1`, "tools/call", map[string]any{
		"name":      "get_task_status",
		"arguments": map[string]any{"task_id": "8e3f1b2c-0000-4000-8000-000000000000"},
	}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, resp.Error.Code)
}

func extractText(t *testing.T, resp jsonrpc.Response) string {
	t.Helper()
	var envelope struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &envelope))
	require.Len(t, envelope.Content, 1)
	return envelope.Content[0].Text
}
