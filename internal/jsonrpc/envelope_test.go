package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":null}`
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, "tools/list", req.Method)
	assert.False(t, req.IsNotification())
}

func TestNotificationWithNullID(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":null,"method":"notifications/initialized"}`
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.True(t, req.IsNotification())
}

func TestNotificationWithAbsentID(t *testing.T) {
	raw := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.True(t, req.IsNotification())
}

func TestSuccessResponseOmitsError(t *testing.T) {
	resp := Success(json.RawMessage("1"), map[string]any{"tools": []string{}})
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
}

func TestErrorResponseOmitsResult(t *testing.T) {
	resp := ErrorResponse(json.RawMessage("1"), CodeMethodNotFound, "Method not found")
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"result"`)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}
