package mcptools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllToolsDefined(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 5)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.Contains(t, names, "list_agents")
	assert.Contains(t, names, "send_message")
	assert.Contains(t, names, "get_messages")
	assert.Contains(t, names, "create_task")
	assert.Contains(t, names, "get_task_status")
}

func TestToolsSerializeWithInputSchemaKey(t *testing.T) {
	data, err := json.Marshal(Definitions())
	require.NoError(t, err)
	assert.Contains(t, string(data), "inputSchema")
	assert.Contains(t, string(data), "list_agents")
}

func TestSendMessageHasRequiredParams(t *testing.T) {
	var send Definition
	for _, d := range Definitions() {
		if d.Name == "send_message" {
			send = d
		}
	}
	required, ok := send.InputSchema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "to")
	assert.Contains(t, required, "content")
}
