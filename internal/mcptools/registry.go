// Package mcptools holds the static catalog of MCP tool definitions exposed
// to the orchestrator via tools/list and tools/call.
package mcptools

// Definition describes one MCP tool: its name, human description, and
// JSON-Schema input shape.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Definitions returns the five tools the broker exposes, in the fixed order
// of the tools/list result.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        "list_agents",
			Description: "List all registered agents and their descriptions.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name:        "send_message",
			Description: "Send a message to a specific agent by name. Returns the message ID. The response will arrive via SSE notification.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to": map[string]any{
						"type":        "string",
						"description": "Name of the recipient agent",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "Message content to send",
					},
					"task_id": map[string]any{
						"type":        "string",
						"description": "Optional task ID to group related messages",
					},
				},
				"required": []string{"to", "content"},
			},
		},
		{
			Name:        "get_messages",
			Description: "Retrieve message history with optional filters.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "Filter by task ID",
					},
					"sender": map[string]any{
						"type":        "string",
						"description": "Filter by sender agent name",
					},
					"recipient": map[string]any{
						"type":        "string",
						"description": "Filter by recipient agent name",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a new task to group related messages. Optionally set a time budget in seconds.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Title of the task",
					},
					"time_budget_secs": map[string]any{
						"type":        "integer",
						"description": "Optional time budget in seconds (e.g., 28800 for 8 hours)",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        "get_task_status",
			Description: "Get the status of a task, including elapsed and remaining time.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "The task ID to check",
					},
				},
				"required": []string{"task_id"},
			},
		},
	}
}
