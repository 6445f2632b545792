// Package dispatch maps MCP JSON-RPC methods — initialize, tools/list, and
// tools/call — onto the storage contracts and the session manager.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/jsonrpc"
	"github.com/kandev/meddler/internal/logger"
	"github.com/kandev/meddler/internal/mcptools"
	"github.com/kandev/meddler/internal/session"
	"github.com/kandev/meddler/internal/storage"
)

const protocolVersion = "2024-11-05"

// toolError carries the JSON-RPC error code a failed tool call should
// surface, distinguishing malformed input (invalid params) from everything
// else (internal error).
type toolError struct {
	code    int
	message string
}

func (e *toolError) Error() string { return e.message }

func invalidParams(format string, args ...any) *toolError {
	return &toolError{code: jsonrpc.CodeInvalidParams, message: fmt.Sprintf(format, args...)}
}

func internalErr(err error) *toolError {
	return &toolError{code: jsonrpc.CodeInternalError, message: err.Error()}
}

// Dispatcher handles MCP requests once the transport layer has already
// separated notifications from requests.
type Dispatcher struct {
	agents   storage.AgentRegistry
	messages storage.MessageStore
	tasks    storage.TaskStore
	sessions *session.Manager
	log      *logger.Logger
	version  string
}

// New constructs a Dispatcher over the given storage contracts and session manager.
func New(agents storage.AgentRegistry, messages storage.MessageStore, tasks storage.TaskStore, sessions *session.Manager, log *logger.Logger, version string) *Dispatcher {
	return &Dispatcher{agents: agents, messages: messages, tasks: tasks, sessions: sessions, log: log, version: version}
}

// EnsureOrchestrator idempotently registers the __orchestrator__ pseudo-agent.
func (d *Dispatcher) EnsureOrchestrator(ctx context.Context) (domain.Agent, error) {
	return d.agents.Register(ctx, domain.RegisterAgent{
		Name:        domain.OrchestratorName,
		Description: "MCP orchestrator",
	})
}

// Dispatch handles a non-notification JSON-RPC request: it ensures the
// orchestrator pseudo-agent is registered, then routes by method.
func (d *Dispatcher) Dispatch(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	if _, err := d.EnsureOrchestrator(ctx); err != nil {
		d.log.Warn("failed to register orchestrator", zap.Error(err))
	}

	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	default:
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.CodeMethodNotFound, "Method not found")
	}
}

func (d *Dispatcher) handleInitialize(req jsonrpc.Request) jsonrpc.Response {
	return jsonrpc.Success(req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    "meddler",
			"version": d.version,
		},
	})
}

func (d *Dispatcher) handleToolsList(req jsonrpc.Request) jsonrpc.Response {
	return jsonrpc.Success(req.ID, map[string]any{"tools": mcptools.Definitions()})
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	if len(req.Params) == 0 {
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.CodeInvalidParams, "Missing params")
	}

	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.CodeInvalidParams, "Missing params")
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := d.callTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var te *toolError
		if errors.As(err, &te) {
			return jsonrpc.ErrorResponse(req.ID, te.code, te.message)
		}
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.CodeInternalError, err.Error())
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.CodeInternalError, err.Error())
	}

	return jsonrpc.Success(req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(pretty)},
		},
	})
}

func (d *Dispatcher) callTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "list_agents":
		return d.toolListAgents(ctx)
	case "send_message":
		return d.toolSendMessage(ctx, args)
	case "get_messages":
		return d.toolGetMessages(ctx, args)
	case "create_task":
		return d.toolCreateTask(ctx, args)
	case "get_task_status":
		return d.toolGetTaskStatus(ctx, args)
	default:
		return nil, &toolError{code: jsonrpc.CodeInternalError, message: fmt.Sprintf("Unknown tool: %s", name)}
	}
}

func (d *Dispatcher) toolListAgents(ctx context.Context) (any, error) {
	agents, err := d.agents.List(ctx)
	if err != nil {
		return nil, internalErr(err)
	}

	result := make([]map[string]any, 0, len(agents))
	for _, a := range agents {
		if a.Name == domain.OrchestratorName {
			continue
		}
		result = append(result, map[string]any{
			"name":        a.Name,
			"description": a.Description,
			"connected":   d.sessions.IsConnected(a.Name),
		})
	}
	return map[string]any{"agents": result}, nil
}

type sendMessageArgs struct {
	To      string  `json:"to"`
	Content string  `json:"content"`
	TaskID  *string `json:"task_id"`
}

func (d *Dispatcher) toolSendMessage(ctx context.Context, raw json.RawMessage) (any, error) {
	var args sendMessageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, invalidParams("invalid arguments")
	}
	if args.To == "" {
		return nil, invalidParams("Missing 'to' parameter")
	}
	if args.Content == "" {
		return nil, invalidParams("Missing 'content' parameter")
	}

	taskID, err := parseOptionalUUID(args.TaskID)
	if err != nil {
		return nil, invalidParams("Invalid task_id: %v", err)
	}

	sender, err := d.agents.GetByName(ctx, domain.OrchestratorName)
	if err != nil {
		return nil, internalErr(err)
	}
	recipient, err := d.agents.GetByName(ctx, args.To)
	if err != nil {
		return nil, internalErr(fmt.Errorf("recipient agent '%s' not found: %w", args.To, err))
	}

	if taskID != nil {
		_ = d.tasks.MarkStarted(ctx, *taskID)
	}

	msg, err := d.messages.CreateMessage(ctx, domain.CreateMessage{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		TaskID:      taskID,
		Content:     args.Content,
	})
	if err != nil {
		return nil, internalErr(err)
	}

	delivered := d.sessions.Notify(args.To, session.AgentMessageEvent(msg))

	return map[string]any{"message_id": msg.ID, "delivered": delivered}, nil
}

type getMessagesArgs struct {
	TaskID    *string `json:"task_id"`
	Sender    *string `json:"sender"`
	Recipient *string `json:"recipient"`
}

func (d *Dispatcher) toolGetMessages(ctx context.Context, raw json.RawMessage) (any, error) {
	var args getMessagesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, invalidParams("invalid arguments")
	}

	taskID, err := parseOptionalUUID(args.TaskID)
	if err != nil {
		return nil, invalidParams("Invalid task_id: %v", err)
	}

	var senderID, recipientID *uuid.UUID
	if args.Sender != nil {
		agent, err := d.agents.GetByName(ctx, *args.Sender)
		if err != nil {
			return nil, internalErr(fmt.Errorf("sender '%s' not found: %w", *args.Sender, err))
		}
		senderID = &agent.ID
	}
	if args.Recipient != nil {
		agent, err := d.agents.GetByName(ctx, *args.Recipient)
		if err != nil {
			return nil, internalErr(fmt.Errorf("recipient '%s' not found: %w", *args.Recipient, err))
		}
		recipientID = &agent.ID
	}

	messages, err := d.messages.Query(ctx, domain.MessageFilter{
		TaskID:      taskID,
		SenderID:    senderID,
		RecipientID: recipientID,
	})
	if err != nil {
		return nil, internalErr(err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return map[string]any{"messages": messages}, nil
}

type createTaskArgs struct {
	Title          string `json:"title"`
	TimeBudgetSecs *int64 `json:"time_budget_secs"`
}

func (d *Dispatcher) toolCreateTask(ctx context.Context, raw json.RawMessage) (any, error) {
	var args createTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, invalidParams("invalid arguments")
	}
	if args.Title == "" {
		return nil, invalidParams("Missing 'title' parameter")
	}

	creator, err := d.agents.GetByName(ctx, domain.OrchestratorName)
	if err != nil {
		return nil, internalErr(err)
	}

	task, err := d.tasks.CreateTask(ctx, domain.CreateTask{
		Title:          args.Title,
		CreatedBy:      creator.ID,
		TimeBudgetSecs: args.TimeBudgetSecs,
	})
	if err != nil {
		return nil, internalErr(err)
	}

	return map[string]any{"task_id": task.ID, "title": task.Title}, nil
}

type getTaskStatusArgs struct {
	TaskID string `json:"task_id"`
}

func (d *Dispatcher) toolGetTaskStatus(ctx context.Context, raw json.RawMessage) (any, error) {
	var args getTaskStatusArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, invalidParams("invalid arguments")
	}
	if args.TaskID == "" {
		return nil, invalidParams("Missing 'task_id' parameter")
	}

	id, err := uuid.Parse(args.TaskID)
	if err != nil {
		return nil, invalidParams("Invalid task_id: %v", err)
	}

	status, err := d.tasks.GetStatus(ctx, id)
	if err != nil {
		return nil, internalErr(err)
	}
	return status, nil
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
