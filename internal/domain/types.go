// Package domain holds the entities and parameter records exchanged between
// the storage layer, the session manager, and the MCP tool dispatcher.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a stable identity for either a worker process or the orchestrator.
type Agent struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Message is a point-to-point, immutable-once-written message between two agents.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Task groups related messages under an optional time budget.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	TimeBudgetSecs *int64     `json:"time_budget_secs,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TaskStatus is the computed time view of a Task at a reference instant.
type TaskStatus struct {
	Task          Task   `json:"task"`
	ElapsedSecs   *int64 `json:"elapsed_secs,omitempty"`
	RemainingSecs *int64 `json:"remaining_secs,omitempty"`
}

// RegisterAgent carries the parameters of an idempotent agent registration.
type RegisterAgent struct {
	Name        string
	Description string
}

// CreateMessage carries the parameters to persist a new message.
type CreateMessage struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	TaskID      *uuid.UUID
	Content     string
}

// CreateTask carries the parameters to persist a new task.
type CreateTask struct {
	Title          string
	CreatedBy      uuid.UUID
	TimeBudgetSecs *int64
}

// MessageFilter narrows a message query. Any unset field matches all messages.
type MessageFilter struct {
	TaskID      *uuid.UUID
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
}

// OrchestratorName is the reserved pseudo-agent representing the MCP
// orchestrator itself. It is auto-registered on first contact and excluded
// from list_agents results.
const OrchestratorName = "__orchestrator__"
