// Package storage defines the persistence contracts the dispatch layer
// depends on, and the sentinel errors implementations surface for them.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/kandev/meddler/internal/domain"
)

// AgentRegistry manages agent identity and liveness bookkeeping.
type AgentRegistry interface {
	// Register is idempotent by name: on collision it returns the existing
	// agent with description refreshed and last_seen_at bumped.
	Register(ctx context.Context, params domain.RegisterAgent) (domain.Agent, error)
	GetByName(ctx context.Context, name string) (domain.Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	// Touch bumps last_seen_at; a missing id is not an error.
	Touch(ctx context.Context, id uuid.UUID) error
}

// MessageStore manages the append-only message history.
type MessageStore interface {
	CreateMessage(ctx context.Context, params domain.CreateMessage) (domain.Message, error)
	Query(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, error)
}

// TaskStore manages tasks and their time-budget status.
type TaskStore interface {
	CreateTask(ctx context.Context, params domain.CreateTask) (domain.Task, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Task, error)
	GetStatus(ctx context.Context, id uuid.UUID) (domain.TaskStatus, error)
	// MarkStarted sets started_at only if currently unset; a missing id is
	// not an error.
	MarkStarted(ctx context.Context, id uuid.UUID) error
}

// Store is the union of all three capability sets. A single concrete
// implementation may provide all three, but callers should depend on the
// narrowest interface they need.
type Store interface {
	AgentRegistry
	MessageStore
	TaskStore
}
