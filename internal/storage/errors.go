package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// AgentNotFoundError is returned when an agent lookup by name fails.
type AgentNotFoundError struct {
	Name string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found", e.Name)
}

// AgentNotFoundByIDError is returned when an agent lookup by id fails.
type AgentNotFoundByIDError struct {
	ID uuid.UUID
}

func (e *AgentNotFoundByIDError) Error() string {
	return fmt.Sprintf("agent %s not found", e.ID)
}

// TaskNotFoundError is returned when a task lookup fails.
type TaskNotFoundError struct {
	ID uuid.UUID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}
