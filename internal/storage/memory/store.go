// Package memory provides an in-memory implementation of the storage
// contracts, backing fast tests and standalone runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu sync.RWMutex

	agentsByID   map[uuid.UUID]*domain.Agent
	agentsByName map[string]uuid.UUID

	messages []domain.Message

	tasks map[uuid.UUID]*domain.Task
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		agentsByID:   make(map[uuid.UUID]*domain.Agent),
		agentsByName: make(map[string]uuid.UUID),
		tasks:        make(map[uuid.UUID]*domain.Task),
	}
}

var _ storage.Store = (*Store)(nil)

// Register implements storage.AgentRegistry.
func (s *Store) Register(_ context.Context, params domain.RegisterAgent) (domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if id, ok := s.agentsByName[params.Name]; ok {
		agent := s.agentsByID[id]
		agent.Description = params.Description
		agent.LastSeenAt = now
		return *agent, nil
	}

	agent := &domain.Agent{
		ID:           uuid.New(),
		Name:         params.Name,
		Description:  params.Description,
		RegisteredAt: now,
		LastSeenAt:   now,
	}
	s.agentsByID[agent.ID] = agent
	s.agentsByName[agent.Name] = agent.ID
	return *agent, nil
}

// GetByName implements storage.AgentRegistry.
func (s *Store) GetByName(_ context.Context, name string) (domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.agentsByName[name]
	if !ok {
		return domain.Agent{}, &storage.AgentNotFoundError{Name: name}
	}
	return *s.agentsByID[id], nil
}

// GetByID implements storage.AgentRegistry.
func (s *Store) GetByID(_ context.Context, id uuid.UUID) (domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agentsByID[id]
	if !ok {
		return domain.Agent{}, &storage.AgentNotFoundByIDError{ID: id}
	}
	return *agent, nil
}

// List implements storage.AgentRegistry.
func (s *Store) List(_ context.Context) ([]domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]domain.Agent, 0, len(s.agentsByID))
	for _, agent := range s.agentsByID {
		agents = append(agents, *agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

// Touch implements storage.AgentRegistry.
func (s *Store) Touch(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent, ok := s.agentsByID[id]; ok {
		agent.LastSeenAt = time.Now().UTC()
	}
	return nil
}

// CreateMessage implements storage.MessageStore.
func (s *Store) CreateMessage(_ context.Context, params domain.CreateMessage) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := domain.Message{
		ID:          uuid.New(),
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		TaskID:      params.TaskID,
		Content:     params.Content,
		CreatedAt:   time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// Query implements storage.MessageStore.
func (s *Store) Query(_ context.Context, filter domain.MessageFilter) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.Message
	for _, msg := range s.messages {
		if filter.TaskID != nil && (msg.TaskID == nil || *msg.TaskID != *filter.TaskID) {
			continue
		}
		if filter.SenderID != nil && msg.SenderID != *filter.SenderID {
			continue
		}
		if filter.RecipientID != nil && msg.RecipientID != *filter.RecipientID {
			continue
		}
		results = append(results, msg)
	}
	// s.messages is already append-ordered by created_at; preserve that order.
	return results, nil
}

// CreateTask implements storage.TaskStore.
func (s *Store) CreateTask(_ context.Context, params domain.CreateTask) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := domain.Task{
		ID:             uuid.New(),
		Title:          params.Title,
		CreatedBy:      params.CreatedBy,
		TimeBudgetSecs: params.TimeBudgetSecs,
		CreatedAt:      time.Now().UTC(),
	}
	s.tasks[task.ID] = &task
	return task, nil
}

// Get implements storage.TaskStore.
func (s *Store) Get(_ context.Context, id uuid.UUID) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, &storage.TaskNotFoundError{ID: id}
	}
	return *task, nil
}

// GetStatus implements storage.TaskStore.
func (s *Store) GetStatus(ctx context.Context, id uuid.UUID) (domain.TaskStatus, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return domain.TaskStatus{}, err
	}
	return domain.ComputeTaskStatus(task, time.Now().UTC()), nil
}

// MarkStarted implements storage.TaskStore. A missing id is not an error.
func (s *Store) MarkStarted(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.StartedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	task.StartedAt = &now
	return nil
}
