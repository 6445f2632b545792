// Package postgres implements the storage contracts against a PostgreSQL
// database via pgxpool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kandev/meddler/internal/config"
	"github.com/kandev/meddler/internal/domain"
	"github.com/kandev/meddler/internal/storage"
)

// Store is a pgxpool-backed implementation of storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New creates a new Store, establishing and verifying a connection pool per
// the given database configuration.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Register implements storage.AgentRegistry.
func (s *Store) Register(ctx context.Context, params domain.RegisterAgent) (domain.Agent, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
			SET description = EXCLUDED.description,
			    last_seen_at = NOW()
		RETURNING id, name, description, registered_at, last_seen_at
	`, uuid.New(), params.Name, params.Description)

	return scanAgent(row)
}

// GetByName implements storage.AgentRegistry.
func (s *Store) GetByName(ctx context.Context, name string) (domain.Agent, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, name, description, registered_at, last_seen_at FROM agents WHERE name = $1", name)

	agent, err := scanAgent(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Agent{}, &storage.AgentNotFoundError{Name: name}
		}
		return domain.Agent{}, err
	}
	return agent, nil
}

// GetByID implements storage.AgentRegistry.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, name, description, registered_at, last_seen_at FROM agents WHERE id = $1", id)

	agent, err := scanAgent(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Agent{}, &storage.AgentNotFoundByIDError{ID: id}
		}
		return domain.Agent{}, err
	}
	return agent, nil
}

// List implements storage.AgentRegistry.
func (s *Store) List(ctx context.Context) ([]domain.Agent, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, description, registered_at, last_seen_at FROM agents ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		agent, err := scanAgentRows(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// Touch implements storage.AgentRegistry.
func (s *Store) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "UPDATE agents SET last_seen_at = NOW() WHERE id = $1", id)
	return err
}

// CreateMessage implements storage.MessageStore.
func (s *Store) CreateMessage(ctx context.Context, params domain.CreateMessage) (domain.Message, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, task_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sender_id, recipient_id, task_id, content, created_at
	`, uuid.New(), params.SenderID, params.RecipientID, params.TaskID, params.Content)

	return scanMessage(row)
}

// Query implements storage.MessageStore.
func (s *Store) Query(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, task_id, content, created_at
		FROM messages
		WHERE ($1::uuid IS NULL OR task_id = $1)
		  AND ($2::uuid IS NULL OR sender_id = $2)
		  AND ($3::uuid IS NULL OR recipient_id = $3)
		ORDER BY created_at ASC
	`, filter.TaskID, filter.SenderID, filter.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateTask implements storage.TaskStore.
func (s *Store) CreateTask(ctx context.Context, params domain.CreateTask) (domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, created_by, time_budget_secs)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, created_by, time_budget_secs, started_at, created_at
	`, uuid.New(), params.Title, params.CreatedBy, params.TimeBudgetSecs)

	return scanTask(row)
}

// Get implements storage.TaskStore.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, title, created_by, time_budget_secs, started_at, created_at FROM tasks WHERE id = $1", id)

	task, err := scanTask(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Task{}, &storage.TaskNotFoundError{ID: id}
		}
		return domain.Task{}, err
	}
	return task, nil
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
func (s *Store) MarkStarted(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE tasks SET started_at = NOW() WHERE id = $1 AND started_at IS NULL", id)
	return err
}

func isNoRows(err error) bool {
	return err == pgx.ErrNoRows
}
