package postgres

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kandev/meddler/internal/domain"
)

// rowScanner is satisfied by both pgx.Row (QueryRow) and pgx.Rows (Query),
// letting the scan* helpers below serve both single-row and multi-row paths.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row pgx.Row) (domain.Agent, error) {
	return scanAgentFrom(row)
}

func scanAgentRows(rows pgx.Rows) (domain.Agent, error) {
	return scanAgentFrom(rows)
}

func scanAgentFrom(s rowScanner) (domain.Agent, error) {
	var a domain.Agent
	err := s.Scan(&a.ID, &a.Name, &a.Description, &a.RegisteredAt, &a.LastSeenAt)
	return a, err
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	return scanMessageFrom(row)
}

func scanMessageRows(rows pgx.Rows) (domain.Message, error) {
	return scanMessageFrom(rows)
}

func scanMessageFrom(s rowScanner) (domain.Message, error) {
	var m domain.Message
	var taskID *uuid.UUID
	err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &taskID, &m.Content, &m.CreatedAt)
	m.TaskID = taskID
	return m, err
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.Title, &t.CreatedBy, &t.TimeBudgetSecs, &t.StartedAt, &t.CreatedAt)
	return t, err
}
