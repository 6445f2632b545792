package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS agents (
	id uuid PRIMARY KEY,
	name text UNIQUE NOT NULL,
	description text NOT NULL DEFAULT '',
	registered_at timestamptz NOT NULL DEFAULT now(),
	last_seen_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	id uuid PRIMARY KEY,
	sender_id uuid NOT NULL,
	recipient_id uuid NOT NULL,
	task_id uuid,
	content text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS messages_task_id_idx ON messages (task_id);
CREATE INDEX IF NOT EXISTS messages_recipient_id_idx ON messages (recipient_id);

CREATE TABLE IF NOT EXISTS tasks (
	id uuid PRIMARY KEY,
	title text NOT NULL,
	created_by uuid NOT NULL,
	time_budget_secs bigint,
	started_at timestamptz,
	created_at timestamptz NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the agents, messages, and tasks tables if they do not
// already exist. It stands in for a migrations framework: no example in the
// reference corpus wires one up for Postgres specifically, so this follows
// the teacher's own idempotent-bootstrap pattern instead.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}
