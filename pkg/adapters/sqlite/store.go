package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
)

// Store implements ports.AutomationStore on SQLite. Step and edge data is
// kept as JSON documents; the row carries the queryable metadata.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS automations (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		trigger_type TEXT NOT NULL DEFAULT '',
		trigger_config TEXT NOT NULL DEFAULT '{}',
		workflow TEXT NOT NULL DEFAULT '[]',
		connections TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_automations_status ON automations(status);
	`

	_, err := s.db.Exec(ddl)
	return err
}

// Put saves or replaces the record under its name.
func (s *Store) Put(ctx context.Context, a *schema.Automation) error {
	if a.Name == "" {
		return fmt.Errorf("automation missing name")
	}

	triggerCfg, err := json.Marshal(orEmptyMap(a.TriggerConfig))
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}
	workflow, err := json.Marshal(orEmptySteps(a.Workflow))
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}
	connections, err := json.Marshal(orEmptyEdges(a.Connections))
	if err != nil {
		return fmt.Errorf("failed to marshal connections: %w", err)
	}

	now := time.Now().UTC()
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO automations (name, description, trigger_type, trigger_config, workflow, connections, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			trigger_type = excluded.trigger_type,
			trigger_config = excluded.trigger_config,
			workflow = excluded.workflow,
			connections = excluded.connections,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		a.Name, a.Description, a.TriggerType, string(triggerCfg), string(workflow), string(connections), a.Status, createdAt, now,
	)
	return err
}

// Get loads a record by name.
func (s *Store) Get(ctx context.Context, name string) (*schema.Automation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, description, trigger_type, trigger_config, workflow, connections, status, created_at, updated_at
		 FROM automations WHERE name = ?`, name,
	)

	var (
		a           schema.Automation
		triggerCfg  string
		workflow    string
		connections string
	)
	err := row.Scan(&a.Name, &a.Description, &a.TriggerType, &triggerCfg, &workflow, &connections, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAutomationNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(triggerCfg), &a.TriggerConfig); err != nil {
		return nil, fmt.Errorf("automation %q: corrupt trigger config: %w", name, err)
	}
	if err := json.Unmarshal([]byte(workflow), &a.Workflow); err != nil {
		return nil, fmt.Errorf("automation %q: corrupt workflow: %w", name, err)
	}
	if err := json.Unmarshal([]byte(connections), &a.Connections); err != nil {
		return nil, fmt.Errorf("automation %q: corrupt connections: %w", name, err)
	}
	return &a, nil
}

// Delete removes a record by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM automations WHERE name = ?`, name)
	return err
}

// List returns all stored automation names, newest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM automations ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListByStatus returns names of automations in the given lifecycle status.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM automations WHERE status = ? ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySteps(s []schema.StepRecord) []schema.StepRecord {
	if s == nil {
		return []schema.StepRecord{}
	}
	return s
}

func orEmptyEdges(e []schema.EdgeRecord) []schema.EdgeRecord {
	if e == nil {
		return []schema.EdgeRecord{}
	}
	return e
}
