// Package taskstore is the persistence layer for the TODO task graph.
//
// It owns the task records the graph engine's detector only ever sees as
// snapshots. Every dependency mutation follows validate-then-commit: the
// store takes its single-writer lock, builds an immutable snapshot, runs
// the detector's composite gate against it, and only then writes. Two
// racing mutations can therefore never both validate against a stale
// snapshot — the classic check-then-act race is closed by the lock, not
// by the (lock-free, pure) graph engine.
package taskstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/avigueras/deckhand/internal/graph"
)

// --- Types ---

// Status tracks the lifecycle of a TODO task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// validStatuses is the set of allowed task statuses.
var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: pending, in_progress, completed", s)
	}
	return nil
}

// Task is one TODO item in the dependency graph.
type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Status       Status   `json:"status"`
	Dependencies []string `json:"dependencies"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// CreateParams holds the input for creating a new task.
type CreateParams struct {
	ID           string   `json:"id,omitempty"` // generated when empty
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// --- Config ---

// Config holds task store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration. The data directory
// can be overridden with DECKHAND_DATA.
func DefaultConfig() Config {
	if dir := os.Getenv("DECKHAND_DATA"); dir != "" {
		return Config{DataDir: dir}
	}
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".deckhand")}
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// --- Store ---

// Store persists the TODO task graph in SQLite.
//
// mu serializes every mutation (single-writer discipline): the snapshot
// a mutation validates against cannot go stale before its commit.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the task database under cfg.DataDir, applies
// pragmas and migrations, and returns the store.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("taskstore: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "tasks.db"))
	if err != nil {
		return nil, fmt.Errorf("taskstore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("taskstore: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("taskstore: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending',
			dependencies TEXT NOT NULL DEFAULT '[]',
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Reads ---

// Get returns one task by id.
func (s *Store) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id string) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, status, dependencies, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	return scanTask(row.Scan)
}

// List returns all tasks ordered by creation time, then id.
func (s *Store) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, title, description, status, dependencies, created_at, updated_at
		 FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("taskstore: list: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Snapshot returns the detector's view of the current task graph.
// The returned map is a copy; mutating it affects nothing.
func (s *Store) Snapshot() (map[string]graph.TodoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() (map[string]graph.TodoTask, error) {
	rows, err := s.db.Query(`SELECT id, title, dependencies FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("taskstore: snapshot: %w", err)
	}
	defer rows.Close()

	snap := make(map[string]graph.TodoTask)
	for rows.Next() {
		var t graph.TodoTask
		var depsJSON string
		if err := rows.Scan(&t.ID, &t.Title, &depsJSON); err != nil {
			return nil, fmt.Errorf("taskstore: snapshot scan: %w", err)
		}
		if err := json.Unmarshal([]byte(depsJSON), &t.Dependencies); err != nil {
			return nil, fmt.Errorf("taskstore: task %s has corrupt dependencies: %w", t.ID, err)
		}
		snap[t.ID] = t
	}
	return snap, rows.Err()
}

// Audit runs the detector over the whole graph, reporting every cycle
// once per task that sits on it.
func (s *Store) Audit() ([]graph.CycleResult, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return graph.CheckAllCycles(snap), nil
}

// --- Mutations (validate-then-commit) ---

// Create inserts a new task. Dependencies are validated against the
// current snapshot before the write; when no id is supplied, one is
// generated.
func (s *Store) Create(p CreateParams) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	if existing, err := s.get(id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("taskstore: task %q already exists", id)
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if err := graph.ValidateDependencies(id, p.Dependencies, snap); err != nil {
		return nil, err
	}

	deps := p.Dependencies
	if deps == nil {
		deps = []string{}
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return nil, fmt.Errorf("taskstore: encode dependencies: %w", err)
	}

	now := timeNow().UTC().Format(time.RFC3339)
	task := &Task{
		ID:           id,
		Title:        p.Title,
		Description:  p.Description,
		Status:       StatusPending,
		Dependencies: deps,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(
		`INSERT INTO tasks (id, title, description, status, dependencies, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status, string(depsJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("taskstore: insert: %w", err)
	}
	return task, nil
}

// SetDependencies replaces a task's dependency list. The proposed list
// is validated against the current snapshot under the writer lock; on
// rejection the store is untouched and the returned error carries the
// structured code (and cycle path, if any).
func (s *Store) SetDependencies(id string, deps []string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("taskstore: task %q not found", id)
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	// Validate the replacement list against a snapshot where this task
	// has no edges yet — the proposal replaces, not extends.
	base := snap[id]
	base.Dependencies = nil
	snap[id] = base
	if err := graph.ValidateDependencies(id, deps, snap); err != nil {
		return nil, err
	}

	if deps == nil {
		deps = []string{}
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return nil, fmt.Errorf("taskstore: encode dependencies: %w", err)
	}

	now := timeNow().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(
		`UPDATE tasks SET dependencies = ?, updated_at = ? WHERE id = ?`,
		string(depsJSON), now, id); err != nil {
		return nil, fmt.Errorf("taskstore: update dependencies: %w", err)
	}

	task.Dependencies = deps
	task.UpdatedAt = now
	return task, nil
}

// SetStatus updates a task's lifecycle status.
func (s *Store) SetStatus(id string, status Status) (*Task, error) {
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("taskstore: task %q not found", id)
	}

	now := timeNow().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id); err != nil {
		return nil, fmt.Errorf("taskstore: update status: %w", err)
	}

	task.Status = status
	task.UpdatedAt = now
	return task, nil
}

// Delete removes a task. Rejected while any other task depends on it,
// so the graph never holds dangling edges.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.get(id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("taskstore: task %q not found", id)
	}

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	for _, t := range snap {
		for _, dep := range t.Dependencies {
			if dep == id && t.ID != id {
				return fmt.Errorf("taskstore: cannot delete %q: task %q depends on it", id, t.ID)
			}
		}
	}

	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("taskstore: delete: %w", err)
	}
	return nil
}

// --- Scanning ---

func scanTask(scan func(dest ...any) error) (*Task, error) {
	var t Task
	var depsJSON string
	err := scan(&t.ID, &t.Title, &t.Description, &t.Status, &depsJSON, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("taskstore: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(depsJSON), &t.Dependencies); err != nil {
		return nil, fmt.Errorf("taskstore: task %s has corrupt dependencies: %w", t.ID, err)
	}
	return &t, nil
}
