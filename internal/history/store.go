// Package history records simulation and training runs in SQLite.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lox/blackjackbots/internal/statistics"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one invocation of a simulation or training command.
type Run struct {
	ID         string
	Command    string
	Player     string
	Method     string
	Seed       int64
	Rounds     int
	Wins       int
	Losses     int
	Pushes     int
	Hits       int
	Stands     int
	MeanReward float64
	Epsilon    float64
	States     int
	Status     Status
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

// WinRate returns wins as a percentage of rounds.
func (r *Run) WinRate() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return 100 * float64(r.Wins) / float64(r.Rounds)
}

// Record copies round totals from stats.
func (r *Run) Record(stats *statistics.Statistics) {
	r.Rounds = stats.Rounds
	r.Wins = stats.Wins
	r.Losses = stats.Losses
	r.Pushes = stats.Pushes
	r.Hits = stats.Hits
	r.Stands = stats.Stands
	r.MeanReward = stats.Mean()
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			player TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			seed INTEGER NOT NULL,
			rounds INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			pushes INTEGER NOT NULL DEFAULT 0,
			hits INTEGER NOT NULL DEFAULT 0,
			stands INTEGER NOT NULL DEFAULT 0,
			mean_reward REAL NOT NULL DEFAULT 0,
			epsilon REAL NOT NULL DEFAULT 0,
			states INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// SaveRun inserts run, assigning an ID and creation time when unset.
func (s *Store) SaveRun(run *Run) error {
	if run.ID == "" {
		// v7 ids sort by creation time
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		run.ID = id.String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	_, err := s.db.Exec(`INSERT INTO runs (
		id, command, player, method, seed, rounds, wins, losses, pushes,
		hits, stands, mean_reward, epsilon, states, status, error, created_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Player, run.Method, run.Seed, run.Rounds,
		run.Wins, run.Losses, run.Pushes, run.Hits, run.Stands, run.MeanReward,
		run.Epsilon, run.States, string(run.Status), run.Error,
		formatTime(run.CreatedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun overwrites the mutable fields of an existing run.
func (s *Store) UpdateRun(run *Run) error {
	res, err := s.db.Exec(`UPDATE runs SET
		rounds = ?, wins = ?, losses = ?, pushes = ?, hits = ?, stands = ?,
		mean_reward = ?, epsilon = ?, states = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		run.Rounds, run.Wins, run.Losses, run.Pushes, run.Hits, run.Stands,
		run.MeanReward, run.Epsilon, run.States, string(run.Status), run.Error,
		formatTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

const selectRun = `SELECT id, command, player, method, seed, rounds, wins, losses, pushes,
	hits, stands, mean_reward, epsilon, states, status, error, created_at, finished_at FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var status, created, finished string
	err := row.Scan(&run.ID, &run.Command, &run.Player, &run.Method, &run.Seed,
		&run.Rounds, &run.Wins, &run.Losses, &run.Pushes, &run.Hits, &run.Stands,
		&run.MeanReward, &run.Epsilon, &run.States, &status, &run.Error, &created, &finished)
	if err != nil {
		return nil, err
	}
	run.Status = Status(status)
	if run.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("run %s created_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("run %s finished_at: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 means 50.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(selectRun+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
