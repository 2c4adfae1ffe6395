// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists decisions, raw data points, audit trails, review
// outcomes, and the background task queue in SQLite. The engine itself
// never touches the database; it hands artifacts to this collaborator at
// the pipeline boundary.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// timeFormat is a fixed-width UTC timestamp so lexicographic ordering in
// SQL matches chronological ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store manages the decision SQLite database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func New(cfg types.StoreConfig, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	path := cfg.Path
	if path == "" {
		path = types.DefaultEngineConfig().Store.Path
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS data_points (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL,
			processed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_data_points_source ON data_points(source)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			request_id TEXT,
			rank INTEGER NOT NULL DEFAULT 0,
			result TEXT NOT NULL,
			explanation TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			decision_id TEXT PRIMARY KEY REFERENCES decisions(id),
			created_at TEXT NOT NULL,
			trail TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS review_outcomes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			decision_id TEXT NOT NULL,
			reviewer_id TEXT NOT NULL,
			status TEXT NOT NULL,
			feedback_notes TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS task_queue (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			decision_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			next_attempt_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_queue_status ON task_queue(status, next_attempt_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- data points ---

// SaveDataPoint persists one raw input verbatim.
func (s *Store) SaveDataPoint(ctx context.Context, in types.RawInput) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling data point: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_points (id, source, payload, created_at) VALUES (?, ?, ?, ?)`,
		in.ID, in.SourceSystem, string(payload), in.Timestamp.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("inserting data point: %w", err)
	}
	return nil
}

// MarkDataPointProcessed stamps a data point after a pipeline run.
func (s *Store) MarkDataPointProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE data_points SET processed_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("marking data point processed: %w", err)
	}
	return nil
}

// --- decisions ---

// CreatePlaceholder inserts a decision in the "processing" state. The
// engine later computes the fields that turn it into a terminal record.
// Re-creating an existing placeholder is a no-op so redelivered tasks
// stay idempotent.
func (s *Store) CreatePlaceholder(ctx context.Context, decisionID, requestID string) error {
	result, err := json.Marshal(map[string]any{"status": types.ResultProcessing})
	if err != nil {
		return fmt.Errorf("marshaling placeholder: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO decisions (id, request_id, result, created_at) VALUES (?, ?, ?, ?)`,
		decisionID, requestID, string(result), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("inserting placeholder: %w", err)
	}
	return nil
}

// Fetch returns a decision by id, or ErrNotFound.
func (s *Store) Fetch(ctx context.Context, decisionID string) (*types.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, rank, result, explanation, confidence, created_at FROM decisions WHERE id = ?`,
		decisionID)
	return scanDecision(row)
}

// Update writes a decision's terminal result. Last-writer-wins: updates
// are idempotent per decision id. A missing record is tolerated (logged,
// not fatal) to cover races where the placeholder write has not landed.
func (s *Store) Update(ctx context.Context, decisionID string, result map[string]any, explanation *types.Explanation, confidence float64) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	var explJSON sql.NullString
	if explanation != nil {
		b, err := json.Marshal(explanation)
		if err != nil {
			return fmt.Errorf("marshaling explanation: %w", err)
		}
		explJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE decisions SET result = ?, explanation = ?, confidence = ? WHERE id = ?`,
		string(resultJSON), explJSON, confidence, decisionID)
	if err != nil {
		return fmt.Errorf("updating decision: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Warn("decision update found no record", "decision_id", decisionID)
	}
	return nil
}

// List returns the most recent decisions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.Decision, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, rank, result, explanation, confidence, created_at
		 FROM decisions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	defer rows.Close()

	var out []types.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*types.Decision, error) {
	var d types.Decision
	var requestID, explJSON sql.NullString
	var resultJSON, createdAt string

	err := row.Scan(&d.ID, &requestID, &d.Rank, &resultJSON, &explJSON, &d.Confidence, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning decision: %w", err)
	}

	d.RequestID = requestID.String
	if err := json.Unmarshal([]byte(resultJSON), &d.Result); err != nil {
		return nil, fmt.Errorf("parsing decision result: %w", err)
	}
	if explJSON.Valid {
		var expl types.Explanation
		if err := json.Unmarshal([]byte(explJSON.String), &expl); err != nil {
			return nil, fmt.Errorf("parsing decision explanation: %w", err)
		}
		d.Explanation = &expl
	}
	if t, err := time.Parse(timeFormat, createdAt); err == nil {
		d.CreatedAt = t
	}

	return &d, nil
}

// --- audit logs ---

// SaveAuditLog persists the full trail for a decision. The trail is an
// append-only artifact: a second write for the same decision id (a
// pipeline re-run) replaces the previous trail wholesale rather than
// merging partial stage output.
func (s *Store) SaveAuditLog(ctx context.Context, audit types.AuditLog) error {
	trail, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("marshaling audit log: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO audit_logs (decision_id, created_at, trail) VALUES (?, ?, ?)`,
		audit.DecisionID, audit.Timestamp.UTC().Format(timeFormat), string(trail))
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// FetchAuditLog returns the trail for a decision, or ErrNotFound.
func (s *Store) FetchAuditLog(ctx context.Context, decisionID string) (*types.AuditLog, error) {
	var trail string
	err := s.db.QueryRowContext(ctx,
		`SELECT trail FROM audit_logs WHERE decision_id = ?`, decisionID).Scan(&trail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching audit log: %w", err)
	}

	var audit types.AuditLog
	if err := json.Unmarshal([]byte(trail), &audit); err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}
	return &audit, nil
}

// --- review outcomes ---

// SaveReviewOutcome records a human verdict.
func (s *Store) SaveReviewOutcome(ctx context.Context, outcome types.ReviewOutcome) error {
	ts := outcome.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_outcomes (decision_id, reviewer_id, status, feedback_notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		outcome.DecisionID, outcome.ReviewerID, string(outcome.Status), outcome.FeedbackNotes,
		ts.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("inserting review outcome: %w", err)
	}
	return nil
}
