// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Task statuses in the queue. A pending task is eligible for claiming
// once its next_attempt_at has passed; dead tasks exhausted their
// attempts.
const (
	TaskPending = "pending"
	TaskRunning = "running"
	TaskDone    = "done"
	TaskDead    = "dead"
)

// Task is one queued pipeline invocation. Delivery is at-least-once:
// because the engine is idempotent per decision id, redelivery is safe.
type Task struct {
	ID         int64
	DecisionID string
	Payload    json.RawMessage
	Attempts   int
}

// EnqueueTask adds a pipeline invocation to the queue, eligible immediately.
// The payload is marshaled as JSON and handed back verbatim on claim.
func (s *Store) EnqueueTask(ctx context.Context, decisionID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling task payload: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO task_queue (decision_id, payload, status, next_attempt_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		decisionID, string(body), TaskPending, now, now)
	if err != nil {
		return fmt.Errorf("enqueueing task: %w", err)
	}
	return nil
}

// ClaimTask atomically claims the oldest eligible pending task, marking
// it running and bumping its attempt count. Returns ErrNotFound when the
// queue has no eligible work.
func (s *Store) ClaimTask(ctx context.Context) (*Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeFormat)

	var t Task
	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT rowid, decision_id, payload, attempts FROM task_queue
		 WHERE status = ? AND next_attempt_at <= ?
		 ORDER BY next_attempt_at LIMIT 1`,
		TaskPending, now).Scan(&t.ID, &t.DecisionID, &payload, &t.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting task: %w", err)
	}

	t.Payload = json.RawMessage(payload)

	t.Attempts++
	if _, err := tx.ExecContext(ctx,
		`UPDATE task_queue SET status = ?, attempts = ? WHERE rowid = ?`,
		TaskRunning, t.Attempts, t.ID); err != nil {
		return nil, fmt.Errorf("claiming task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return &t, nil
}

// CompleteTask marks a claimed task done.
func (s *Store) CompleteTask(ctx context.Context, taskID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE task_queue SET status = ? WHERE rowid = ?`, TaskDone, taskID)
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	return nil
}

// RetryTask reschedules a failed task for a later attempt, recording the
// error text. The caller supplies the backoff delay.
func (s *Store) RetryTask(ctx context.Context, taskID int64, errText string, delay time.Duration) error {
	next := time.Now().UTC().Add(delay).Format(timeFormat)
	_, err := s.db.ExecContext(ctx,
		`UPDATE task_queue SET status = ?, last_error = ?, next_attempt_at = ? WHERE rowid = ?`,
		TaskPending, errText, next, taskID)
	if err != nil {
		return fmt.Errorf("rescheduling task: %w", err)
	}
	return nil
}

// BuryTask marks a task dead after its attempts are exhausted.
func (s *Store) BuryTask(ctx context.Context, taskID int64, errText string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE task_queue SET status = ?, last_error = ? WHERE rowid = ?`,
		TaskDead, errText, taskID)
	if err != nil {
		return fmt.Errorf("burying task: %w", err)
	}
	return nil
}
