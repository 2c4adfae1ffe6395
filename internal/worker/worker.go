// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package worker runs the task-queue dispatch loop. Tasks carry the raw
// inputs for one decision; the dispatcher claims them oldest-first, runs
// the pipeline, and applies the retry policy: exponential backoff up to
// the attempt cap, then the task is buried and the decision marked failed.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/decision-engine/internal/engine"
	"github.com/pdiddy/decision-engine/internal/store"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// TaskPayload is the JSON body of a queued pipeline invocation.
type TaskPayload struct {
	Inputs []types.RawInput `json:"inputs"`
}

// Store is the queue and decision surface the dispatcher needs.
type Store interface {
	ClaimTask(ctx context.Context) (*store.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	RetryTask(ctx context.Context, id int64, errText string, delay time.Duration) error
	BuryTask(ctx context.Context, id int64, errText string) error
	Update(ctx context.Context, decisionID string, result map[string]any, explanation *types.Explanation, confidence float64) error
}

// Runner executes the pipeline for one claimed task.
type Runner interface {
	Run(ctx context.Context, decisionID string, inputs []types.RawInput) (*engine.Outcome, error)
}

// Dispatcher polls the task queue and executes claimed tasks one at a
// time. Single-threaded on purpose: the store serializes writes anyway,
// and ordering stays predictable for operators reading the logs.
type Dispatcher struct {
	cfg    types.WorkerConfig
	store  Store
	runner Runner
	log    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a dispatcher. Zero config fields fall back to defaults.
func New(cfg types.WorkerConfig, s Store, r Runner, log *slog.Logger) *Dispatcher {
	def := types.DefaultEngineConfig().Worker
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:    cfg,
		store:  s,
		runner: r,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the polling loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.loop()
	d.log.Info("dispatcher started", "poll_interval", d.cfg.PollInterval, "max_attempts", d.cfg.MaxAttempts)
}

// Stop cancels the loop and waits for the in-flight task to finish.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.Drain(d.ctx)
		}
	}
}

// Drain claims and executes tasks until the queue has no eligible work
// or the context is cancelled. Exposed so batch commands can flush the
// queue without running the polling loop.
func (d *Dispatcher) Drain(ctx context.Context) {
	for ctx.Err() == nil {
		if !d.processNext(ctx) {
			return
		}
	}
}

// processNext claims and executes a single task. Returns false when the
// queue had no eligible work.
func (d *Dispatcher) processNext(ctx context.Context) bool {
	task, err := d.store.ClaimTask(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		d.log.Error("claiming task", "err", err)
		return false
	}

	d.execute(ctx, task)
	return true
}

func (d *Dispatcher) execute(ctx context.Context, task *store.Task) {
	d.log.Info("task claimed", "task_id", task.ID, "decision_id", task.DecisionID, "attempt", task.Attempts)

	runErr := d.run(ctx, task)
	if runErr == nil {
		if err := d.store.CompleteTask(ctx, task.ID); err != nil {
			d.log.Error("completing task", "task_id", task.ID, "err", err)
		}
		return
	}

	if task.Attempts >= d.cfg.MaxAttempts {
		d.log.Error("task exhausted retries", "task_id", task.ID, "decision_id", task.DecisionID, "attempts", task.Attempts, "err", runErr)
		if err := d.store.BuryTask(ctx, task.ID, runErr.Error()); err != nil {
			d.log.Error("burying task", "task_id", task.ID, "err", err)
		}
		result := map[string]any{"status": types.ResultFailed, "error": runErr.Error()}
		if err := d.store.Update(ctx, task.DecisionID, result, nil, 0); err != nil {
			d.log.Error("marking decision failed", "decision_id", task.DecisionID, "err", err)
		}
		return
	}

	delay := d.backoff(task.Attempts)
	d.log.Warn("task failed, scheduling retry", "task_id", task.ID, "attempt", task.Attempts, "retry_in", delay, "err", runErr)
	if err := d.store.RetryTask(ctx, task.ID, runErr.Error(), delay); err != nil {
		d.log.Error("scheduling retry", "task_id", task.ID, "err", err)
	}
}

func (d *Dispatcher) run(ctx context.Context, task *store.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decoding task payload: %w", err)
	}
	if len(payload.Inputs) == 0 {
		return fmt.Errorf("task %d carries no inputs", task.ID)
	}

	_, err := d.runner.Run(ctx, task.DecisionID, payload.Inputs)
	return err
}

// backoff doubles the base delay per completed attempt.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.cfg.RetryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}
