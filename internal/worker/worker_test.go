// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/decision-engine/internal/engine"
	"github.com/pdiddy/decision-engine/internal/store"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// memQueue is an in-memory Store standing in for the SQLite queue. Tasks
// are handed out in insertion order; retried tasks go back to the front
// with a bumped attempt count, matching the store's eligibility rules
// closely enough for dispatch-policy tests.
type memQueue struct {
	mu        sync.Mutex
	pending   []*store.Task
	completed []int64
	buried    []buryCall
	retries   []retryCall
	failed    map[string]string
}

type buryCall struct {
	id      int64
	errText string
}

type retryCall struct {
	id    int64
	delay time.Duration
}

func newMemQueue() *memQueue {
	return &memQueue{failed: make(map[string]string)}
}

func (q *memQueue) add(decisionID string, payload TaskPayload) *store.Task {
	body, _ := json.Marshal(payload)
	t := &store.Task{ID: int64(len(q.pending)) + 1, DecisionID: decisionID, Payload: body}
	q.pending = append(q.pending, t)
	return t
}

func (q *memQueue) ClaimTask(context.Context) (*store.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, store.ErrNotFound
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	t.Attempts++
	return t, nil
}

func (q *memQueue) CompleteTask(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, id)
	return nil
}

func (q *memQueue) RetryTask(_ context.Context, id int64, _ string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries = append(q.retries, retryCall{id, delay})
	return nil
}

func (q *memQueue) requeue(t *store.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append([]*store.Task{t}, q.pending...)
}

func (q *memQueue) BuryTask(_ context.Context, id int64, errText string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buried = append(q.buried, buryCall{id, errText})
	return nil
}

func (q *memQueue) Update(_ context.Context, decisionID string, result map[string]any, _ *types.Explanation, _ float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if errText, ok := result["error"].(string); ok {
		q.failed[decisionID] = errText
	}
	return nil
}

func (q *memQueue) completedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed)
}

type scriptedRunner struct {
	failures int
	calls    []string
}

func (r *scriptedRunner) Run(_ context.Context, decisionID string, inputs []types.RawInput) (*engine.Outcome, error) {
	r.calls = append(r.calls, decisionID)
	if r.failures > 0 {
		r.failures--
		return nil, fmt.Errorf("transient pipeline failure")
	}
	return &engine.Outcome{DecisionID: decisionID}, nil
}

func sampleInputs() []types.RawInput {
	return []types.RawInput{{
		ID:           "in-1",
		Kind:         types.KindTicket,
		SourceSystem: "zendesk",
		Timestamp:    time.Now().UTC(),
		Ticket:       &types.Ticket{Priority: types.PriorityHigh, CustomerTier: types.TierPremium},
	}}
}

func testConfig() types.WorkerConfig {
	return types.WorkerConfig{
		PollInterval:   10 * time.Millisecond,
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
	}
}

func TestProcessNextSuccess(t *testing.T) {
	q := newMemQueue()
	task := q.add("d-1", TaskPayload{Inputs: sampleInputs()})
	runner := &scriptedRunner{}
	d := New(testConfig(), q, runner, nil)

	assert.True(t, d.processNext(context.Background()))
	assert.Equal(t, []string{"d-1"}, runner.calls)
	assert.Equal(t, []int64{task.ID}, q.completed)
	assert.Empty(t, q.retries)
	assert.Empty(t, q.buried)
}

func TestProcessNextEmptyQueue(t *testing.T) {
	d := New(testConfig(), newMemQueue(), &scriptedRunner{}, nil)
	assert.False(t, d.processNext(context.Background()))
}

func TestRetryBackoffDoubles(t *testing.T) {
	q := newMemQueue()
	task := q.add("d-1", TaskPayload{Inputs: sampleInputs()})
	runner := &scriptedRunner{failures: 2}
	d := New(testConfig(), q, runner, nil)

	// First attempt fails: retry at the base delay.
	require.True(t, d.processNext(context.Background()))
	require.Len(t, q.retries, 1)
	assert.Equal(t, time.Second, q.retries[0].delay)

	// Second attempt fails: delay doubles.
	q.requeue(task)
	require.True(t, d.processNext(context.Background()))
	require.Len(t, q.retries, 2)
	assert.Equal(t, 2*time.Second, q.retries[1].delay)

	// Third attempt succeeds.
	q.requeue(task)
	require.True(t, d.processNext(context.Background()))
	assert.Equal(t, []int64{task.ID}, q.completed)
	assert.Empty(t, q.buried)
}

func TestExhaustedTaskIsBuriedAndDecisionFailed(t *testing.T) {
	q := newMemQueue()
	task := q.add("d-1", TaskPayload{Inputs: sampleInputs()})
	runner := &scriptedRunner{failures: 10}
	d := New(testConfig(), q, runner, nil)

	for i := 0; i < 2; i++ {
		require.True(t, d.processNext(context.Background()))
		q.requeue(task)
	}
	require.True(t, d.processNext(context.Background()))

	require.Len(t, q.buried, 1)
	assert.Equal(t, task.ID, q.buried[0].id)
	assert.Contains(t, q.buried[0].errText, "transient pipeline failure")
	assert.Len(t, q.retries, 2)
	assert.Contains(t, q.failed["d-1"], "transient pipeline failure")
	assert.Empty(t, q.completed)
}

func TestMalformedPayloadCountsAsFailure(t *testing.T) {
	q := newMemQueue()
	task := q.add("d-1", TaskPayload{})
	task.Payload = []byte("{not json")
	d := New(testConfig(), q, &scriptedRunner{}, nil)

	require.True(t, d.processNext(context.Background()))
	require.Len(t, q.retries, 1)
	assert.Empty(t, q.completed)
}

func TestEmptyInputsRejected(t *testing.T) {
	q := newMemQueue()
	q.add("d-1", TaskPayload{})
	runner := &scriptedRunner{}
	d := New(testConfig(), q, runner, nil)

	require.True(t, d.processNext(context.Background()))
	assert.Empty(t, runner.calls)
	require.Len(t, q.retries, 1)
}

func TestDrainProcessesAllPending(t *testing.T) {
	q := newMemQueue()
	q.add("d-1", TaskPayload{Inputs: sampleInputs()})
	q.add("d-2", TaskPayload{Inputs: sampleInputs()})
	runner := &scriptedRunner{}
	d := New(testConfig(), q, runner, nil)

	d.Drain(context.Background())
	assert.Equal(t, []string{"d-1", "d-2"}, runner.calls)
	assert.Len(t, q.completed, 2)
}

func TestStartStop(t *testing.T) {
	q := newMemQueue()
	q.add("d-1", TaskPayload{Inputs: sampleInputs()})
	runner := &scriptedRunner{}
	d := New(testConfig(), q, runner, nil)

	d.Start()
	assert.Eventually(t, func() bool { return q.completedCount() == 1 }, time.Second, 5*time.Millisecond)
	d.Stop()
}
