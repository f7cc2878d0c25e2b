// Package queue implements the durable job queue and the worker pool that
// drains it. Jobs are keyed by (automation, seed): the key is the dedup
// mechanism, so at most one live job per pair ever exists, enforced by the
// table's primary key rather than application-level locking.
package queue

import (
	"database/sql"
	"time"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/errors"
)

// Job states.
const (
	StatePending = "pending"
	StateRunning = "running"
	StateFailed  = "failed"
)

// Job is one queued unit of automation work.
type Job struct {
	Key          string
	AutomationID string
	SeedID       string
	UserID       string
	Priority     int
	State        string
	Attempts     int
	LastError    string
	RunAfter     int64
	CreatedAt    int64
	UpdatedAt    int64
}

// JobKey computes the stable dedup key for a pair.
func JobKey(automationID, seedID string) string {
	return automationID + "-" + seedID
}

// Queue provides all reads and writes of the jobs table.
type Queue struct {
	db *sql.DB
}

// New creates a queue over the given database.
func New(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue adds a job for the pair. If a live (pending or running) job with
// the same key already exists this is a no-op; a previously failed job is
// revived instead of duplicated. Higher priority runs first, default 0.
func (q *Queue) Enqueue(automationID, seedID, userID string, priority int) error {
	if automationID == "" || seedID == "" {
		return errors.NewInvalidRequest("automation ID and seed ID are required")
	}
	now := time.Now().Unix()
	_, err := q.db.Exec(
		`INSERT INTO jobs (key, automation_id, seed_id, user_id, priority, state, attempts, run_after, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   state = excluded.state,
		   priority = excluded.priority,
		   attempts = 0,
		   last_error = NULL,
		   run_after = 0,
		   updated_at = excluded.updated_at
		 WHERE jobs.state = ?`,
		JobKey(automationID, seedID), automationID, seedID, userID, priority,
		StatePending, now, now, StateFailed,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// EnqueueAllEnabled enqueues one job per enabled automation for a seed.
// Automations without a usable identifier are skipped by the registry.
func (q *Queue) EnqueueAllEnabled(registry *automation.Registry, seedID, userID string) (int, error) {
	n := 0
	for _, a := range registry.Enabled() {
		if err := q.Enqueue(a.ID(), seedID, userID, 0); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Claim atomically takes the highest-priority ready job and marks it
// running. Returns ok=false when nothing is ready.
func (q *Queue) Claim() (*Job, bool, error) {
	now := time.Now().Unix()
	row := q.db.QueryRow(
		`UPDATE jobs SET state = ?, updated_at = ?
		 WHERE key = (
		   SELECT key FROM jobs
		   WHERE state = ? AND run_after <= ?
		   ORDER BY priority DESC, created_at
		   LIMIT 1
		 )
		 RETURNING key, automation_id, seed_id, user_id, priority, attempts, created_at`,
		StateRunning, now, StatePending, now,
	)

	var j Job
	err := row.Scan(&j.Key, &j.AutomationID, &j.SeedID, &j.UserID, &j.Priority, &j.Attempts, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	j.State = StateRunning
	return &j, true, nil
}

// Complete removes a finished job.
func (q *Queue) Complete(key string) error {
	if _, err := q.db.Exec(`DELETE FROM jobs WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Fail records a job failure. Below maxAttempts the job is rescheduled with
// exponential backoff; at the bound it is parked as failed so the error is
// inspectable rather than silently dropped.
func (q *Queue) Fail(key, message string, maxAttempts int, backoff time.Duration) error {
	var attempts int
	err := q.db.QueryRow(`SELECT attempts FROM jobs WHERE key = ?`, key).Scan(&attempts)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("job", key)
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	attempts++
	now := time.Now().Unix()
	if attempts >= maxAttempts {
		_, err = q.db.Exec(
			`UPDATE jobs SET state = ?, attempts = ?, last_error = ?, updated_at = ? WHERE key = ?`,
			StateFailed, attempts, message, now, key,
		)
	} else {
		delay := backoff << (attempts - 1)
		_, err = q.db.Exec(
			`UPDATE jobs SET state = ?, attempts = ?, last_error = ?, run_after = ?, updated_at = ? WHERE key = ?`,
			StatePending, attempts, message, now+int64(delay/time.Second), now, key,
		)
	}
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Status returns a job by key. Absence is reported, not an error.
func (q *Queue) Status(key string) (*Job, bool, error) {
	row := q.db.QueryRow(
		`SELECT key, automation_id, seed_id, user_id, priority, state, attempts,
		        COALESCE(last_error, ''), run_after, created_at, updated_at
		 FROM jobs WHERE key = ?`, key,
	)
	var j Job
	err := row.Scan(&j.Key, &j.AutomationID, &j.SeedID, &j.UserID, &j.Priority,
		&j.State, &j.Attempts, &j.LastError, &j.RunAfter, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return &j, true, nil
}

// Remove deletes a job regardless of state.
func (q *Queue) Remove(key string) error {
	res, err := q.db.Exec(`DELETE FROM jobs WHERE key = ?`, key)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("job", key)
	}
	return nil
}

// RemoveAllForSeed drops every job for a seed (bulk cleanup on removal).
func (q *Queue) RemoveAllForSeed(seedID string) error {
	if _, err := q.db.Exec(`DELETE FROM jobs WHERE seed_id = ?`, seedID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
