// Package ledger records seeding runs and their per-batch outcomes so
// past runs can be listed and inspected after the process exits.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

var (
	runsBucket    = []byte("runs")
	batchesBucket = []byte("batches")
	metaBucket    = []byte("meta")

	versionKey = []byte("version")
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunRecord is one seeding run.
type RunRecord struct {
	ID          string    `json:"id"`
	Strategy    string    `json:"strategy"`
	Total       int       `json:"total"`
	BatchSize   int       `json:"batch_size"`
	Concurrency int       `json:"concurrency"`
	EmailDomain string    `json:"email_domain"`
	DryRun      bool      `json:"dry_run"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	Processed   int64     `json:"processed"`
	Errors      int64     `json:"errors"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Version     string    `json:"version"`
}

// Elapsed is zero for a run that never finished.
func (r RunRecord) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// BatchRecord is the outcome of one batch of a run.
type BatchRecord struct {
	RunID     string `json:"run_id"`
	Index     int    `json:"index"`
	Start     int    `json:"start"`
	Size      int    `json:"size"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// Ledger is the run history.
type Ledger struct {
	backend Backend
}

// Open opens the ledger at path. An empty path gives an in-memory
// ledger that disappears with the process.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return New(NewMemoryBackend(), seeder.Version)
	}

	backend, err := NewBboltBackend(path)
	if err != nil {
		return nil, err
	}
	l, err := New(backend, seeder.Version)
	if err != nil {
		backend.Close()
		return nil, err
	}
	log.Printf("[LEDGER] Opened %s", path)
	return l, nil
}

// New prepares backend for use by a seeder at version. A backend last
// written by an incompatible major version is refused.
func New(backend Backend, version string) (*Ledger, error) {
	for _, bucket := range [][]byte{runsBucket, batchesBucket, metaBucket} {
		if err := backend.CreateBucket(bucket); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	stored, err := backend.Get(metaBucket, versionKey)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		ok, err := seeder.IsCompatibleVersion(string(stored), version)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", seeder.ErrIncompatibleVersion, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: ledger written by %s, this seeder is %s",
				seeder.ErrIncompatibleVersion, stored, version)
		}
	}
	if err := backend.Put(metaBucket, versionKey, []byte(version)); err != nil {
		return nil, err
	}

	return &Ledger{backend: backend}, nil
}

// BeginRun stores rec as a running run.
func (l *Ledger) BeginRun(rec RunRecord) error {
	rec.Status = StatusRunning
	if rec.Version == "" {
		rec.Version = seeder.Version
	}
	return l.putRun(rec)
}

// FinishRun stamps the summary onto the run, including the runner's
// start time. A non-nil runErr marks the run failed.
func (l *Ledger) FinishRun(id string, summary runner.Summary, runErr error) error {
	rec, err := l.Run(id)
	if err != nil {
		return err
	}

	// Both ends of the run come from the runner's clock
	if !summary.StartedAt.IsZero() {
		rec.StartedAt = summary.StartedAt
	}
	rec.FinishedAt = summary.FinishedAt
	rec.Processed = summary.Processed
	rec.Errors = summary.Errors
	if summary.BatchSize > 0 {
		rec.BatchSize = summary.BatchSize
	}
	rec.Status = StatusCompleted
	if runErr != nil {
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
	}
	return l.putRun(rec)
}

// Run returns a single run.
func (l *Ledger) Run(id string) (RunRecord, error) {
	var rec RunRecord
	data, err := l.backend.Get(runsBucket, []byte(id))
	if err != nil {
		return rec, err
	}
	if data == nil {
		return rec, fmt.Errorf("%w: %s", seeder.ErrRunNotFound, id)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return rec, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (l *Ledger) Runs(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := l.backend.ForEach(runsBucket, func(k, v []byte) error {
		var rec RunRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			log.Printf("[LEDGER] Warning: Failed to decode run %s: %v", k, err)
			return nil // Skip corrupted runs
		}
		runs = append(runs, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RecordBatch stores one batch outcome.
func (l *Ledger) RecordBatch(rec BatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	return l.backend.Put(batchesBucket, batchKey(rec.RunID, rec.Index), data)
}

// Batches returns every recorded batch of a run in index order.
func (l *Ledger) Batches(runID string) ([]BatchRecord, error) {
	if _, err := l.Run(runID); err != nil {
		return nil, err
	}

	prefix := runID + "/"
	var batches []BatchRecord
	err := l.backend.ForEach(batchesBucket, func(k, v []byte) error {
		if !strings.HasPrefix(string(k), prefix) {
			return nil
		}
		var rec BatchRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("failed to decode batch %s: %w", k, err)
		}
		batches = append(batches, rec)
		return nil
	})
	return batches, err
}

// BatchDone records a finished batch. Failures are logged: losing a
// ledger entry must not stop the run.
func (l *Ledger) BatchDone(runID string, result runner.BatchResult) {
	rec := BatchRecord{
		RunID:     runID,
		Index:     result.Batch.Index,
		Start:     result.Batch.Start,
		Size:      result.Batch.Size,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	if err := l.RecordBatch(rec); err != nil {
		log.Printf("[LEDGER] Failed to record batch %d of run %s: %v", rec.Index, runID, err)
	}
}

func (l *Ledger) Close() error {
	return l.backend.Close()
}

func (l *Ledger) putRun(rec RunRecord) error {
	if rec.ID == "" {
		return errors.New("run ID is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return l.backend.Put(runsBucket, []byte(rec.ID), data)
}

// batchKey zero-pads the index so keys sort in batch order.
func batchKey(runID string, index int) []byte {
	return fmt.Appendf(nil, "%s/%010d", runID, index)
}

var _ runner.Observer = (*Ledger)(nil)
