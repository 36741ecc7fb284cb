package runner

import (
	"context"
	"log"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

const (
	DefaultConservativeBatchSize = 100
	DefaultMaxAttempts           = 3
	DefaultBackoffStep           = time.Second
	DefaultConservativePause     = time.Second
)

// Conservative creates one record at a time in small batches and retries
// transient failures with linear backoff: attempt n waits n*BackoffStep
// before attempt n+1.
type Conservative struct {
	MaxBatchSize int           // defaults to DefaultConservativeBatchSize
	MaxAttempts  int           // defaults to DefaultMaxAttempts
	BackoffStep  time.Duration // defaults to DefaultBackoffStep
	BatchPause   time.Duration // defaults to DefaultConservativePause
}

func (c *Conservative) Name() string { return "conservative" }

// BatchSize caps the requested size at MaxBatchSize.
func (c *Conservative) BatchSize(requested int) int {
	limit := c.MaxBatchSize
	if limit <= 0 {
		limit = DefaultConservativeBatchSize
	}
	return min(requested, limit)
}

func (c *Conservative) Execute(ctx context.Context, exec *Execution) error {
	pause := c.BatchPause
	if pause == 0 {
		pause = DefaultConservativePause
	}

	batches := exec.Batches()
	for i, b := range batches {
		result := exec.Process(ctx, b, func(ctx context.Context, records []seeder.AccountRecord, rec *Recorder) {
			for _, record := range records {
				rec.Record(record, c.createWithRetry(ctx, exec, record))
			}
		})
		exec.Debugf("Batch %d done: %d ok, %d failed", b.Index, result.Succeeded, result.Failed)

		if i < len(batches)-1 {
			exec.Pause(pause)
		}
	}
	return nil
}

// createWithRetry returns nil on success, or the last error once the
// failure is terminal or attempts run out.
func (c *Conservative) createWithRetry(ctx context.Context, exec *Execution, record seeder.AccountRecord) error {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	step := c.BackoffStep
	if step == 0 {
		step = DefaultBackoffStep
	}

	for attempt := 1; ; attempt++ {
		err := safely(func() error {
			return exec.Creator().Create(ctx, record)
		})
		if err == nil {
			return nil
		}
		if attempt >= attempts || !seeder.IsTransient(err) {
			return err
		}

		wait := time.Duration(attempt) * step
		log.Printf("[RUNNER] Transient error creating %s (attempt %d/%d), retrying in %v: %v",
			record.Email, attempt, attempts, wait, err)
		exec.Pause(wait)
	}
}
