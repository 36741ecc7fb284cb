package runner

import (
	"context"
	"sync"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// DefaultBatchPause is the pause after each batch in the concurrent and
// chunked strategies.
const DefaultBatchPause = 100 * time.Millisecond

// Concurrent keeps up to Execution.Concurrency() batches in flight.
// Every record of a batch is created at once and the batch is joined
// before its slot is released.
type Concurrent struct {
	BatchPause time.Duration // defaults to DefaultBatchPause
}

func (c *Concurrent) Name() string { return "concurrent" }

func (c *Concurrent) Execute(ctx context.Context, exec *Execution) error {
	pause := c.BatchPause
	if pause == 0 {
		pause = DefaultBatchPause
	}

	slots := make(chan struct{}, exec.Concurrency())
	var wg sync.WaitGroup

	for _, b := range exec.Batches() {
		// Blocks until a slot frees up
		slots <- struct{}{}
		wg.Add(1)

		go func(b Batch) {
			defer wg.Done()
			defer func() { <-slots }()

			result := exec.Process(ctx, b, func(ctx context.Context, records []seeder.AccountRecord, rec *Recorder) {
				createParallel(ctx, exec.Creator(), records, rec)
			})
			exec.Debugf("Batch %d done: %d ok, %d failed", b.Index, result.Succeeded, result.Failed)

			exec.Pause(pause)
		}(b)
	}

	wg.Wait()
	return nil
}
