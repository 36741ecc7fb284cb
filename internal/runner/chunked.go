package runner

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

const (
	DefaultSubChunkSize  = 100
	DefaultSubChunkPause = 10 * time.Millisecond
)

// Chunked runs batches one after another and splits each batch into
// sub-chunks whose records are created in parallel. Peak in-flight
// creations never exceed SubChunkSize.
type Chunked struct {
	SubChunkSize  int           // defaults to DefaultSubChunkSize
	SubChunkPause time.Duration // defaults to DefaultSubChunkPause
	BatchPause    time.Duration // defaults to DefaultBatchPause
}

func (c *Chunked) Name() string { return "chunked" }

func (c *Chunked) Execute(ctx context.Context, exec *Execution) error {
	size := c.SubChunkSize
	if size <= 0 {
		size = DefaultSubChunkSize
	}
	subPause := c.SubChunkPause
	if subPause == 0 {
		subPause = DefaultSubChunkPause
	}
	batchPause := c.BatchPause
	if batchPause == 0 {
		batchPause = DefaultBatchPause
	}

	for _, b := range exec.Batches() {
		result := exec.Process(ctx, b, func(ctx context.Context, records []seeder.AccountRecord, rec *Recorder) {
			for _, chunk := range lo.Chunk(records, size) {
				createParallel(ctx, exec.Creator(), chunk, rec)
				exec.Pause(subPause)
			}
		})
		exec.Debugf("Batch %d done: %d ok, %d failed", b.Index, result.Succeeded, result.Failed)

		exec.Pause(batchPause)
	}
	return nil
}
