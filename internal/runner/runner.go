// Package runner drives synthetic account creation in batches.
//
// A run partitions the requested total into fixed-size batches (see Plan)
// and hands them to a Strategy, which decides how batches and the records
// inside them are scheduled. The runner owns the counters, recovers from
// whole-batch failures at the batch boundary, and reports progress after
// every batch. Per-record failures never stop a run.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/internal/clock"
	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// Source produces the records for one batch.
type Source interface {
	Batch(start, n int) ([]seeder.AccountRecord, error)
}

// Reporter receives run progress. Calls are serialized by the runner.
type Reporter interface {
	Start(plan PlanInfo)
	Progress(p Progress)
	Finish(s Summary)
}

// Observer is told about every finished batch. Calls are serialized.
type Observer interface {
	BatchDone(runID string, result BatchResult)
}

// PlanInfo describes a run about to start.
type PlanInfo struct {
	RunID     string
	Strategy  string
	Total     int
	BatchSize int
	Batches   int
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	Batch     Batch
	Succeeded int
	Failed    int
	Err       error // set when the batch failed as a whole
}

// Summary is the final report of a run.
type Summary struct {
	RunID      string
	Strategy   string
	Total      int
	BatchSize  int
	Batches    int
	Processed  int64
	Errors     int64
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration
	PerMinute  float64
}

// Options configures a Runner.
type Options struct {
	RunID       string
	Strategy    Strategy
	Total       int
	BatchSize   int
	Concurrency int

	Source  Source
	Creator seeder.Creator

	Clock    clock.Clock // defaults to clock.Real()
	Reporter Reporter    // optional
	Observer Observer    // optional
	Debug    bool        // log every record failure
}

// Runner executes one run. It is single-use.
type Runner struct {
	opts  Options
	phase atomic.Int32
}

// New validates opts and returns a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Strategy == nil {
		return nil, ErrNoStrategy
	}
	if opts.Creator == nil {
		return nil, ErrNoCreator
	}
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.Total <= 0 || opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: total=%d batch=%d", ErrInvalidPlanSize, opts.Total, opts.BatchSize)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	return &Runner{opts: opts}, nil
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	return Phase(r.phase.Load())
}

// Run drives every batch to completion and returns the summary. The error
// is non-nil only when the strategy itself failed; per-record and
// per-batch failures are reflected in Summary.Errors.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseRunning)) {
		return Summary{}, ErrAlreadyRun
	}

	batchSize := r.opts.BatchSize
	if sizer, ok := r.opts.Strategy.(BatchSizer); ok {
		batchSize = sizer.BatchSize(batchSize)
	}

	exec := &Execution{
		runner:    r,
		plan:      Plan(r.opts.Total, batchSize),
		batchSize: batchSize,
		state:     newState(r.opts.Clock.Now()),
	}

	log.Printf("[RUNNER] Run %s starting: strategy=%s total=%d batch=%d batches=%d",
		r.opts.RunID, r.opts.Strategy.Name(), r.opts.Total, batchSize, len(exec.plan))

	r.opts.Reporter.Start(PlanInfo{
		RunID:     r.opts.RunID,
		Strategy:  r.opts.Strategy.Name(),
		Total:     r.opts.Total,
		BatchSize: batchSize,
		Batches:   len(exec.plan),
	})

	err := r.opts.Strategy.Execute(ctx, exec)
	r.phase.Store(int32(PhaseFinished))

	summary := exec.summary()
	r.opts.Reporter.Finish(summary)

	log.Printf("[RUNNER] Run %s finished: processed=%d errors=%d elapsed=%v",
		r.opts.RunID, summary.Processed, summary.Errors, summary.Elapsed)

	if err != nil {
		return summary, fmt.Errorf("strategy %s: %w", r.opts.Strategy.Name(), err)
	}
	return summary, nil
}

// Execution is a strategy's handle on the run in progress.
type Execution struct {
	runner    *Runner
	plan      []Batch
	batchSize int
	state     *State

	mu   sync.Mutex // serializes reporter and observer calls
	done int
}

// Batches returns the plan in dispatch order.
func (e *Execution) Batches() []Batch { return e.plan }

// Concurrency returns the configured concurrent batch limit.
func (e *Execution) Concurrency() int { return e.runner.opts.Concurrency }

// State returns the live counters.
func (e *Execution) State() *State { return e.state }

// Creator returns the account creator.
func (e *Execution) Creator() seeder.Creator { return e.runner.opts.Creator }

// Debugf logs only when the run was configured with Debug.
func (e *Execution) Debugf(format string, args ...any) {
	if e.runner.opts.Debug {
		log.Printf("[RUNNER] "+format, args...)
	}
}

// Pause sleeps on the run's clock.
func (e *Execution) Pause(d time.Duration) { e.runner.opts.Clock.Sleep(d) }

// RecordFunc creates every record of a batch, reporting each outcome
// through the Recorder.
type RecordFunc func(ctx context.Context, records []seeder.AccountRecord, rec *Recorder)

// Recorder accumulates per-record outcomes for one batch.
type Recorder struct {
	exec  *Execution
	tally *tally
	batch Batch
}

// Record counts one creation outcome.
func (r *Recorder) Record(record seeder.AccountRecord, err error) {
	if err == nil {
		r.tally.success()
		return
	}
	r.tally.failure()
	r.exec.Debugf("batch %d: create %s failed: %v", r.batch.Index, record.Email, err)
}

// Process generates the batch's records and runs fn over them. A
// generator error or a panic inside fn is a whole-batch failure: the
// records of the batch not yet accounted for are counted as errors and
// the run continues.
func (e *Execution) Process(ctx context.Context, b Batch, fn RecordFunc) BatchResult {
	if b.Index == len(e.plan)-1 {
		e.runner.phase.CompareAndSwap(int32(PhaseRunning), int32(PhaseDraining))
	}

	t := &tally{state: e.state}
	rec := &Recorder{exec: e, tally: t, batch: b}

	err := safely(func() error {
		records, err := e.runner.opts.Source.Batch(b.Start, b.Size)
		if err != nil {
			return fmt.Errorf("generate batch %d: %w", b.Index, err)
		}
		fn(ctx, records, rec)
		return nil
	})
	if err != nil {
		lost := b.Size - t.accounted()
		t.lose(lost)
		log.Printf("[RUNNER] Batch %d failed, %d records counted as errors: %v", b.Index, lost, err)
	}

	result := BatchResult{
		Batch:     b,
		Succeeded: int(t.succeeded.Load()),
		Failed:    int(t.failed.Load()),
		Err:       err,
	}
	e.batchDone(result)
	return result
}

func (e *Execution) batchDone(result BatchResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.done++
	opts := e.runner.opts
	if opts.Observer != nil {
		opts.Observer.BatchDone(opts.RunID, result)
	}
	elapsed := clock.Since(opts.Clock, e.state.StartedAt())
	opts.Reporter.Progress(snapshot(e.state, e.done, len(e.plan), opts.Total, elapsed))
}

func (e *Execution) summary() Summary {
	opts := e.runner.opts
	finished := opts.Clock.Now()
	elapsed := finished.Sub(e.state.StartedAt())
	processed := e.state.Processed()
	return Summary{
		RunID:      opts.RunID,
		Strategy:   opts.Strategy.Name(),
		Total:      opts.Total,
		BatchSize:  e.batchSize,
		Batches:    len(e.plan),
		Processed:  processed,
		Errors:     e.state.Errors(),
		StartedAt:  e.state.StartedAt(),
		FinishedAt: finished,
		Elapsed:    elapsed,
		PerMinute:  PerMinute(processed, elapsed),
	}
}

// safely runs fn, converting a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", seeder.ErrBatchPanic, p)
		}
	}()
	return fn()
}

type nopReporter struct{}

func (nopReporter) Start(PlanInfo)    {}
func (nopReporter) Progress(Progress) {}
func (nopReporter) Finish(Summary)    {}
