package runner

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Phase is the runner lifecycle position.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseDraining
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// State holds the running totals of one run. Up to the concurrency limit
// of batches may complete at once, so the counters are atomic.
type State struct {
	processed atomic.Int64
	errors    atomic.Int64
	startedAt time.Time
}

func newState(startedAt time.Time) *State {
	return &State{startedAt: startedAt}
}

func (s *State) Processed() int64     { return s.processed.Load() }
func (s *State) Errors() int64        { return s.errors.Load() }
func (s *State) StartedAt() time.Time { return s.startedAt }

// tally is the per-batch view of State. It remembers how many of the
// batch's records have been accounted for so a whole-batch failure can
// charge only the remainder.
type tally struct {
	state     *State
	succeeded atomic.Int64
	failed    atomic.Int64
}

func (t *tally) success() {
	t.succeeded.Add(1)
	t.state.processed.Add(1)
}

func (t *tally) failure() {
	t.failed.Add(1)
	t.state.errors.Add(1)
}

func (t *tally) lose(n int) {
	if n <= 0 {
		return
	}
	t.failed.Add(int64(n))
	t.state.errors.Add(int64(n))
}

func (t *tally) accounted() int {
	return int(t.succeeded.Load() + t.failed.Load())
}
