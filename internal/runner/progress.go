package runner

import (
	"math"
	"time"
)

// Progress is the snapshot reported after every batch.
type Progress struct {
	Batch     int // batches finished so far
	Batches   int
	Processed int64
	Errors    int64
	Total     int
	Percent   float64
	Elapsed   time.Duration
	ETA       time.Duration
	HasETA    bool
	PerMinute float64
}

// Percentage returns processed/total as a percentage rounded to two
// decimal places. A non-positive total yields 0.
func Percentage(processed int64, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(processed) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// ETA extrapolates the time left from the observed per-record rate.
// The second result is false until at least one record has been
// processed.
func ETA(processed int64, total int, elapsed time.Duration) (time.Duration, bool) {
	if processed <= 0 {
		return 0, false
	}
	remaining := int64(total) - processed
	if remaining <= 0 {
		return 0, true
	}
	perRecord := float64(elapsed) / float64(processed)
	return time.Duration(perRecord * float64(remaining)), true
}

// PerMinute returns the throughput of count records over elapsed.
func PerMinute(count int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Minutes()
}

func snapshot(state *State, done, batches, total int, elapsed time.Duration) Progress {
	processed := state.Processed()
	eta, ok := ETA(processed, total, elapsed)
	return Progress{
		Batch:     done,
		Batches:   batches,
		Processed: processed,
		Errors:    state.Errors(),
		Total:     total,
		Percent:   Percentage(processed, total),
		Elapsed:   elapsed,
		ETA:       eta,
		HasETA:    ok,
		PerMinute: PerMinute(processed, elapsed),
	}
}
