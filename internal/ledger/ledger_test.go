package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ledgerTestSuite(t *testing.T, newLedger func(t *testing.T) *Ledger) {
	t.Run("RunLifecycle", func(t *testing.T) {
		l := newLedger(t)

		err := l.BeginRun(RunRecord{ID: "run-1", Strategy: "chunked", Total: 10, BatchSize: 3, StartedAt: t0})
		if err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}

		rec, err := l.Run("run-1")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if rec.Status != StatusRunning || rec.Version != seeder.Version {
			t.Errorf("begun run = %+v", rec)
		}
		if rec.Elapsed() != 0 {
			t.Errorf("Elapsed of unfinished run = %v, want 0", rec.Elapsed())
		}

		summary := runner.Summary{Processed: 9, Errors: 1, BatchSize: 3, FinishedAt: t0.Add(time.Minute)}
		if err := l.FinishRun("run-1", summary, nil); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}

		rec, _ = l.Run("run-1")
		if rec.Status != StatusCompleted || rec.Processed != 9 || rec.Errors != 1 {
			t.Errorf("finished run = %+v", rec)
		}
		if rec.Elapsed() != time.Minute {
			t.Errorf("Elapsed = %v, want 1m", rec.Elapsed())
		}
		if !rec.StartedAt.Equal(t0) {
			t.Errorf("StartedAt = %v, want %v", rec.StartedAt, t0)
		}
	})

	t.Run("FinishUsesRunnerStartTime", func(t *testing.T) {
		l := newLedger(t)
		// Recorded before setup finished; the runner starts later
		l.BeginRun(RunRecord{ID: "run-s", StartedAt: t0})

		runnerStart := t0.Add(5 * time.Second)
		summary := runner.Summary{StartedAt: runnerStart, FinishedAt: runnerStart.Add(30 * time.Second)}
		if err := l.FinishRun("run-s", summary, nil); err != nil {
			t.Fatal(err)
		}

		rec, _ := l.Run("run-s")
		if !rec.StartedAt.Equal(runnerStart) {
			t.Errorf("StartedAt = %v, want runner start %v", rec.StartedAt, runnerStart)
		}
		if rec.Elapsed() != 30*time.Second {
			t.Errorf("Elapsed = %v, want 30s", rec.Elapsed())
		}
	})

	t.Run("FailedRun", func(t *testing.T) {
		l := newLedger(t)
		l.BeginRun(RunRecord{ID: "run-f", StartedAt: t0})

		if err := l.FinishRun("run-f", runner.Summary{}, errors.New("boom")); err != nil {
			t.Fatal(err)
		}
		rec, _ := l.Run("run-f")
		if rec.Status != StatusFailed || rec.Error != "boom" {
			t.Errorf("run = %+v, want failed with error boom", rec)
		}
	})

	t.Run("UnknownRun", func(t *testing.T) {
		l := newLedger(t)

		if _, err := l.Run("ghost"); !errors.Is(err, seeder.ErrRunNotFound) {
			t.Errorf("Run error = %v, want ErrRunNotFound", err)
		}
		if _, err := l.Batches("ghost"); !errors.Is(err, seeder.ErrRunNotFound) {
			t.Errorf("Batches error = %v, want ErrRunNotFound", err)
		}
		if err := l.FinishRun("ghost", runner.Summary{}, nil); !errors.Is(err, seeder.ErrRunNotFound) {
			t.Errorf("FinishRun error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("RunsNewestFirst", func(t *testing.T) {
		l := newLedger(t)
		for i, id := range []string{"b", "c", "a"} {
			l.BeginRun(RunRecord{ID: id, StartedAt: t0.Add(time.Duration(i) * time.Hour)})
		}

		runs, err := l.Runs(0)
		if err != nil {
			t.Fatalf("Runs failed: %v", err)
		}
		if len(runs) != 3 || runs[0].ID != "a" || runs[1].ID != "c" || runs[2].ID != "b" {
			t.Errorf("Runs order = %v, want [a c b]", runIDs(runs))
		}

		runs, _ = l.Runs(2)
		if len(runs) != 2 || runs[0].ID != "a" {
			t.Errorf("Runs(2) = %v, want [a c]", runIDs(runs))
		}
	})

	t.Run("BatchesInIndexOrder", func(t *testing.T) {
		l := newLedger(t)
		l.BeginRun(RunRecord{ID: "run-b", StartedAt: t0})
		l.BeginRun(RunRecord{ID: "run-bb", StartedAt: t0})

		// Out of order, as the concurrent strategy reports them
		for _, idx := range []int{10, 2, 0, 1} {
			l.BatchDone("run-b", runner.BatchResult{
				Batch:     runner.Batch{Index: idx, Start: idx * 3, Size: 3},
				Succeeded: 3,
			})
		}
		l.BatchDone("run-b", runner.BatchResult{
			Batch:  runner.Batch{Index: 3, Start: 9, Size: 3},
			Failed: 3,
			Err:    seeder.ErrBatchPanic,
		})
		l.BatchDone("run-bb", runner.BatchResult{Batch: runner.Batch{Index: 0, Size: 1}, Succeeded: 1})

		batches, err := l.Batches("run-b")
		if err != nil {
			t.Fatalf("Batches failed: %v", err)
		}
		want := []int{0, 1, 2, 3, 10}
		if len(batches) != len(want) {
			t.Fatalf("got %d batches, want %d", len(batches), len(want))
		}
		for i, b := range batches {
			if b.Index != want[i] {
				t.Errorf("batch %d index = %d, want %d", i, b.Index, want[i])
			}
		}
		if batches[3].Failed != 3 || batches[3].Error != seeder.ErrBatchPanic.Error() {
			t.Errorf("failed batch = %+v", batches[3])
		}
	})
}

func runIDs(runs []RunRecord) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestLedger_Memory(t *testing.T) {
	ledgerTestSuite(t, func(t *testing.T) *Ledger {
		l, err := Open("")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return l
	})
}

func TestLedger_Bbolt(t *testing.T) {
	ledgerTestSuite(t, func(t *testing.T) *Ledger {
		l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		t.Cleanup(func() { l.Close() })
		return l
	})
}

func TestLedger_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.BeginRun(RunRecord{ID: "kept", StartedAt: t0})
	l.BatchDone("kept", runner.BatchResult{Batch: runner.Batch{Index: 0, Size: 5}, Succeeded: 5})
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l.Close()

	if _, err := l.Run("kept"); err != nil {
		t.Errorf("Run after reopen: %v", err)
	}
	batches, err := l.Batches("kept")
	if err != nil || len(batches) != 1 || batches[0].Succeeded != 5 {
		t.Errorf("Batches after reopen = %+v, %v", batches, err)
	}
}

func TestNew_VersionCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		current string
		wantErr bool
	}{
		{"fresh ledger", "", "v1.1.0", false},
		{"same version", "v1.1.0", "v1.1.0", false},
		{"older minor", "v1.0.0", "v1.1.0", false},
		{"newer patch", "v1.1.5", "v1.1.0", false},
		{"older major", "v0.9.0", "v1.1.0", true},
		{"newer major", "v2.0.0", "v1.1.0", true},
		{"garbage", "banana", "v1.1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			if tt.stored != "" {
				backend.CreateBucket(metaBucket)
				backend.Put(metaBucket, versionKey, []byte(tt.stored))
			}

			_, err := New(backend, tt.current)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, seeder.ErrIncompatibleVersion) {
				t.Errorf("error = %v, want ErrIncompatibleVersion", err)
			}

			if !tt.wantErr {
				stored, _ := backend.Get(metaBucket, versionKey)
				if string(stored) != tt.current {
					t.Errorf("stored version = %s, want %s", stored, tt.current)
				}
			}
		})
	}
}

func TestOpen_RefusesIncompatibleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	backend, err := NewBboltBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	backend.CreateBucket(metaBucket)
	backend.Put(metaBucket, versionKey, []byte("v9.0.0"))
	backend.Close()

	if _, err := Open(path); !errors.Is(err, seeder.ErrIncompatibleVersion) {
		t.Errorf("Open error = %v, want ErrIncompatibleVersion", err)
	}

	// The lock must have been released on failure
	backend, err = NewBboltBackend(path)
	if err != nil {
		t.Fatalf("reopen after refusal failed: %v", err)
	}
	backend.Close()
}
