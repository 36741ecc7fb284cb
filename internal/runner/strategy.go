package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// Strategy schedules the batches of a run.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, exec *Execution) error
}

// BatchSizer is implemented by strategies that override the configured
// batch size.
type BatchSizer interface {
	BatchSize(requested int) int
}

// Registry maps strategy names to factories
var Registry = map[string]func() Strategy{
	"concurrent":   func() Strategy { return &Concurrent{} },
	"chunked":      func() Strategy { return &Chunked{} },
	"conservative": func() Strategy { return &Conservative{} },
}

// Lookup returns a new strategy by name
func Lookup(name string) (Strategy, error) {
	factory, exists := Registry[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q (available: %v)", seeder.ErrUnknownPolicy, name, Names())
	}
	return factory(), nil
}

// Names returns all registered strategy names, sorted
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// createParallel creates every record in its own goroutine and waits for
// all of them. A failure never cancels its siblings.
func createParallel(ctx context.Context, creator seeder.Creator, records []seeder.AccountRecord, rec *Recorder) {
	var wg sync.WaitGroup
	for _, record := range records {
		wg.Add(1)
		go func(record seeder.AccountRecord) {
			defer wg.Done()
			rec.Record(record, safely(func() error {
				return creator.Create(ctx, record)
			}))
		}(record)
	}
	wg.Wait()
}
