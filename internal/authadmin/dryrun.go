package authadmin

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// DryRunCreator accepts every record without contacting the service.
type DryRunCreator struct {
	Verbose bool
	created atomic.Int64
}

// Create counts the record and returns nil
func (d *DryRunCreator) Create(ctx context.Context, record seeder.AccountRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.created.Add(1)
	if d.Verbose {
		log.Printf("[AUTHADMIN] dry run: would create %s", record.Email)
	}
	return nil
}

// Created returns how many records were accepted.
func (d *DryRunCreator) Created() int64 {
	return d.created.Load()
}
