package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/Kinfe123/supabase-auth-seeder/internal/ledger"
	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
)

func showHistory(w io.Writer, path string) error {
	if path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set SEED_LEDGER")
	}

	book, err := ledger.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer book.Close()

	runs, err := book.Runs(historyLimit)
	if err != nil {
		return err
	}
	printHistory(w, runs)
	return nil
}

func printHistory(w io.Writer, runs []ledger.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	fmt.Fprintf(w, "%-36s %-12s %-10s %12s %10s %10s  %s\n",
		"RUN ID", "STRATEGY", "STATUS", "CREATED", "ERRORS", "ELAPSED", "STARTED")
	fmt.Fprintln(w, strings.Repeat("─", 115))
	for _, r := range runs {
		elapsed := "-"
		if d := r.Elapsed(); d > 0 {
			elapsed = runner.FormatDuration(d)
		}
		status := string(r.Status)
		if r.DryRun {
			status += "*"
		}
		fmt.Fprintf(w, "%-36s %-12s %-10s %12s %10s %10s  %s\n",
			r.ID, r.Strategy, status,
			humanize.Comma(r.Processed), humanize.Comma(r.Errors),
			elapsed, humanize.Time(r.StartedAt))
	}
	if lo.SomeBy(runs, func(r ledger.RunRecord) bool { return r.DryRun }) {
		fmt.Fprintln(w, "\n* dry run")
	}
}
