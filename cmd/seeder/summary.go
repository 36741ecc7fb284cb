package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Kinfe123/supabase-auth-seeder/internal/config"
	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type row struct {
	label string
	value string
}

func renderBox(title string, rows []row) string {
	lines := []string{titleStyle.Render(title), ""}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+r.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func printBanner(w io.Writer, cfg *config.Config, runID, token string) {
	target := cfg.SupabaseURL
	if cfg.DryRun {
		target = "dry run (no requests sent)"
	}
	ledgerPath := cfg.LedgerPath
	if ledgerPath == "" {
		ledgerPath = "in memory"
	}

	rows := []row{
		{"Run", runID},
		{"Target", target},
		{"Strategy", cfg.Strategy},
		{"Users", humanize.Comma(int64(cfg.TotalUsers))},
		{"Batch size", humanize.Comma(int64(cfg.BatchSize))},
	}
	if cfg.Strategy == "concurrent" {
		rows = append(rows, row{"Concurrency", fmt.Sprintf("%d batches", cfg.ConcurrentBatches)})
	}
	rows = append(rows,
		row{"Emails", fmt.Sprintf("first.last.%s.<n>@%s", token, cfg.EmailDomain)},
		row{"Ledger", ledgerPath},
	)

	fmt.Fprintln(w, renderBox("Supabase auth seeder", rows))
}

func printSummary(w io.Writer, s runner.Summary) {
	errCount := okStyle.Render("0")
	if s.Errors > 0 {
		errCount = warnStyle.Render(humanize.Comma(s.Errors))
	}

	rows := []row{
		{"Created", fmt.Sprintf("%s of %s (%.2f%%)",
			humanize.Comma(s.Processed), humanize.Comma(int64(s.Total)), runner.Percentage(s.Processed, s.Total))},
		{"Errors", errCount},
		{"Batches", humanize.Comma(int64(s.Batches))},
		{"Elapsed", runner.FormatDuration(s.Elapsed)},
		{"Rate", humanize.CommafWithDigits(s.PerMinute, 0) + " users/min"},
	}

	fmt.Fprintln(w, renderBox("Seeding complete", rows))
}
