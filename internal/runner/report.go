package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// LineReporter prints one plain line per finished batch. Used when
// output is not a terminal.
type LineReporter struct {
	W io.Writer
}

func (r *LineReporter) Start(plan PlanInfo) {
	fmt.Fprintf(r.W, "Seeding %s users with the %s strategy (%s batches of %s)\n",
		humanize.Comma(int64(plan.Total)), plan.Strategy,
		humanize.Comma(int64(plan.Batches)), humanize.Comma(int64(plan.BatchSize)))
}

func (r *LineReporter) Progress(p Progress) {
	fmt.Fprintf(r.W, "Batch %d/%d: %s/%s created (%.2f%%), %s errors, %s/min, ETA %s\n",
		p.Batch, p.Batches,
		humanize.Comma(p.Processed), humanize.Comma(int64(p.Total)), p.Percent,
		humanize.Comma(p.Errors),
		humanize.CommafWithDigits(p.PerMinute, 0),
		FormatETA(p.ETA, p.HasETA))
}

func (r *LineReporter) Finish(s Summary) {}

// BarReporter renders a progress bar keyed on created accounts.
type BarReporter struct {
	W   io.Writer
	bar *progressbar.ProgressBar
}

func (r *BarReporter) Start(plan PlanInfo) {
	r.bar = progressbar.NewOptions64(int64(plan.Total),
		progressbar.OptionSetWriter(r.W),
		progressbar.OptionSetDescription(plan.Strategy),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(r.W) }),
	)
}

func (r *BarReporter) Progress(p Progress) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("batch %d/%d, %s errors, ETA %s",
		p.Batch, p.Batches, humanize.Comma(p.Errors), FormatETA(p.ETA, p.HasETA)))
	_ = r.bar.Set64(p.Processed)
}

// Finish leaves the bar at the created count. Finish on the bar itself
// would fill it to the total even when records failed.
func (r *BarReporter) Finish(s Summary) {
	if r.bar == nil {
		return
	}
	if s.Processed >= int64(s.Total) {
		_ = r.bar.Finish()
		return
	}
	_ = r.bar.Set64(s.Processed)
	_ = r.bar.Exit()
}

// FormatETA renders an ETA for humans.
func FormatETA(eta time.Duration, ok bool) string {
	if !ok {
		return "calculating..."
	}
	return FormatDuration(eta)
}

// FormatDuration rounds d to a readable precision: whole seconds above a
// minute, milliseconds below.
func FormatDuration(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
