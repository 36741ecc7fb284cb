package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Kinfe123/supabase-auth-seeder/internal/authadmin"
	"github.com/Kinfe123/supabase-auth-seeder/internal/config"
	"github.com/Kinfe123/supabase-auth-seeder/internal/generator"
	"github.com/Kinfe123/supabase-auth-seeder/internal/ledger"
	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

const historyLimit = 20

// options holds the raw command-line values. Only flags the user
// actually set override the file and environment layers.
type options struct {
	users      int
	batch      int
	concurrent int
	strategy   string
	configPath string
	ledgerPath string
	debug      bool
	dryRun     bool
	history    bool
	version    bool
	help       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, lookup func(string) (string, bool)) error {
	flagSet, opts := newFlagSet()
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(stdout, flagSet)
		return nil
	}
	if opts.version {
		fmt.Fprintf(stdout, "seeder %s\n", seeder.Version)
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := loadConfig(flagSet, opts, lookup)
	if err != nil {
		return err
	}

	if opts.history {
		return showHistory(stdout, cfg.LedgerPath)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	return seed(stdout, cfg)
}

func newFlagSet() (*pflag.FlagSet, *options) {
	opts := &options{}
	fs := pflag.NewFlagSet("seeder", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&opts.users, "users", 0, "number of users to create (env TOTAL_USERS)")
	fs.IntVar(&opts.batch, "batch", 0, "records per batch (env BATCH_SIZE)")
	fs.IntVar(&opts.concurrent, "concurrent", 0, "batches in flight for the concurrent strategy (env CONCURRENT_BATCHES)")
	fs.StringVar(&opts.strategy, "strategy", "", "seeding strategy: concurrent, chunked or conservative (env SEED_STRATEGY)")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (env SEEDER_CONFIG)")
	fs.StringVar(&opts.ledgerPath, "ledger", "", "bbolt file recording runs (env SEED_LEDGER)")
	fs.BoolVar(&opts.debug, "debug", false, "log every failed record")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "generate records without contacting the service")
	fs.BoolVar(&opts.history, "history", false, "list recent runs from the ledger and exit")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.BoolVarP(&opts.help, "help", "h", false, "show help")
	return fs, opts
}

// loadConfig layers defaults, the YAML file, the environment and the
// flags the user set, in that order.
func loadConfig(fs *pflag.FlagSet, opts *options, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.Default()

	path := opts.configPath
	if path == "" {
		path, _ = lookup(config.EnvConfigFile)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if fs.Changed("users") {
		cfg.TotalUsers = opts.users
	}
	if fs.Changed("batch") {
		cfg.BatchSize = opts.batch
	}
	if fs.Changed("concurrent") {
		cfg.ConcurrentBatches = opts.concurrent
	}
	if fs.Changed("strategy") {
		cfg.Strategy = opts.strategy
	}
	if fs.Changed("ledger") {
		cfg.LedgerPath = opts.ledgerPath
	}
	if opts.debug {
		cfg.Debug = true
	}
	if opts.dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}

func seed(stdout io.Writer, cfg *config.Config) error {
	strategy, err := runner.Lookup(cfg.Strategy)
	if err != nil {
		return err
	}

	book, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer book.Close()

	var creator seeder.Creator
	if cfg.DryRun {
		creator = &authadmin.DryRunCreator{Verbose: cfg.Debug}
	} else {
		creator = authadmin.NewClient(authadmin.Config{
			BaseURL:        cfg.SupabaseURL,
			ServiceRoleKey: cfg.ServiceRoleKey,
			Timeout:        cfg.RequestTimeout,
		})
	}

	gen := generator.New(generator.Config{
		EmailDomain: cfg.EmailDomain,
		Password:    cfg.DefaultPassword,
	})

	runID := uuid.NewString()
	printBanner(stdout, cfg, runID, gen.Token())

	r, err := runner.New(runner.Options{
		RunID:       runID,
		Strategy:    strategy,
		Total:       cfg.TotalUsers,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.ConcurrentBatches,
		Source:      gen,
		Creator:     creator,
		Reporter:    newReporter(stdout),
		Observer:    book,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return err
	}

	err = book.BeginRun(ledger.RunRecord{
		ID:          runID,
		Strategy:    strategy.Name(),
		Total:       cfg.TotalUsers,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.ConcurrentBatches,
		EmailDomain: cfg.EmailDomain,
		DryRun:      cfg.DryRun,
		StartedAt:   time.Now(),
	})
	if err != nil {
		log.Printf("[LEDGER] Failed to record run start: %v", err)
	}

	summary, runErr := r.Run(context.Background())

	if err := book.FinishRun(runID, summary, runErr); err != nil {
		log.Printf("[LEDGER] Failed to record run result: %v", err)
	}

	printSummary(stdout, summary)
	return runErr
}

// newReporter draws a progress bar on a terminal and plain lines
// everywhere else.
func newReporter(w io.Writer) runner.Reporter {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &runner.BarReporter{W: w}
	}
	return &runner.LineReporter{W: w}
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `Seed a Supabase project with synthetic auth users.

Usage:
  seeder [flags]

Strategies:
  concurrent    several batches in flight at once (default)
  chunked       one batch at a time, records created in sub-chunks of 100
  conservative  one record at a time in batches of at most 100, with retries

Environment:
  SUPABASE_URL                project URL (required)
  SUPABASE_SERVICE_ROLE_KEY   service role key (required)
  TOTAL_USERS                 default 7000000
  BATCH_SIZE                  default 1000
  CONCURRENT_BATCHES          default 5
  DEFAULT_PASSWORD            default password123
  EMAIL_DOMAIN                default example.com
  SEED_STRATEGY, SEED_LEDGER, SEEDER_CONFIG

Examples:
  seeder --users=10000 --batch=500
  seeder --strategy=conservative --users=1000
  seeder --dry-run --users=100 --debug

Flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}
