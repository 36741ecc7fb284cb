// Package config loads the seeder's run configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kinfe123/supabase-auth-seeder/internal/generator"
	"github.com/Kinfe123/supabase-auth-seeder/internal/runner"
	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// Environment variable names.
const (
	EnvConfigFile        = "SEEDER_CONFIG"
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvServiceRoleKey    = "SUPABASE_SERVICE_ROLE_KEY"
	EnvTotalUsers        = "TOTAL_USERS"
	EnvBatchSize         = "BATCH_SIZE"
	EnvConcurrentBatches = "CONCURRENT_BATCHES"
	EnvDefaultPassword   = "DEFAULT_PASSWORD"
	EnvEmailDomain       = "EMAIL_DOMAIN"
	EnvStrategy          = "SEED_STRATEGY"
	EnvLedger            = "SEED_LEDGER"
)

// Config is the complete configuration of one seeding run. It is read
// once at startup and not modified afterwards.
type Config struct {
	// SupabaseURL is the base URL of the project, e.g. https://xyz.supabase.co.
	SupabaseURL string `yaml:"supabase_url"`

	// ServiceRoleKey is the admin credential sent with every request.
	ServiceRoleKey string `yaml:"service_role_key"`

	TotalUsers        int    `yaml:"total_users"`
	BatchSize         int    `yaml:"batch_size"`
	ConcurrentBatches int    `yaml:"concurrent_batches"`
	DefaultPassword   string `yaml:"default_password"`
	EmailDomain       string `yaml:"email_domain"`

	// Strategy is one of runner.Names().
	Strategy string `yaml:"strategy"`

	// RequestTimeout bounds a single account creation call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// LedgerPath is the bbolt file recording runs. Empty keeps the
	// ledger in memory for the lifetime of the process.
	LedgerPath string `yaml:"ledger"`

	Debug  bool `yaml:"debug"`
	DryRun bool `yaml:"dry_run"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TotalUsers:        7_000_000,
		BatchSize:         1000,
		ConcurrentBatches: 5,
		DefaultPassword:   "password123",
		EmailDomain:       "example.com",
		Strategy:          "concurrent",
		RequestTimeout:    30 * time.Second,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	log.Printf("[CONFIG] Loaded %s", path)
	return nil
}

// ApplyEnv overlays environment variables onto c. lookup is usually
// os.LookupEnv. A variable that is set but malformed is an error.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		v, ok := lookup(name)
		if !ok || v == "" {
			return
		}
		n, err := parseCount(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", seeder.ErrInvalidValue, name, v))
			return
		}
		*dst = n
	}

	str(EnvSupabaseURL, &c.SupabaseURL)
	str(EnvServiceRoleKey, &c.ServiceRoleKey)
	num(EnvTotalUsers, &c.TotalUsers)
	num(EnvBatchSize, &c.BatchSize)
	num(EnvConcurrentBatches, &c.ConcurrentBatches)
	str(EnvDefaultPassword, &c.DefaultPassword)
	str(EnvEmailDomain, &c.EmailDomain)
	str(EnvStrategy, &c.Strategy)
	str(EnvLedger, &c.LedgerPath)

	return errors.Join(errs...)
}

// Validate reports every problem with c at once. Credentials are only
// required when requests will actually be sent.
func (c *Config) Validate() error {
	var errs []error

	if !c.DryRun {
		var missing []string
		if c.SupabaseURL == "" {
			missing = append(missing, EnvSupabaseURL)
		}
		if c.ServiceRoleKey == "" {
			missing = append(missing, EnvServiceRoleKey)
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("%w: %s", seeder.ErrMissingSetting, strings.Join(missing, ", ")))
		}
	}

	positive := []struct {
		name  string
		value int
	}{
		{"total users", c.TotalUsers},
		{"batch size", c.BatchSize},
		{"concurrent batches", c.ConcurrentBatches},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", seeder.ErrInvalidValue, p.name, p.value))
		}
	}

	if err := generator.ValidateDomain(c.EmailDomain); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", seeder.ErrInvalidValue, EnvEmailDomain, err))
	}
	if c.DefaultPassword == "" {
		errs = append(errs, fmt.Errorf("%w: default password is empty", seeder.ErrInvalidValue))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: request timeout must be positive", seeder.ErrInvalidValue))
	}
	if _, ok := runner.Registry[c.Strategy]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q (available: %s)", seeder.ErrUnknownPolicy, c.Strategy, strings.Join(runner.Names(), ", ")))
	}

	return errors.Join(errs...)
}

// parseCount accepts plain integers and underscore or comma grouping
// ("7_000_000", "7,000,000").
func parseCount(s string) (int, error) {
	s = strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(s))
	return strconv.Atoi(s)
}
