package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()

	if c.TotalUsers != 7_000_000 {
		t.Errorf("TotalUsers = %d, want 7000000", c.TotalUsers)
	}
	if c.BatchSize != 1000 {
		t.Errorf("BatchSize = %d, want 1000", c.BatchSize)
	}
	if c.ConcurrentBatches != 5 {
		t.Errorf("ConcurrentBatches = %d, want 5", c.ConcurrentBatches)
	}
	if c.DefaultPassword != "password123" {
		t.Errorf("DefaultPassword = %q, want password123", c.DefaultPassword)
	}
	if c.EmailDomain != "example.com" {
		t.Errorf("EmailDomain = %q, want example.com", c.EmailDomain)
	}
	if c.Strategy != "concurrent" {
		t.Errorf("Strategy = %q, want concurrent", c.Strategy)
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(envMap(map[string]string{
		EnvSupabaseURL:       "https://abc.supabase.co",
		EnvServiceRoleKey:    "secret",
		EnvTotalUsers:        "7_000",
		EnvBatchSize:         "250",
		EnvConcurrentBatches: "3",
		EnvEmailDomain:       "test.dev",
		EnvStrategy:          "chunked",
		EnvLedger:            "/tmp/ledger.db",
		EnvDefaultPassword:   "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if c.SupabaseURL != "https://abc.supabase.co" || c.ServiceRoleKey != "secret" {
		t.Errorf("credentials not applied: %+v", c)
	}
	if c.TotalUsers != 7000 || c.BatchSize != 250 || c.ConcurrentBatches != 3 {
		t.Errorf("counts = %d/%d/%d, want 7000/250/3", c.TotalUsers, c.BatchSize, c.ConcurrentBatches)
	}
	if c.EmailDomain != "test.dev" || c.Strategy != "chunked" || c.LedgerPath != "/tmp/ledger.db" {
		t.Errorf("strings not applied: %+v", c)
	}
	if c.DefaultPassword != "password123" {
		t.Errorf("empty env var overrode password: %q", c.DefaultPassword)
	}
}

func TestApplyEnv_MalformedNumbers(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(envMap(map[string]string{
		EnvTotalUsers: "lots",
		EnvBatchSize:  "1e3",
	}))

	if !errors.Is(err, seeder.ErrInvalidValue) {
		t.Fatalf("error = %v, want ErrInvalidValue", err)
	}
	for _, name := range []string{EnvTotalUsers, EnvBatchSize} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if c.TotalUsers != 7_000_000 {
		t.Errorf("malformed value changed TotalUsers to %d", c.TotalUsers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeder.yaml")
	data := `
supabase_url: https://file.supabase.co
total_users: 500
strategy: conservative
request_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if c.SupabaseURL != "https://file.supabase.co" || c.TotalUsers != 500 || c.Strategy != "conservative" {
		t.Errorf("file values not applied: %+v", c)
	}
	if c.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", c.RequestTimeout)
	}
	if c.BatchSize != 1000 {
		t.Errorf("BatchSize = %d, absent key should keep default", c.BatchSize)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	c := Default()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("total_users: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestPrecedence_EnvOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeder.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 10\nemail_domain: file.dev\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if err := c.ApplyEnv(envMap(map[string]string{EnvBatchSize: "20"})); err != nil {
		t.Fatal(err)
	}

	if c.BatchSize != 20 {
		t.Errorf("BatchSize = %d, want env value 20", c.BatchSize)
	}
	if c.EmailDomain != "file.dev" {
		t.Errorf("EmailDomain = %q, want file value", c.EmailDomain)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	c := Default()
	err := c.Validate()

	if !errors.Is(err, seeder.ErrMissingSetting) {
		t.Fatalf("error = %v, want ErrMissingSetting", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, EnvSupabaseURL) || !strings.Contains(msg, EnvServiceRoleKey) {
		t.Errorf("error %q should name both missing settings", msg)
	}

	c.SupabaseURL = "https://x.supabase.co"
	err = c.Validate()
	if err == nil || strings.Contains(err.Error(), EnvSupabaseURL) {
		t.Errorf("error = %v, want only %s missing", err, EnvServiceRoleKey)
	}
}

func TestValidate_DomainNormalized(t *testing.T) {
	c := Default()
	c.DryRun = true
	c.EmailDomain = "  Example.COM "
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for a domain New would normalize", err)
	}
}

func TestValidate_DryRunSkipsCredentials(t *testing.T) {
	c := Default()
	c.DryRun = true
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for dry run", err)
	}
}

func TestValidate_Values(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero users", func(c *Config) { c.TotalUsers = 0 }, seeder.ErrInvalidValue},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, seeder.ErrInvalidValue},
		{"zero concurrency", func(c *Config) { c.ConcurrentBatches = 0 }, seeder.ErrInvalidValue},
		{"empty domain", func(c *Config) { c.EmailDomain = "" }, seeder.ErrInvalidValue},
		{"dotless domain", func(c *Config) { c.EmailDomain = "localhost" }, seeder.ErrInvalidDomain},
		{"domain with at sign", func(c *Config) { c.EmailDomain = "me@example.com" }, seeder.ErrInvalidValue},
		{"domain with trailing dot", func(c *Config) { c.EmailDomain = "example." }, seeder.ErrInvalidValue},
		{"empty password", func(c *Config) { c.DefaultPassword = "" }, seeder.ErrInvalidValue},
		{"no timeout", func(c *Config) { c.RequestTimeout = 0 }, seeder.ErrInvalidValue},
		{"unknown strategy", func(c *Config) { c.Strategy = "yolo" }, seeder.ErrUnknownPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.SupabaseURL = "https://x.supabase.co"
			c.ServiceRoleKey = "key"
			tt.mutate(c)

			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1000", 1000, false},
		{" 42 ", 42, false},
		{"7_000_000", 7000000, false},
		{"7,000,000", 7000000, false},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
