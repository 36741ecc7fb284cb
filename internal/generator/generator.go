// Package generator produces synthetic account records for seeding.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

// Config holds generator configuration
type Config struct {
	EmailDomain string
	Password    string

	// Token is embedded in every email to keep runs from colliding with
	// each other. Defaults to the current Unix time in milliseconds.
	Token string

	// Rand picks names. Defaults to a PCG source seeded from the clock.
	Rand *rand.Rand
}

// Generator builds AccountRecords from the static name tables.
// Safe for concurrent use.
type Generator struct {
	domain   string
	password string
	token    string

	mu   sync.Mutex
	rand *rand.Rand

	// Lower-cased copies of the name tables, used for email local parts
	localFirst []string
	localLast  []string
}

// New creates a generator. It does not validate the domain; Batch does,
// so that a bad domain surfaces as a per-batch failure.
func New(cfg Config) *Generator {
	token := cfg.Token
	if token == "" {
		token = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	r := cfg.Rand
	if r == nil {
		seed := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	g := &Generator{
		domain:     strings.ToLower(strings.TrimSpace(cfg.EmailDomain)),
		password:   cfg.Password,
		token:      token,
		rand:       r,
		localFirst: make([]string, len(firstNames)),
		localLast:  make([]string, len(lastNames)),
	}
	for i, name := range firstNames {
		g.localFirst[i] = strings.ToLower(name)
	}
	for i, name := range lastNames {
		g.localLast[i] = strings.ToLower(name)
	}
	return g
}

// Token returns the uniqueness token embedded in generated emails.
func (g *Generator) Token() string {
	return g.token
}

// Batch returns n records whose global indices start at start.
// The index is part of the email, so two batches of the same run never
// share an address.
func (g *Generator) Batch(start, n int) ([]seeder.AccountRecord, error) {
	if n < 0 || start < 0 {
		return nil, fmt.Errorf("%w: start=%d n=%d", seeder.ErrInvalidCount, start, n)
	}
	if err := ValidateDomain(g.domain); err != nil {
		return nil, err
	}

	records := make([]seeder.AccountRecord, n)
	for i := range records {
		first, last := g.pickName()
		records[i] = seeder.AccountRecord{
			Email:    g.email(first, last, start+i),
			Password: g.password,
			Metadata: seeder.Metadata{
				FirstName:     firstNames[first],
				LastName:      lastNames[last],
				EmailVerified: true,
			},
		}
	}
	return records, nil
}

func (g *Generator) pickName() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.IntN(len(firstNames)), g.rand.IntN(len(lastNames))
}

func (g *Generator) email(first, last, index int) string {
	var b strings.Builder
	b.Grow(64)
	b.WriteString(g.localFirst[first])
	b.WriteByte('.')
	b.WriteString(g.localLast[last])
	b.WriteByte('.')
	b.WriteString(g.token)
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(index))
	b.WriteByte('@')
	b.WriteString(g.domain)
	return b.String()
}

// ValidateDomain reports whether domain can follow the @ of a generated
// email, after the same trimming and lower-casing New applies.
func ValidateDomain(domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("%w: empty", seeder.ErrInvalidDomain)
	}
	if strings.ContainsAny(domain, "@ \t") || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("%w: %q", seeder.ErrInvalidDomain, domain)
	}
	return nil
}
