// Package clock abstracts the two time operations the seeder depends on:
// reading the current time and pausing. Production code uses Real();
// tests use Fake() so pacing pauses and retry backoff cost no wall time
// and can be asserted exactly.
package clock

import "time"

// Clock is the time source injected into the runner.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the calling goroutine for at least d.
	// If d <= 0, it returns immediately.
	Sleep(d time.Duration)
}

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
