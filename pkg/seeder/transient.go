package seeder

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// transientMarkers are substrings that identify network-level failures in
// error messages that lost their type on the way up.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"connection reset",
	"econnreset",
	"fetch failed",
}

// IsTransient reports whether err looks like a recoverable network failure
// worth retrying. Rejections from the service (duplicate email, validation,
// quota) are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateEmail) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
