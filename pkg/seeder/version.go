package seeder

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the seeder release, also stamped into every ledger it writes.
const Version = "v1.1.0"

// IsCompatibleVersion checks whether a ledger written by version other can
// be read and appended to by version current.
// Compatibility rules:
// - Major version must match exactly.
// - Minor and patch versions can differ.
func IsCompatibleVersion(other, current string) (bool, error) {
	if !semver.IsValid(other) {
		return false, fmt.Errorf("invalid ledger version: %s", other)
	}
	if !semver.IsValid(current) {
		return false, fmt.Errorf("invalid seeder version: %s", current)
	}

	return semver.Major(other) == semver.Major(current), nil
}
