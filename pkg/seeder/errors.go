package seeder

import "errors"

// Sentinel errors for common error conditions
var (
	// Configuration errors
	ErrMissingSetting = errors.New("missing required setting")
	ErrInvalidValue   = errors.New("invalid setting value")
	ErrUnknownPolicy  = errors.New("unknown seeding strategy")

	// Account creation errors
	ErrCreateFailed   = errors.New("create user failed")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrRateLimited    = errors.New("rate limited")
	ErrTransport      = errors.New("transport error")

	// Generator errors
	ErrInvalidCount  = errors.New("invalid record count")
	ErrInvalidDomain = errors.New("invalid email domain")

	// Batch errors
	ErrBatchPanic = errors.New("batch panicked")

	// Ledger errors
	ErrRunNotFound         = errors.New("run not found")
	ErrIncompatibleVersion = errors.New("incompatible ledger version")
)
