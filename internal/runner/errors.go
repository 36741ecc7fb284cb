package runner

import "errors"

var (
	ErrAlreadyRun      = errors.New("runner already used")
	ErrNoStrategy      = errors.New("no strategy configured")
	ErrNoCreator       = errors.New("no account creator configured")
	ErrNoSource        = errors.New("no record source configured")
	ErrInvalidPlanSize = errors.New("total and batch size must be positive")
)
