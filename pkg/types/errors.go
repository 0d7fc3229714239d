package types

import "errors"

// Domain errors for type validation
var (
	// Task record errors
	ErrInvalidDate     = errors.New("date must be a valid YYYYMMDD value")
	ErrInvalidTaskKind = errors.New("unknown task kind")
	ErrEmptyRegion     = errors.New("region cannot be empty")
	ErrEmptyTaskName   = errors.New("task name cannot be empty")

	// Currency errors
	ErrEmptyCurrency = errors.New("currency id cannot be empty")
)
