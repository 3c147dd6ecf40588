package domain

import "errors"

// Common domain errors
var (
	// Request-level errors, surfaced before any network activity
	ErrNoFiles      = errors.New("no files provided")
	ErrEmptyURL     = errors.New("file url cannot be empty")
	ErrTooManyFiles = errors.New("too many files requested")
	ErrMalformedURL = errors.New("malformed url")

	// ErrForbiddenDomain rejects the whole batch: validation runs over every
	// requested URL before the first fetch starts.
	ErrForbiddenDomain = errors.New("domain not in allowlist")

	// Per-item fetch errors, absorbed by the bundler (the item is dropped)
	ErrUpstreamStatus  = errors.New("upstream returned non-success status")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrBudgetExhausted = errors.New("archive size budget exhausted")
)
