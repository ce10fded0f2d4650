package llm

import "errors"

var (
	// ErrNotConfigured indicates no endpoint or credential was supplied.
	ErrNotConfigured = errors.New("llm client not configured")

	// ErrUnavailable indicates the generation service could not be reached
	// or answered with a non-200 status.
	ErrUnavailable = errors.New("llm service unavailable")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("llm request timed out")
)
