package llm

import "fmt"

// ErrorCategory classifies an LlmError so callers can decide whether to
// retry, surface to the user, or abort ingestion.
type ErrorCategory string

const (
	// CategoryRateLimit indicates a 429 response; retried with backoff.
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategoryBadRequest indicates a 4xx (non-429) response; never retried.
	CategoryBadRequest ErrorCategory = "bad_request"
	// CategoryServer indicates a 5xx response; retried with backoff.
	CategoryServer ErrorCategory = "server"
	// CategoryTimeout indicates the request deadline or context was exceeded.
	CategoryTimeout ErrorCategory = "timeout"
)

// LlmError is the typed error returned for all non-2xx or transport
// failures from the chat-completion endpoint.
type LlmError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
}

func (e *LlmError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s (status %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Category, e.Message)
}

// Transient reports whether the error category warrants a retry:
// rate_limit, server, and timeout are transient; bad_request is not.
func (e *LlmError) Transient() bool {
	switch e.Category {
	case CategoryRateLimit, CategoryServer, CategoryTimeout:
		return true
	default:
		return false
	}
}
