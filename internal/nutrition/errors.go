package nutrition

import (
	"errors"
	"strings"
)

// Sentinel errors for generative-model calls. Pipelines convert these into a
// structured failure envelope; they never cross into the calling layer as
// raw errors.
var (
	// ErrOverloaded indicates the model was overloaded on every attempt and
	// the retry budget is exhausted.
	ErrOverloaded = errors.New("model overloaded")

	// ErrServerFailure indicates a non-retryable upstream server error.
	ErrServerFailure = errors.New("model server error")

	// ErrBadResponseFormat indicates a strict-JSON pipeline received output
	// that could not be parsed against its schema.
	ErrBadResponseFormat = errors.New("unparseable model response")

	// ErrUnknown is the catch-all for network, parsing, and unexpected
	// failures around the model call.
	ErrUnknown = errors.New("unexpected model failure")
)

// User-facing messages. These stay generic and non-alarming; diagnostic
// detail goes to the logs and the envelope's Err field instead.
const (
	msgOverloaded = "The AI service is currently experiencing high load. Please try again in a few moments."
	msgServer     = "I apologize, but I encountered a server error. Please try again."
	msgUnknown    = "I apologize, but I encountered an unexpected error. Please try again."
)

// UserMessage maps a generate failure to its user-facing message.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrOverloaded):
		return msgOverloaded
	case errors.Is(err, ErrServerFailure):
		return msgServer
	default:
		return msgUnknown
	}
}

// overloadedError reports whether err is the transient overload class that
// warrants exponential backoff.
func overloadedError(err error) bool {
	return containsAny(err.Error(),
		"503", "overloaded", "unavailable", "429", "resource exhausted", "rate limit", "quota")
}

// serverError reports whether err is a non-retryable upstream server error.
func serverError(err error) bool {
	return containsAny(err.Error(), "500", "502", "504", "internal server", "server error")
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
