// Package memory provides the short-term conversational memory used to inject
// recent dialogue into prompts.
//
// ShortTerm is an in-process sliding window and does not survive restarts; the
// chat pipeline reloads persisted history per request instead (see the history
// package). ShortTerm remains the right fit for a single analyzer session.
package memory

import (
	"strings"
	"sync"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EmptyContext is returned by Context when no turns are retained.
const EmptyContext = "No previous conversation."

// Turn is a single conversation entry.
type Turn struct {
	Role    string
	Message string
}

// ShortTerm is a bounded, ordered log of conversation turns. When the bound
// is exceeded, the oldest turns are dropped first (sliding window).
//
// Safe for concurrent use.
type ShortTerm struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

// NewShortTerm creates a memory bounded to maxTurns entries.
// A non-positive bound falls back to 6.
func NewShortTerm(maxTurns int) *ShortTerm {
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &ShortTerm{maxTurns: maxTurns}
}

// Add appends a turn, then truncates to the most recent maxTurns entries.
func (m *ShortTerm) Add(role, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, Turn{Role: role, Message: message})
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// Context renders the retained turns as a newline-joined "ROLE: message"
// transcript, oldest first, or EmptyContext when nothing is retained.
func (m *ShortTerm) Context() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.turns) == 0 {
		return EmptyContext
	}

	lines := make([]string, len(m.turns))
	for i, turn := range m.turns {
		lines[i] = strings.ToUpper(turn.Role) + ": " + turn.Message
	}
	return strings.Join(lines, "\n")
}

// Len returns the number of retained turns.
func (m *ShortTerm) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Clear resets the memory to empty.
func (m *ShortTerm) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
