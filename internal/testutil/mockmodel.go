// Package testutil provides deterministic AI doubles for tests: a scriptable
// generative model and a deterministic embedder, both registered through
// Genkit the same way the production Google AI actions are.
package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModel provides deterministic generative responses for testing.
// Calls consume a scripted queue of responses and errors in order; when the
// queue is empty, the fallback text is returned.
//
// Thread-safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	script   []scriptStep
	fallback string
	prompts  []string
}

type scriptStep struct {
	text string
	err  error
}

// NewMockModel creates a mock model with the given fallback response.
func NewMockModel(fallback string) *MockModel {
	return &MockModel{fallback: fallback}
}

// Queue appends a successful text response to the script.
func (m *MockModel) Queue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{text: text})
}

// QueueError appends a failing call to the script.
func (m *MockModel) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{err: err})
}

// Calls returns the number of generate calls made so far.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt text the model received.
func (m *MockModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.prompts))
	copy(cp, m.prompts)
	return cp
}

// LastPrompt returns the most recent prompt text, or "" if none.
func (m *MockModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Register registers the mock as a Genkit model and returns a reference.
// The model name will be "mock/nutrition-model".
func (m *MockModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/nutrition-model", &ai.ModelOptions{
		Label: "Mock Nutrition Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			SystemRole: true,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockModel) generate(_ context.Context, req *ai.ModelRequest, _ ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			prompt = req.Messages[i].Text()
			break
		}
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)

	text := m.fallback
	var err error
	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]
		text, err = step.text, step.err
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(text)},
		},
	}, nil
}
