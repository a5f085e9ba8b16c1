package mock

import (
	"context"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// By default it replays Responses in order, repeating the last one; with no
// responses configured it returns an empty reply.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Responses are returned in call order when CompleteFunc is nil.
	Responses []string

	mu      sync.Mutex
	prompts []string
}

// NewMockCompleter creates a mock completer that replays the given responses.
func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{Responses: responses}
}

// Complete records the prompt and returns the next configured reply.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}

	if len(m.Responses) == 0 {
		return "", nil
	}
	if call >= len(m.Responses) {
		call = len(m.Responses) - 1
	}
	return m.Responses[call], nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears the call history and custom behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.Responses = nil
	m.CompleteFunc = nil
}
