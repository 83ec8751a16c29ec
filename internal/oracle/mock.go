package oracle

import (
	"context"
	"sync"
)

// Mock is a fixture-backed oracle for offline mode and tests. Responses
// are returned in order; when they run out, the last one repeats. An
// optional Err makes every call fail, for exercising fallback paths.
type Mock struct {
	mu        sync.Mutex
	responses []string
	next      int

	Err error

	// Prompts records every prompt received, for assertions.
	Prompts []string
}

// NewMock creates a mock oracle that cycles through responses.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

// GenerateText returns the next scripted response.
func (m *Mock) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", &CallError{Variant: "mock", Err: m.Err}
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	resp := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	return resp, nil
}
