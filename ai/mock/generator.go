package mock

import (
	"context"
	"sync"

	"github.com/poiesic/minutes/ai"
)

// MockGenerator is a test double for ai.Generator.
// Requests are recorded in call order.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns Response.
	GenerateFunc func(ctx context.Context, req ai.Request) (string, error)

	// Response is returned when GenerateFunc is nil.
	Response string

	mu       sync.Mutex
	requests []ai.Request
}

// NewMockGenerator creates a mock generator that always answers response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// NewFailingGenerator creates a mock generator that always returns err.
func NewFailingGenerator(err error) *MockGenerator {
	return &MockGenerator{
		GenerateFunc: func(context.Context, ai.Request) (string, error) {
			return "", err
		},
	}
}

// Generate records the request and returns the scripted completion.
func (m *MockGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.GenerateFunc
	resp := m.Response
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests.
func (m *MockGenerator) Requests() []ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears recorded requests.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}
