package services

import (
	"context"
	"sync"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	GenerateFunc  func(ctx context.Context, system string, user string) (string, error)

	// Track calls for testing
	InitModelCalls []string
	GenerateCalls  []GenerateCall

	// Responses are returned in order when GenerateFunc is unset; the last
	// one repeats once exhausted.
	Responses []string

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	System string
	User   string
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		GenerateCalls:  make([]GenerateCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Generate mocks completion generation
func (m *MockLLMAPI) Generate(ctx context.Context, system string, user string) (string, error) {
	m.mu.Lock()
	fn := m.GenerateFunc
	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{System: system, User: user})
	var queued string
	var hasQueued bool
	if fn == nil && len(m.Responses) > 0 {
		queued = m.Responses[0]
		hasQueued = true
		if len(m.Responses) > 1 {
			m.Responses = m.Responses[1:]
		}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, user)
	}
	if hasQueued {
		return queued, nil
	}
	return "Mock response", nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateCalls = make([]GenerateCall, 0)
	m.Responses = nil
}

// SetGenerateError sets up the mock to return an error on Generate
func (m *MockLLMAPI) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, system string, user string) (string, error) {
		return "", err
	}
}

// SetResponse sets up the mock to always return one fixed response
func (m *MockLLMAPI) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, system string, user string) (string, error) {
		return response, nil
	}
}

// GetGenerateCalls returns a copy of the generate call log
func (m *MockLLMAPI) GetGenerateCalls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]GenerateCall, len(m.GenerateCalls))
	copy(calls, m.GenerateCalls)
	return calls
}
