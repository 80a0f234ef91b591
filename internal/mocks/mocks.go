// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/freddy/api/schemas"
)

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// NewMockLLMClient creates a new, ready-to-use mock LLM client.
func NewMockLLMClient() *MockLLMClient {
	return new(MockLLMClient)
}

// Generate mocks the LLM generation call.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Close mocks closing the client.
func (m *MockLLMClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
