package mock

import (
	"github.com/poiesic/corpus/ai"
)

// MockProvider is a test double for ai.Provider bundling the mock services.
type MockProvider struct {
	MockEmbedder  *MockEmbedder
	MockChatModel *MockChatModel
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with fresh mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder:  NewMockEmbedder(),
		MockChatModel: NewMockChatModel(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// ChatModel returns the mock chat service.
func (p *MockProvider) ChatModel() ai.ChatModel {
	return p.MockChatModel
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
