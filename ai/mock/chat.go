package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/corpus/ai"
)

// MockChatModel is a test double for ai.ChatModel.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, systemPrompt string, turns []ai.ChatTurn) (string, error)

	callCount int
}

// NewMockChatModel creates a mock chat model with default deterministic behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete echoes the last user turn in a canned reply.
func (m *MockChatModel) Complete(ctx context.Context, systemPrompt string, turns []ai.ChatTurn) (string, error) {
	m.callCount++

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, turns)
	}

	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].FromUser {
			last = turns[i].Text
			break
		}
	}
	return fmt.Sprintf("mock reply to: %s", last), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
}
