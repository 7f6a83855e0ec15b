package notify

import (
	"context"
	"sync"
)

// MockNotifier records sent messages for tests.
type MockNotifier struct {
	// SendErr, when set, is returned by every Send call.
	SendErr error

	mu       sync.Mutex
	messages []Message
}

// NewMockNotifier creates an empty mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the message.
func (m *MockNotifier) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.SendErr
}

// Messages returns a copy of all recorded messages.
func (m *MockNotifier) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
