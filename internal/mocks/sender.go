package mocks

import (
	"context"
	"sync"

	"anonmatch/backend/internal/chathub"

	"github.com/stretchr/testify/mock"
)

// SentMessage is one delivery recorded by MockSender.
type SentMessage struct {
	UserID   int64
	Text     string
	Keyboard [][]chathub.Button
}

// MockSender is a mock chathub.Sender that also records every call.
type MockSender struct {
	mock.Mock

	mu   sync.Mutex
	sent []SentMessage
}

func (m *MockSender) Send(ctx context.Context, userID int64, text string, keyboard [][]chathub.Button) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{UserID: userID, Text: text, Keyboard: keyboard})
	m.mu.Unlock()

	args := m.Called(ctx, userID, text, keyboard)
	return args.Error(0)
}

// SentTo returns the texts delivered to userID, in order.
func (m *MockSender) SentTo(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var texts []string
	for _, s := range m.sent {
		if s.UserID == userID {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

// Sent returns every recorded delivery.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
