package mocks

import (
	"context"
	"sync"
)

// SentMessage is one recorded MockSender.Send call.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockSender implements notify.Sender for testing. It is safe for concurrent use.
type MockSender struct {
	SendFn func(ctx context.Context, to, subject, body string) error

	mu    sync.Mutex
	calls []SentMessage
	sent  chan SentMessage
}

// NewMockSender creates a MockSender whose Sent channel buffers up to n calls.
func NewMockSender(n int) *MockSender {
	return &MockSender{sent: make(chan SentMessage, n)}
}

// Send implements notify.Sender
func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	msg := SentMessage{To: to, Subject: subject, Body: body}

	m.mu.Lock()
	m.calls = append(m.calls, msg)
	m.mu.Unlock()

	var err error
	if m.SendFn != nil {
		err = m.SendFn(ctx, to, subject, body)
	}

	if m.sent != nil {
		select {
		case m.sent <- msg:
		default:
		}
	}
	return err
}

// Calls returns a copy of every recorded call.
func (m *MockSender) Calls() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.calls))
	copy(out, m.calls)
	return out
}

// Sent returns a channel receiving each call after it completes.
// It is nil unless the mock was built with NewMockSender.
func (m *MockSender) Sent() <-chan SentMessage {
	return m.sent
}
