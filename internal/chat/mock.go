package chat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockReply is one canned transport result.
type MockReply struct {
	Reply *Reply
	Err   error
	Delay time.Duration
}

// MockCall records one Send.
type MockCall struct {
	Tab     Tab
	Content string
}

// MockTransport returns canned results in FIFO order. It is safe for
// concurrent use.
type MockTransport struct {
	mu      sync.Mutex
	replies []MockReply
	calls   []MockCall
}

// NewMockTransport creates a mock that returns replies in order.
func NewMockTransport(replies ...MockReply) *MockTransport {
	return &MockTransport{replies: replies}
}

// Enqueue appends more canned results.
func (m *MockTransport) Enqueue(replies ...MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *MockTransport) Send(ctx context.Context, tab Tab, content string) (*Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Tab: tab, Content: content})
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return nil, errors.New("mock transport: no more replies")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()

	if r.Delay > 0 {
		if err := sleep(ctx, r.Delay); err != nil {
			return nil, err
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Reply, nil
}

// Calls returns every Send recorded so far.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Send calls.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// TextReply is shorthand for a successful reply with no attachment.
func TextReply(content string) MockReply {
	return MockReply{Reply: &Reply{Content: content}}
}

// FailReply is shorthand for a failed send.
func FailReply(err error) MockReply {
	return MockReply{Err: err}
}
