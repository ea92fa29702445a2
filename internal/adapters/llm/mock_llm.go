package llm

import (
	"context"
	"sync"

	"github.com/livingsystems/orient/internal/domain"
)

// Mock is a scripted domain.ChatBackend for tests and local mode. It
// records every request it receives so tests can assert which backend
// calls happened (or didn't).
type Mock struct {
	mu    sync.Mutex
	calls []domain.ChatRequest

	// StreamChunks is emitted in order before the terminal event.
	StreamChunks []string
	// StreamErr, when set, replaces the Done event after the chunks.
	StreamErr error

	CompleteText string
	CompleteErr  error
}

func NewMock() *Mock {
	return &Mock{
		StreamChunks: []string{"I'm here. ", "What's alive for you this morning?"},
		CompleteText: "## One Degree\n\nTake one slow breath before the first meeting.",
	}
}

func (m *Mock) record(req domain.ChatRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
}

// Calls returns a copy of every request received so far.
func (m *Mock) Calls() []domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) Stream(ctx context.Context, req domain.ChatRequest) <-chan domain.StreamEvent {
	m.record(req)

	out := make(chan domain.StreamEvent)
	go func() {
		defer close(out)
		send := func(ev domain.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, chunk := range m.StreamChunks {
			if !send(domain.StreamEvent{Text: chunk}) {
				return
			}
		}
		if m.StreamErr != nil {
			send(domain.StreamEvent{Err: m.StreamErr})
			return
		}
		send(domain.StreamEvent{Done: true})
	}()
	return out
}

func (m *Mock) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	m.record(req)
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	return m.CompleteText, nil
}
