package memory

import (
	"context"
	"sync"

	"github.com/livingsystems/orient/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.SessionID][]*domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.SessionID][]*domain.Message),
	}
}

func (s *MessageStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &stored)
	return nil
}

func (s *MessageStore) GetSessionMessages(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}
