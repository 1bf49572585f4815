package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/haven-intake/internal/domain"
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

func (s *MessageStore) AppendMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &stored)
	return nil
}

// GetMessagesBySession returns the last `limit` messages in insertion order.
// If limit <= 0, returns all.
func (s *MessageStore) GetMessagesBySession(_ context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
