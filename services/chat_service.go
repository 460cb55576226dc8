package services

import (
	"chat-relay/domain"
	"chat-relay/repositories"
)

type IChatService interface {
	History(callerID, peerID string) ([]domain.Message, error)
}

// ChatService exposes the durable message log to the HTTP layer. Live
// delivery is the relay's job, not this service's: history is a finite,
// re-queryable read and doubles as the recovery path after a crash between
// persistence and fan-out.
type ChatService struct {
	messages repositories.IMessageRepository
}

func NewChatService(messages repositories.IMessageRepository) *ChatService {
	return &ChatService{messages: messages}
}

func (s *ChatService) History(callerID, peerID string) ([]domain.Message, error) {
	return s.messages.History(callerID, peerID)
}
