// Package domain contains core concepts of the relay.
// Messages are immutable once created and validated by the domain.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event between two users.
// ID and CreatedAt are assigned by the store at append time.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ConversationKey identifies the unordered pair of participants of a
// message exchange. The same key is produced regardless of direction, so
// it can serve as a storage prefix and a history query key.
func ConversationKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

// Belongs reports whether the message is part of the {userA, userB}
// conversation, in either direction.
func (m Message) Belongs(userA, userB string) bool {
	return ConversationKey(m.SenderID, m.ReceiverID) == ConversationKey(userA, userB)
}
