// Package event defines the events pushed to connected sessions.
package event

import "chat-relay/domain"

// DomainEvent is what a session sink consumes. Implementations carry either
// a persisted chat message, a relayed signaling event, or a failure notice
// addressed to a single session.
type DomainEvent interface {
	EventType() string
}

// MessageDelivered wraps a chat message that has already been persisted.
// Persistence happens-before delivery, so a sink never observes a message
// that is absent from the store.
type MessageDelivered struct {
	Message domain.Message
}

func (MessageDelivered) EventType() string { return "message" }

// SignalDelivered wraps a transient signaling event on its way to the
// target user's sessions.
type SignalDelivered struct {
	Signal domain.SignalingEvent
}

func (e SignalDelivered) EventType() string { return string(e.Signal.Kind) }

// SendFailure notifies the originating session that its send was rejected.
// It is never fanned out to other sessions.
type SendFailure struct {
	Reason string
}

func (SendFailure) EventType() string { return "error" }
