package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
)

// InboundEvent is the JSON envelope a client sends over the live
// connection. Type is either "chat" or one of the signaling kinds.
type InboundEvent struct {
	Type       string          `json:"type"`
	ReceiverID string          `json:"receiverId,omitempty"`
	Content    string          `json:"content,omitempty"`
	ToUserID   string          `json:"toUserId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const chatEventType = "chat"

// ParseInbound decodes one raw frame. Anything that is not valid JSON with
// a known type is a malformed event, rejected to the sender only.
func ParseInbound(raw []byte) (InboundEvent, error) {
	var evt InboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return InboundEvent{}, errors.ErrMalformedEvent
	}
	if evt.Type != chatEventType && !domain.SignalKind(evt.Type).IsValid() {
		return InboundEvent{}, errors.ErrMalformedEvent
	}
	return evt, nil
}

// outboundEvent is the JSON envelope pushed to clients: a persisted chat
// message on "message", a relayed signaling event on its kind, or an error
// notice addressed to the offending session.
type outboundEvent struct {
	Type       string          `json:"type"`
	Message    *domain.Message `json:"message,omitempty"`
	FromUserID string          `json:"fromUserId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// EncodeOutbound maps a domain event to its wire form.
func EncodeOutbound(e event.DomainEvent) ([]byte, error) {
	var out outboundEvent
	switch evt := e.(type) {
	case event.MessageDelivered:
		message := evt.Message
		out = outboundEvent{Type: evt.EventType(), Message: &message}
	case event.SignalDelivered:
		out = outboundEvent{
			Type:       evt.EventType(),
			FromUserID: evt.Signal.FromUserID,
			Payload:    evt.Signal.Payload,
		}
	case event.SendFailure:
		out = outboundEvent{Type: evt.EventType(), Error: evt.Reason}
	default:
		return nil, errors.ErrMalformedEvent
	}
	return json.Marshal(out)
}
