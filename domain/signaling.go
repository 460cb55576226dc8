package domain

import "encoding/json"

// SignalKind enumerates the transient call-setup events the relay forwards.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
	SignalCallStart    SignalKind = "call-start"
	SignalCallEnd      SignalKind = "call-end"
)

// IsValid reports whether the kind is one of the supported signaling kinds.
func (k SignalKind) IsValid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate, SignalCallStart, SignalCallEnd:
		return true
	}
	return false
}

// SignalingEvent is a transient call-setup message. It exists only for the
// duration of one relay hop and is never persisted: an offline target simply
// misses it.
type SignalingEvent struct {
	Kind       SignalKind      `json:"kind"`
	FromUserID string          `json:"fromUserId"`
	ToUserID   string          `json:"toUserId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
