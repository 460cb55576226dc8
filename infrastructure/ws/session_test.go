package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, bufferSize int) *Session {
	t.Helper()
	return NewSession(nil, "user", nil, slog.Default(),
		bufferSize, time.Second, time.Second, 4096)
}

func TestSession_Tracks_Call_Peer_On_Both_Sides(t *testing.T) {
	tests := []struct {
		name     string
		kinds    []domain.SignalKind
		wantPeer string
	}{
		{"offer opens signaling", []domain.SignalKind{domain.SignalOffer}, "peer"},
		{"call-start opens signaling", []domain.SignalKind{domain.SignalCallStart}, "peer"},
		{"answering opens signaling too", []domain.SignalKind{domain.SignalAnswer}, "peer"},
		{"call-end clears it", []domain.SignalKind{domain.SignalOffer, domain.SignalCallEnd}, ""},
		{"ice-candidate alone tracks nothing", []domain.SignalKind{domain.SignalICECandidate}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			session := newTestSession(t, 1)

			for _, kind := range tt.kinds {
				session.trackCall(kind, "peer")
			}

			req.Equal(tt.wantPeer, session.CallPeer())
		})
	}
}

func TestSession_Consume_Drops_When_Buffer_Full(t *testing.T) {
	req := require.New(t)
	session := newTestSession(t, 1)

	// Given a full send buffer and no write pump draining it
	req.NoError(session.Consume(context.Background(), event.SendFailure{Reason: "first"}))

	// When another event arrives, Consume returns promptly instead of
	// stalling the relay
	done := make(chan error, 1)
	go func() {
		done <- session.Consume(context.Background(), event.SendFailure{Reason: "second"})
	}()

	select {
	case err := <-done:
		req.Error(err)
		req.Contains(err.Error(), "buffer full")
	case <-time.After(time.Second):
		req.Fail("Consume blocked on a full buffer")
	}
}

func TestSession_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	session := newTestSession(t, 1)

	session.Close()

	err := session.Consume(context.Background(), event.SendFailure{Reason: "late"})
	req.Error(err)
	req.Contains(err.Error(), "closed")
}
