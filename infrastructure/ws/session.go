// Package ws owns the live-connection lifecycle: handshake authentication,
// presence registration, and the per-session read/write pumps.
package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/runtime"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is one live connection bound to exactly one authenticated user.
// It never outlives its underlying connection: creation happens at
// handshake completion and the presence entry is removed exactly once on
// any close path.
type Session struct {
	ID     string
	UserID string

	conn      *websocket.Conn
	send      chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once

	relay *runtime.Relay
	log   *slog.Logger

	pingInterval   time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64

	// callPeer is the user this session last opened signaling with. Only
	// the read loop touches it, so no locking is needed.
	callPeer string
}

func NewSession(conn *websocket.Conn, userID string, relay *runtime.Relay,
	log *slog.Logger, bufferSize int,
	pingInterval, writeTimeout time.Duration, maxMessageSize int64) *Session {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		conn:           conn,
		send:           make(chan event.DomainEvent, bufferSize),
		done:           make(chan struct{}),
		relay:          relay,
		log:            log,
		pingInterval:   pingInterval,
		writeTimeout:   writeTimeout,
		maxMessageSize: maxMessageSize,
	}
}

// Consume queues an event for delivery to this session. It never blocks
// the relay: a full buffer means this client is too slow and the event is
// dropped with an error the relay logs and counts.
func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s closed", s.ID)
	default:
	}

	select {
	case s.send <- e:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s closed", s.ID)
	default:
		return fmt.Errorf("session %s buffer full, event dropped", s.ID)
	}
}

// Close tears the session down exactly once. Safe to call from any
// goroutine and from any close path, including abrupt transport failure.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ReadPump consumes inbound frames until the connection dies, dispatching
// each event to the relay. It runs on the connection's handler goroutine;
// per-sender ordering follows from this loop being the only dispatcher for
// the session.
func (s *Session) ReadPump(ctx context.Context) {
	defer s.Close()

	_ = s.conn.SetReadDeadline(time.Now().Add(s.pingInterval * 2))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.pingInterval * 2))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadEnd(err)
			return
		}
		s.dispatch(ctx, raw)
	}
}

// dispatch routes one inbound frame. Malformed events are rejected to this
// session only; they never affect other sessions or close the connection.
func (s *Session) dispatch(ctx context.Context, raw []byte) {
	evt, err := ParseInbound(raw)
	if err != nil {
		s.reject(ctx, err)
		return
	}

	if evt.Type == chatEventType {
		if _, err := s.relay.SendChat(ctx, s.UserID, evt.ReceiverID, evt.Content); err != nil {
			s.reject(ctx, err)
		}
		return
	}

	kind := domain.SignalKind(evt.Type)
	s.trackCall(kind, evt.ToUserID)
	err = s.relay.Signal(ctx, s.UserID, domain.SignalingEvent{
		Kind:     kind,
		ToUserID: evt.ToUserID,
		Payload:  evt.Payload,
	})
	if err != nil {
		s.reject(ctx, err)
	}
}

// trackCall remembers the current signaling counterpart so a disconnect
// can be relayed to them as a call-end notice. Both ends of a call track
// each other: the offering side on offer or call-start, the answering side
// on answer.
func (s *Session) trackCall(kind domain.SignalKind, toUserID string) {
	switch kind {
	case domain.SignalOffer, domain.SignalCallStart, domain.SignalAnswer:
		s.callPeer = toUserID
	case domain.SignalCallEnd:
		s.callPeer = ""
	}
}

// CallPeer returns the user this session is currently signaling with, or
// the empty string.
func (s *Session) CallPeer() string {
	return s.callPeer
}

// reject notifies the originating session of its own failed send. Other
// sessions never observe it.
func (s *Session) reject(ctx context.Context, cause error) {
	if err := s.Consume(ctx, event.SendFailure{Reason: cause.Error()}); err != nil {
		s.log.Debug("Could not deliver failure notice", "session_id", s.ID, "error", err)
	}
}

// WritePump serializes queued events onto the connection and keeps the
// client alive with pings. It exits when the session is closed or a write
// fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.writeControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case e := <-s.send:
			data, err := EncodeOutbound(e)
			if err != nil {
				s.log.Error("Failed to encode outbound event", "session_id", s.ID, "error", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("Write failed, closing session", "session_id", s.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := s.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) writeControl(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(messageType, data)
}

func (s *Session) logReadEnd(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.log.Debug("Session disconnected", "session_id", s.ID, "user_id", s.UserID)
	case stderrors.Is(err, io.EOF), stderrors.Is(err, websocket.ErrReadLimit):
		s.log.Debug("Session read ended", "session_id", s.ID, "error", err)
	default:
		s.log.Warn("Unexpected read error", "session_id", s.ID, "error", err)
	}
}
