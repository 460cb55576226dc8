package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Relay turns one inbound event from one session into zero-or-more outbound
// pushes. Chat messages are persisted before any fan-out; signaling events
// are forwarded as-is and never stored.
//
// The relay is called synchronously from each session's read loop, so one
// sender's messages are persisted and dispatched in the order they were
// issued. No global order across senders is promised.
type Relay struct {
	log       *slog.Logger
	store     repositories.IMessageRepository
	registry  contract.IRegistry
	moderator *moderation.Moderator
	monitor   *observability.Monitor
}

func NewRelay(log *slog.Logger, store repositories.IMessageRepository,
	registry contract.IRegistry, moderator *moderation.Moderator,
	monitor *observability.Monitor) *Relay {
	return &Relay{
		log:       log,
		store:     store,
		registry:  registry,
		moderator: moderator,
		monitor:   monitor,
	}
}

// SendChat validates, persists and fans out one chat message. Self-chat is
// allowed. On store failure the error goes back to the caller only and no
// push happens: an unpersisted message must never be delivered.
//
// The stored message is pushed to the union of the sender's and the
// receiver's currently registered sessions, so the sender's other devices
// observe it too.
func (r *Relay) SendChat(ctx context.Context, senderID, receiverID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if receiverID == "" {
		return domain.Message{}, errors.ErrMalformedEvent
	}

	content = r.censor(senderID, content)

	message, err := r.store.Append(senderID, receiverID, content)
	if err != nil {
		return domain.Message{}, err
	}

	targets := r.registry.SessionsFor(receiverID)
	if senderID != receiverID {
		targets = append(targets, r.registry.SessionsFor(senderID)...)
	}
	r.push(ctx, targets, event.MessageDelivered{Message: message})

	r.monitor.IncrMessagesRelayed()
	return message, nil
}

// Signal forwards a transient call-setup event to the target user's
// sessions. An offline target is a normal no-op, not an error: signaling
// has no retry or backlog semantics.
func (r *Relay) Signal(ctx context.Context, senderID string, signal domain.SignalingEvent) error {
	if !signal.Kind.IsValid() || signal.ToUserID == "" {
		return errors.ErrMalformedEvent
	}
	signal.FromUserID = senderID

	targets := r.registry.SessionsFor(signal.ToUserID)
	if len(targets) == 0 {
		r.log.Debug("Signal dropped, target offline",
			"kind", signal.Kind, "from", senderID, "to", signal.ToUserID)
		r.monitor.IncrSignalsDropped()
		return nil
	}

	r.push(ctx, targets, event.SignalDelivered{Signal: signal})
	r.monitor.IncrSignalsRelayed()
	return nil
}

// NotifyDisconnect relays a best-effort call-end notice to the peer a
// disconnecting session was signaling with.
func (r *Relay) NotifyDisconnect(ctx context.Context, userID, peerID string) {
	if peerID == "" {
		return
	}
	_ = r.Signal(ctx, userID, domain.SignalingEvent{
		Kind:     domain.SignalCallEnd,
		ToUserID: peerID,
	})
}

// push delivers the event to every sink in the snapshot. Each push is a
// result inspected here: a failed push (session closed microseconds after
// the snapshot, or a full buffer) is logged and counted, never surfaced to
// the sender and never allowed to crash the dispatch.
func (r *Relay) push(ctx context.Context, targets []contract.EventSink, e event.DomainEvent) {
	for _, sink := range targets {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("Push to session failed", "event", e.EventType(), "error", err)
			r.monitor.IncrPushFailures()
		}
	}
}

func (r *Relay) censor(senderID, content string) string {
	if r.moderator == nil {
		return content
	}
	censored, matched := r.moderator.Censor(content)
	if matched {
		info := whatlanggo.Detect(content)
		r.log.Warn("Message censored",
			"author", senderID,
			"lang", info.Lang.Iso6391())
		r.monitor.IncrCensored()
	}
	return censored
}
