// Package runtime hosts presence tracking and event relaying. It routes
// events between sessions without containing business rules of its own.
package runtime

import (
	"chat-relay/contract"
	"sync"
)

// Registry is the in-memory presence table: user identity to the set of
// currently-open sessions for that user. A user may own zero or many
// concurrent sessions (multi-device); "offline" is the empty set, not an
// error state.
type Registry struct {
	mu       sync.RWMutex
	Sessions map[string]map[string]contract.EventSink // user -> session id -> sink
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[string]map[string]contract.EventSink),
	}
}

// Join registers a session under the user's identity. Idempotent: joining
// the same (user, session) pair twice keeps a single entry.
func (r *Registry) Join(userID, sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Sessions[userID]; !ok {
		r.Sessions[userID] = make(map[string]contract.EventSink)
	}
	r.Sessions[userID][sessionID] = sink
}

// Leave removes a session. Idempotent: leaving a session that was never
// joined is a no-op. Removing the last session also removes the user entry
// so no empty sets linger.
func (r *Registry) Leave(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.Sessions[userID]
	if !ok {
		return
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(r.Sessions, userID)
	}
}

// SessionsFor returns a snapshot of the user's open sessions at the moment
// of the call. The copy is taken under a read lock, so writers are never
// blocked longer than the copy and readers never observe a torn set. A
// session closing right after the snapshot is legitimate: the resulting
// failed push is swallowed by the relay.
func (r *Registry) SessionsFor(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.Sessions[userID]
	if !ok {
		return nil
	}
	snapshot := make([]contract.EventSink, 0, len(sessions))
	for _, sink := range sessions {
		snapshot = append(snapshot, sink)
	}
	return snapshot
}

// CountSessions reports the total number of open sessions, for monitoring.
func (r *Registry) CountSessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, sessions := range r.Sessions {
		total += len(sessions)
	}
	return total
}
