package runtime

import (
	"chat-relay/domain/event"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent{}, s.events...)
}

func TestRegistry_Join_One_User_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sessionID := uuid.NewString()
	sink := &recordingSink{}

	// Given no session is registered
	req.Empty(registry.Sessions)

	// When a session joins
	registry.Join(userID, sessionID, sink)

	// Then the user is online with exactly that session
	req.Len(registry.Sessions, 1)
	req.Len(registry.SessionsFor(userID), 1)
	req.Contains(registry.SessionsFor(userID), sink)
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sessionID := uuid.NewString()
	sink := &recordingSink{}

	// When the same (user, session) pair joins twice
	registry.Join(userID, sessionID, sink)
	registry.Join(userID, sessionID, sink)

	// Then a single entry remains
	req.Len(registry.SessionsFor(userID), 1)
	req.Equal(1, registry.CountSessions())
}

func TestRegistry_Multiple_Sessions_Per_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sink1 := &recordingSink{}
	sink2 := &recordingSink{}

	// When the same user connects from two devices
	registry.Join(userID, uuid.NewString(), sink1)
	registry.Join(userID, uuid.NewString(), sink2)

	// Then both sessions are resolved
	snapshot := registry.SessionsFor(userID)
	req.Len(snapshot, 2)
	req.Contains(snapshot, sink1)
	req.Contains(snapshot, sink2)
}

func TestRegistry_Join_Then_Leave_Removes_User_Entry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sessionID := uuid.NewString()

	// Given a registered session
	registry.Join(userID, sessionID, &recordingSink{})

	// When it leaves
	registry.Leave(userID, sessionID)

	// Then the user entry is gone entirely, no dangling empty set
	req.Empty(registry.Sessions)
	req.Empty(registry.SessionsFor(userID))
}

func TestRegistry_Leave_Never_Joined_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()

	// When leaving a session that never joined
	registry.Leave(userID, uuid.NewString())

	// Then nothing happens
	req.Empty(registry.Sessions)
}

func TestRegistry_Leave_One_Of_Two_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sessionID1 := uuid.NewString()
	sessionID2 := uuid.NewString()
	sink2 := &recordingSink{}

	// Given two sessions for the same user
	registry.Join(userID, sessionID1, &recordingSink{})
	registry.Join(userID, sessionID2, sink2)

	// When the first disconnects
	registry.Leave(userID, sessionID1)

	// Then only the second remains
	snapshot := registry.SessionsFor(userID)
	req.Len(snapshot, 1)
	req.Contains(snapshot, sink2)
}

func TestRegistry_SessionsFor_Unknown_User_Is_Empty(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Offline is a normal state, not an error
	req.Empty(registry.SessionsFor(uuid.NewString()))
}

func TestRegistry_Concurrent_Join_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessionID := uuid.NewString()
			registry.Join(userID, sessionID, &recordingSink{})
			registry.SessionsFor(userID)
			registry.Leave(userID, sessionID)
		}()
	}
	wg.Wait()

	// Every join was matched by a leave
	req.Empty(registry.Sessions)
	req.Equal(0, registry.CountSessions())
}
