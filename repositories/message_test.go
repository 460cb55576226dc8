package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessageRepository_Append_And_History_Both_Directions(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	alice, bob := uuid.NewString(), uuid.NewString()

	// Given messages flowing in both directions
	first, err := repository.Append(alice, bob, "hello bob")
	req.NoError(err)
	second, err := repository.Append(bob, alice, "hello alice")
	req.NoError(err)
	third, err := repository.Append(alice, bob, "how are you")
	req.NoError(err)

	// When either participant queries the conversation
	forward, err := repository.History(alice, bob)
	req.NoError(err)
	backward, err := repository.History(bob, alice)
	req.NoError(err)

	// Then both directions return the same ascending sequence
	req.Equal([]string{first.Content, second.Content, third.Content},
		[]string{forward[0].Content, forward[1].Content, forward[2].Content})
	req.Equal(forward, backward)
}

func TestMessageRepository_History_Only_Contains_The_Pair(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	alice, bob, clara := uuid.NewString(), uuid.NewString(), uuid.NewString()

	_, err := repository.Append(alice, bob, "for bob")
	req.NoError(err)
	_, err = repository.Append(alice, clara, "for clara")
	req.NoError(err)
	_, err = repository.Append(clara, bob, "for bob too")
	req.NoError(err)

	history, err := repository.History(alice, bob)
	req.NoError(err)

	req.Len(history, 1)
	req.Equal("for bob", history[0].Content)
}

func TestMessageRepository_History_Is_Sorted_By_Creation_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	alice, bob := uuid.NewString(), uuid.NewString()

	var appended []string
	for i := 0; i < 20; i++ {
		message, err := repository.Append(alice, bob, uuid.NewString())
		req.NoError(err)
		appended = append(appended, message.Content)
	}

	history, err := repository.History(alice, bob)
	req.NoError(err)
	req.Len(history, len(appended))

	// Insertion order is the retrieval order
	for i, message := range history {
		req.Equal(appended[i], message.Content)
	}

	// And createdAt is non-decreasing
	for i := 1; i < len(history); i++ {
		req.False(history[i].CreatedAt.Before(history[i-1].CreatedAt))
	}
}

func TestMessageRepository_Empty_Conversation_Is_Empty_Not_Error(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	history, err := repository.History(uuid.NewString(), uuid.NewString())

	req.NoError(err)
	req.Empty(history)
}

func TestMessageRepository_Limit_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(openTestDB(t), slog.Default(), &limit)
	alice, bob := uuid.NewString(), uuid.NewString()

	_, err := repository.Append(alice, bob, "first")
	req.NoError(err)
	_, err = repository.Append(alice, bob, "second")
	req.NoError(err)
	_, err = repository.Append(alice, bob, "third")
	req.NoError(err)

	history, err := repository.History(alice, bob)
	req.NoError(err)

	// The two most recent, still ascending
	req.Len(history, limit)
	req.Equal("second", history[0].Content)
	req.Equal("third", history[1].Content)
}

func TestMessageRepository_Ids_Are_Unique(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	alice, bob := uuid.NewString(), uuid.NewString()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		message, err := repository.Append(alice, bob, "x")
		req.NoError(err)
		_, dup := seen[message.ID.String()]
		req.False(dup)
		seen[message.ID.String()] = struct{}{}
	}
}
