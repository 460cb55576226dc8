//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(senderID, receiverID, content string) (domain.Message, error)
	History(userA, userB string) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int

	mu       sync.Mutex
	lastNano int64
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// Append assigns the message its identity and creation time, then persists
// it in BadgerDB. The key is formatted as "conv:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Group both directions of a conversation under one prefix (the pair is
//     the sorted user-ID couple).
//  2. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  3. Break same-nanosecond ties deterministically with the UUID, so the
//     scan order is a stable total order by (createdAt, id).
func (m *MessageRepository) Append(senderID, receiverID, content string) (domain.Message, error) {
	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  m.nextCreationTime(),
	}

	key := fmt.Sprintf("conv:%s:%019d:%s",
		domain.ConversationKey(senderID, receiverID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

// nextCreationTime returns a wall-clock timestamp that never goes backwards
// within this store, keeping insertion order and key order aligned even if
// the system clock steps back.
func (m *MessageRepository) nextCreationTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if now.UnixNano() < m.lastNano {
		now = time.Unix(0, m.lastNano).UTC()
	}
	m.lastNano = now.UnixNano()
	return now
}

// History retrieves every message exchanged between the two users, in both
// directions, ascending by creation time. Thanks to the padded timestamp in
// the key, a prefix scan is naturally sorted; when a message limit is
// configured the scan runs backwards so the most recent messages win.
// An empty conversation yields an empty slice, not an error.
func (m *MessageRepository) History(userA, userB string) ([]domain.Message, error) {
	var raw [][]byte
	prefix := []byte(fmt.Sprintf("conv:%s:", domain.ConversationKey(userA, userB)))

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = m.limitMessages != nil
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if options.Reverse {
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if m.limitMessages != nil {
		reverse(messages)
	}
	return messages, nil
}

func reverse(messages []domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
