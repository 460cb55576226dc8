//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(userID string) (User, error)
	UserExists(userID string) (bool, error)
	AddContact(userID, contactEmail string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Contact is a denormalized contact-list entry, stored with the owning user.
type Contact struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the stored representation of an account. The ID is the opaque
// stable identity used for presence and message ownership; it never changes
// once assigned.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Contacts     []Contact `json:"contacts"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Two keys per user: "user:{email}" holds the record, "uid:{id}" is a
// secondary index so token claims (which carry the ID) resolve in one Get.
func emailKey(email string) []byte { return []byte("user:" + email) }
func idKey(id string) []byte       { return []byte("uid:" + id) }

// CreateUser persists a new user and returns the generated user ID.
// The email must be unused.
func (u *UserRepository) CreateUser(email, hashedPassword string) (string, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		Contacts:     []Contact{},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), data); err != nil {
			return err
		}
		return txn.Set(idKey(user.ID), []byte(email))
	})

	return user.ID, err
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUserByID resolves the secondary index first, then loads the record.
func (u *UserRepository) GetUserByID(userID string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return getUserInTxn(txn, idKey(userID), &user)
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return User{}, errors.ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UserExists is the authenticator's lookup: a valid token whose user was
// deleted must be rejected.
func (u *UserRepository) UserExists(userID string) (bool, error) {
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(idKey(userID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddContact links two accounts reciprocally: adding a contact also adds
// the caller to the contact's list. Self-adds and duplicates are rejected.
// Reads and writes share one transaction so concurrent adds touching the
// same record conflict instead of losing an entry.
func (u *UserRepository) AddContact(userID, contactEmail string) (User, error) {
	var user User
	err := runWithConflictRetry(func() error {
		return u.db.Update(func(txn *badger.Txn) error {
			user = User{}
			if err := getUserInTxn(txn, idKey(userID), &user); err != nil {
				return err
			}

			var contact User
			item, err := txn.Get(emailKey(contactEmail))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return errors.ErrUserNotFound
				}
				return err
			}
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &contact)
			}); err != nil {
				return err
			}

			if contact.ID == user.ID {
				return errors.ErrSelfContact
			}
			if lo.ContainsBy(user.Contacts, func(c Contact) bool { return c.ID == contact.ID }) {
				return errors.ErrContactAlreadyExists
			}

			user.Contacts = append(user.Contacts, Contact{ID: contact.ID, Email: contact.Email})
			contact.Contacts = append(contact.Contacts, Contact{ID: user.ID, Email: user.Email})

			userData, err := json.Marshal(user)
			if err != nil {
				return err
			}
			contactData, err := json.Marshal(contact)
			if err != nil {
				return err
			}
			if err = txn.Set(emailKey(user.Email), userData); err != nil {
				return err
			}
			return txn.Set(emailKey(contact.Email), contactData)
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// runWithConflictRetry reruns a read-modify-write transaction that lost a
// Badger conflict check. Any other error is final.
func runWithConflictRetry(fn func() error) error {
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err != badger.ErrConflict {
			return err
		}
	}
	return err
}

// getUserInTxn resolves the id index and loads the user record within the
// caller's transaction.
func getUserInTxn(txn *badger.Txn, indexKey []byte, user *User) error {
	item, err := txn.Get(indexKey)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		return err
	}
	var email string
	if err = item.Value(func(val []byte) error {
		email = string(val)
		return nil
	}); err != nil {
		return err
	}

	record, err := txn.Get(emailKey(email))
	if err != nil {
		return err
	}
	return record.Value(func(val []byte) error {
		return json.Unmarshal(val, user)
	})
}
