package repositories

import (
	"chat-relay/errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Lookup(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	// When creating a user
	userID, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)
	req.NotEmpty(userID)

	// Then it resolves by email and by identity
	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(userID, byEmail.ID)

	byID, err := repository.GetUserByID(userID)
	req.NoError(err)
	req.Equal("alice@example.com", byID.Email)

	exists, err := repository.UserExists(userID)
	req.NoError(err)
	req.True(exists)
}

func TestUserRepository_Duplicate_Email_Rejected(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("alice@example.com", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_User_Does_Not_Exist(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	exists, err := repository.UserExists("nobody")
	req.NoError(err)
	req.False(exists)

	_, err = repository.GetUserByID("nobody")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_AddContact_Is_Reciprocal(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	aliceID, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)
	bobID, err := repository.CreateUser("bob@example.com", "hash")
	req.NoError(err)

	// When Alice adds Bob
	alice, err := repository.AddContact(aliceID, "bob@example.com")
	req.NoError(err)

	// Then both contact lists are updated
	req.Len(alice.Contacts, 1)
	req.Equal(bobID, alice.Contacts[0].ID)

	bob, err := repository.GetUserByID(bobID)
	req.NoError(err)
	req.Len(bob.Contacts, 1)
	req.Equal(aliceID, bob.Contacts[0].ID)
}

func TestUserRepository_AddContact_Rejects_Self_And_Duplicates(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	aliceID, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)
	_, err = repository.CreateUser("bob@example.com", "hash")
	req.NoError(err)

	_, err = repository.AddContact(aliceID, "alice@example.com")
	req.ErrorIs(err, errors.ErrSelfContact)

	_, err = repository.AddContact(aliceID, "bob@example.com")
	req.NoError(err)
	_, err = repository.AddContact(aliceID, "bob@example.com")
	req.ErrorIs(err, errors.ErrContactAlreadyExists)
}

func TestUserRepository_AddContact_Unknown_Contact(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	aliceID, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)

	_, err = repository.AddContact(aliceID, "ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_AddContact_Concurrent_Adds_Lose_Nothing(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	aliceID, err := repository.CreateUser("alice@example.com", "hash")
	req.NoError(err)

	contacts := []string{
		"bob@example.com",
		"clara@example.com",
		"dave@example.com",
		"erin@example.com",
	}
	for _, email := range contacts {
		_, err := repository.CreateUser(email, "hash")
		req.NoError(err)
	}

	// When the same account adds several contacts concurrently
	results := make(chan error, len(contacts))
	var wg sync.WaitGroup
	for _, email := range contacts {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := repository.AddContact(aliceID, email)
			results <- err
		}(email)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}

	// Then every add that reported success is actually recorded: the
	// read-modify-write never silently drops a racing entry
	alice, err := repository.GetUserByID(aliceID)
	req.NoError(err)
	req.Len(alice.Contacts, succeeded)
	req.NotZero(succeeded)
}
