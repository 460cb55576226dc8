package services

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthService(repositories.NewUserRepository(db), time.Hour)
}

func TestAuthService_Register_Issues_Valid_Token(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	// When registering a new user
	token, user, err := service.Register("alice@example.com", "Sup3r$ecretPass!")
	req.NoError(err)
	req.Equal("alice@example.com", user.Email)

	// Then the issued token authenticates as that user
	claims, err := auth.ValidateToken(token.String())
	req.NoError(err)
	req.Equal(user.ID, claims.UserID)
}

func TestAuthService_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, _, err := service.Register("alice@example.com", "weak")
	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func TestAuthService_Register_Rejects_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, _, err := service.Register("alice@example.com", "Sup3r$ecretPass!")
	req.NoError(err)

	_, _, err = service.Register("alice@example.com", "An0ther$ecret!!")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, registered, err := service.Register("alice@example.com", "Sup3r$ecretPass!")
	req.NoError(err)

	// When logging in with the right password
	token, user, err := service.Login("alice@example.com", "Sup3r$ecretPass!")
	req.NoError(err)
	req.Equal(registered.ID, user.ID)
	req.NotEmpty(token.String())

	// Then a wrong password and an unknown email both fail the same way
	_, _, err = service.Login("alice@example.com", "WrongPassword1!")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, _, err = service.Login("nobody@example.com", "Sup3r$ecretPass!")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestAuthService_AddContact_Visible_From_Both_Sides(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, alice, err := service.Register("alice@example.com", "Sup3r$ecretPass!")
	req.NoError(err)
	_, bob, err := service.Register("bob@example.com", "Sup3r$ecretPass!")
	req.NoError(err)

	updated, err := service.AddContact(alice.ID, "bob@example.com")
	req.NoError(err)
	req.Len(updated.Contacts, 1)
	req.Equal(bob.ID, updated.Contacts[0].ID)

	bobSide, err := service.Me(bob.ID)
	req.NoError(err)
	req.Len(bobSide.Contacts, 1)
	req.Equal(alice.ID, bobSide.Contacts[0].ID)
}
