//go:generate go run go.uber.org/mock/mockgen -source=authenticator.go -destination=../mocks/mock_authenticator.go -package=mocks
package auth

import (
	"chat-relay/errors"
	"fmt"
)

// UserLookup is the collaborator used to confirm that the identity embedded
// in a valid token still exists.
type UserLookup interface {
	UserExists(userID string) (bool, error)
}

// IAuthenticator verifies a bearer credential and extracts a user identity.
type IAuthenticator interface {
	Authenticate(credential string) (string, error)
}

// Authenticator validates bearer tokens for both the HTTP request path and
// the live-connection handshake. It only verifies; issuance lives in the
// auth service.
type Authenticator struct {
	users UserLookup
}

func NewAuthenticator(users UserLookup) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate returns the user identity embedded in the credential.
// It fails with ErrInvalidToken when the token is malformed, expired or
// carries a bad signature, and with ErrUserNotFound when the token is valid
// but the referenced user no longer exists.
func (a *Authenticator) Authenticate(credential string) (string, error) {
	claims, err := ValidateToken(credential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	exists, err := a.users.UserExists(claims.UserID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errors.ErrUserNotFound
	}
	return claims.UserID, nil
}
