package services

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"time"
)

type IAuthService interface {
	Register(email, password string) (Token, repositories.User, error)
	Login(email, password string) (Token, repositories.User, error)
	Me(userID string) (repositories.User, error)
	AddContact(userID, contactEmail string) (repositories.User, error)
}

type AuthService struct {
	userRepository    repositories.IUserRepository
	authTokenDuration time.Duration
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(repo repositories.IUserRepository, authTokenDuration time.Duration) *AuthService {
	return &AuthService{userRepository: repo, authTokenDuration: authTokenDuration}
}

func (s *AuthService) Register(email, password string) (Token, repositories.User, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
	}

	// Validate business rules (email format, password complexity) before
	// any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", repositories.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", repositories.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := auth.GenerateToken(userID, s.authTokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return "", repositories.User{}, err
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, repositories.User, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.authTokenDuration)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}

func (s *AuthService) Me(userID string) (repositories.User, error) {
	return s.userRepository.GetUserByID(userID)
}

func (s *AuthService) AddContact(userID, contactEmail string) (repositories.User, error) {
	return s.userRepository.AddContact(userID, contactEmail)
}
