package auth

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	store  UserStore
	tokens *Tokens
}

func NewService(store UserStore, tokens *Tokens) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Register creates a user and issues their first token. The duplicate
// check runs before anything is persisted, so a taken email creates no
// row and no token.
func (s *Service) Register(ctx context.Context, name, email, password string, role Role) (*User, string, error) {
	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailTaken
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.store.Create(ctx, &User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
