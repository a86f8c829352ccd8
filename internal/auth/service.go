package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/widodo/go-cart-checkout/internal/redisx"
)

type Service struct {
	Users  UserStore
	Tokens TokenStore
}

// Register creates a non-admin account. Admin accounts are provisioned out
// of band.
func (s *Service) Register(ctx context.Context, username, email, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.Users.Create(ctx, User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
}

// Login verifies credentials and issues an opaque session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	token := uuid.NewString()
	if err := s.Tokens.Save(ctx, token, u.ID, redisx.TTLSession); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Tokens.Delete(ctx, token)
}

// UserForToken resolves a session token to its user record.
func (s *Service) UserForToken(ctx context.Context, token string) (User, error) {
	userID, err := s.Tokens.Lookup(ctx, token)
	if err != nil {
		return User{}, err
	}
	return s.Users.ByID(ctx, userID)
}
