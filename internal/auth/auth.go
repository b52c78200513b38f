// Package auth implements admin login for the portfolio backend: bcrypt
// password checks against the document's admin record and bearer token
// sessions held in memory or Redis.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

var (
	// ErrInvalidCredentials is returned for a wrong username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, unknown or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Service authenticates the portfolio admin.
type Service struct {
	store       store.Store
	sessions    Sessions
	staticToken string
}

// NewService returns a Service. A non-empty staticToken is accepted as a
// bearer token in addition to login sessions.
func NewService(s store.Store, sessions Sessions, staticToken string) *Service {
	return &Service{store: s, sessions: sessions, staticToken: staticToken}
}

// SeedAdmin returns the admin record for a new document.
func SeedAdmin(username, password string) (*model.Admin, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &model.Admin{Username: username, PasswordHash: hash}, nil
}

// Login checks the credentials against the stored admin record and issues
// a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	doc, err := s.store.GetDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	admin := doc.Admin
	if admin == nil || admin.Username != username || !CheckPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.sessions.Create(ctx, username)
}

// Logout revokes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Verify resolves a bearer token to the admin username.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	if s.staticToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.staticToken)) == 1 {
		return "service", nil
	}
	sess, ok, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	return sess.Username, nil
}

// ChangePassword replaces the admin password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateDocument(ctx, func(doc *model.Document) error {
		if doc.Admin == nil || !CheckPassword(oldPassword, doc.Admin.PasswordHash) {
			return ErrInvalidCredentials
		}
		doc.Admin.PasswordHash = hash
		return nil
	})
	return err
}
