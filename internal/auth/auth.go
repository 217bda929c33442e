// Package auth checks credentials against the store and issues the signed
// tokens that carry a user's identity and role between requests.
package auth

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"slices"

	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// Service authenticates and authorizes users
type Service struct {
	store *store.Store
	log   logrus.FieldLogger
}

// NewService creates a Service over s
func NewService(s *store.Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, log: log}
}

// Login returns the active user with the given email and password. Unknown
// emails, wrong passwords and inactive users all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	var user domain.User
	var found bool
	_ = s.store.View(func(r store.Reader) error {
		user, found = r.UserByEmail(email)
		return nil
	})
	if !found || !user.IsActive {
		s.log.WithFields(logrus.Fields{"email": email}).Warn("Login rejected")
		return domain.User{}, apperrors.ErrInvalidCredentials
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithFields(logrus.Fields{"email": email}).Warn("Login rejected")
		return domain.User{}, apperrors.ErrInvalidCredentials
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("Login succeeded")
	user.PasswordHash = ""
	return user, nil
}

// Authorize re-reads the user so deactivation and role changes apply to
// tokens issued earlier. An empty roles list admits any active user.
func (s *Service) Authorize(ctx context.Context, userID string, roles ...domain.Role) (domain.User, error) {
	var user domain.User
	var found bool
	_ = s.store.View(func(r store.Reader) error {
		user, found = r.User(userID)
		return nil
	})
	if !found || !user.IsActive {
		return domain.User{}, &apperrors.Error{Kind: apperrors.ErrInvalidCredentials, Message: "account is not active"}
	}
	if len(roles) > 0 && !slices.Contains(roles, user.Role) {
		return domain.User{}, &apperrors.Error{Kind: apperrors.ErrPermissionDenied, Message: "insufficient role"}
	}
	user.PasswordHash = ""
	return user, nil
}
