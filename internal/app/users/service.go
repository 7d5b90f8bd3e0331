// Package users maps authenticated principals to application profiles and roles.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"musicatlas/internal/auth"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// ErrForbidden indicates the session lacks the admin role.
var ErrForbidden = errors.New("admin role required")

// Session is the identity attached to a request.
type Session struct {
	UserID   string      `json:"userId"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// IsAdmin reports whether the session may administer the catalog.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Service exposes account workflows on top of an identity provider.
type Service struct {
	provider auth.Provider
	profiles store.Collection[models.UserProfile]
}

// New wires a Service.
func New(provider auth.Provider, profiles store.Collection[models.UserProfile]) *Service {
	return &Service{provider: provider, profiles: profiles}
}

// SignUp creates an account with a USER profile and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, username string) (string, Session, error) {
	principal, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return "", Session{}, err
	}
	if _, err := s.profileFor(ctx, principal, username); err != nil {
		return "", Session{}, err
	}
	return s.SignIn(ctx, email, password)
}

// SignIn authenticates and resolves the caller's session.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, Session, error) {
	token, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return "", Session{}, err
	}
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return "", Session{}, err
	}
	return token, session, nil
}

// SignOut revokes token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.provider.SignOut(ctx, token)
}

// Authenticate verifies token and looks up the caller's role.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	principal, err := s.provider.Verify(ctx, token)
	if err != nil {
		return Session{}, err
	}
	profile, err := s.profileFor(ctx, principal, "")
	if err != nil {
		return Session{}, err
	}
	return Session{
		UserID:   principal.ID,
		Email:    principal.Email,
		Username: profile.Username,
		Role:     profile.Role,
	}, nil
}

// profileFor returns the principal's profile, creating a USER profile on first sight.
func (s *Service) profileFor(ctx context.Context, principal auth.Principal, username string) (models.UserProfile, error) {
	profiles, err := s.profiles.QueryByField(ctx, models.FieldUserID, principal.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if len(profiles) > 0 {
		return profiles[0], nil
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username, _, _ = strings.Cut(principal.Email, "@")
	}
	created, err := s.profiles.Create(ctx, models.UserProfile{
		UserID:   principal.ID,
		Username: username,
		Role:     models.RoleUser,
	})
	if errors.Is(err, store.ErrConflict) {
		// A concurrent request created the profile first.
		return s.existingProfile(ctx, principal.ID)
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("create profile: %w", err)
	}
	return created, nil
}

func (s *Service) existingProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	profiles, err := s.profiles.QueryByField(ctx, models.FieldUserID, userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if len(profiles) == 0 {
		return models.UserProfile{}, fmt.Errorf("profile of %q: %w", userID, store.ErrNotFound)
	}
	return profiles[0], nil
}

// SetRole assigns role to the profile of userID, creating the profile if needed.
func (s *Service) SetRole(ctx context.Context, userID string, role models.Role) error {
	if !role.Valid() {
		return &models.ValidationError{Field: models.FieldRole, Reason: fmt.Sprintf("unknown role %q", role)}
	}
	if strings.TrimSpace(userID) == "" {
		return &models.ValidationError{Field: models.FieldUserID, Reason: "is required"}
	}

	profiles, err := s.profiles.QueryByField(ctx, models.FieldUserID, userID)
	if err != nil {
		return fmt.Errorf("lookup profile: %w", err)
	}
	if len(profiles) == 0 {
		_, err := s.profiles.Create(ctx, models.UserProfile{UserID: userID, Role: role})
		if !errors.Is(err, store.ErrConflict) {
			if err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
			return nil
		}
		existing, err := s.existingProfile(ctx, userID)
		if err != nil {
			return err
		}
		profiles = []models.UserProfile{existing}
	}

	for _, profile := range profiles {
		if err := s.profiles.Update(ctx, profile.ID, store.Fields{models.FieldRole: role}); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
	}
	return nil
}
