// Package auth is the built-in email/password identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

var (
	// ErrEmailTaken signals an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a sign-in failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates an invalid, expired or revoked token.
	ErrUnauthorized = errors.New("unauthorized")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

const (
	// DefaultTTL is the session lifetime used when none is configured.
	DefaultTTL = 24 * time.Hour
	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 16

	minPasswordLength = 8
)

// Principal identifies an authenticated account.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider signs accounts in and verifies their tokens.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (Principal, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (Principal, error)
}

// Config controls token issuance.
type Config struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// Service is a Provider backed by a credentials collection and HS256 tokens.
type Service struct {
	credentials store.Collection[models.Credential]
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
	cost        int

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewService validates cfg and returns a Service.
func NewService(credentials store.Collection[models.Credential], cfg Config) (*Service, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("auth secret must be at least %d characters", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	return &Service{
		credentials: credentials,
		secret:      []byte(cfg.Secret),
		ttl:         cfg.TTL,
		now:         cfg.Now,
		cost:        cfg.Cost,
		revoked:     make(map[string]time.Time),
	}, nil
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, password string) (Principal, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return Principal{}, &models.ValidationError{Field: models.FieldEmail, Reason: "must be a valid address"}
	}
	if len(password) < minPasswordLength {
		return Principal{}, &models.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	existing, err := s.credentials.QueryByField(ctx, models.FieldEmail, email)
	if err != nil {
		return Principal{}, fmt.Errorf("lookup credential: %w", err)
	}
	if len(existing) > 0 {
		return Principal{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Principal{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.credentials.Create(ctx, models.Credential{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Principal{}, ErrEmailTaken
		}
		return Principal{}, fmt.Errorf("store credential: %w", err)
	}
	return Principal{ID: created.ID, Email: created.Email}, nil
}

// SignIn validates credentials and returns a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	matches, err := s.credentials.QueryByField(ctx, models.FieldEmail, normalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("lookup credential: %w", err)
	}
	if len(matches) == 0 {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return "", ErrInvalidCredentials
	}

	credential := matches[0]
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.issue(Principal{ID: credential.ID, Email: credential.Email})
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// SignOut revokes token until it would have expired.
func (s *Service) SignOut(_ context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// Verify returns the principal a live token was issued to.
func (s *Service) Verify(_ context.Context, token string) (Principal, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Principal{}, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return Principal{}, ErrUnauthorized
	}
	return Principal{ID: claims.Subject, Email: claims.Email}, nil
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Service) issue(p Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) parse(token string) (*sessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
