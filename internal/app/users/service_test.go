package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"musicatlas/internal/auth"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
	"musicatlas/internal/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Collection[models.UserProfile]) {
	t.Helper()
	provider, err := auth.NewService(memory.NewCollection[models.Credential](store.Credentials), auth.Config{
		Secret: "users-test-secret-value",
		Cost:   bcrypt.MinCost,
	})
	require.NoError(t, err)
	profiles := memory.NewCollection[models.UserProfile](store.Profiles)
	return New(provider, profiles), profiles
}

func TestSignUpCreatesUserProfile(t *testing.T) {
	svc, profiles := newService(t)
	ctx := context.Background()

	token, session, err := svc.SignUp(ctx, "ada@example.com", "correct horse", "ada")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleUser, session.Role)
	assert.Equal(t, "ada", session.Username)
	assert.False(t, session.IsAdmin())

	stored, err := profiles.QueryByField(ctx, models.FieldUserID, session.UserID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestAuthenticateCreatesMissingProfile(t *testing.T) {
	svc, profiles := newService(t)
	ctx := context.Background()

	principal, err := svc.provider.SignUp(ctx, "grace@example.com", "correct horse")
	require.NoError(t, err)
	token, err := svc.provider.SignIn(ctx, "grace@example.com", "correct horse")
	require.NoError(t, err)

	session, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, session.UserID)
	assert.Equal(t, "grace", session.Username)
	assert.Equal(t, models.RoleUser, session.Role)

	_, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)
	stored, err := profiles.QueryByField(ctx, models.FieldUserID, principal.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "second lookup must reuse the profile")
}

func TestSetRolePromotesExistingProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	token, session, err := svc.SignUp(ctx, "ada@example.com", "correct horse", "ada")
	require.NoError(t, err)

	require.NoError(t, svc.SetRole(ctx, session.UserID, models.RoleAdmin))
	promoted, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	require.NoError(t, svc.SetRole(ctx, session.UserID, models.RoleUser))
	demoted, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.False(t, demoted.IsAdmin())
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := newService(t)

	err := svc.SetRole(context.Background(), "u1", models.Role("ROOT"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	token, _, err := svc.SignUp(ctx, "ada@example.com", "correct horse", "")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, auth.ErrUnauthorized))
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{UserID: "u1", Role: models.RoleAdmin})
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.IsAdmin())
}

// racingProfiles inserts a competing profile just before the caller's create lands.
type racingProfiles struct {
	*memory.Collection[models.UserProfile]
	competitor models.UserProfile
	raced      bool
}

func (r *racingProfiles) Create(ctx context.Context, profile models.UserProfile) (models.UserProfile, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.Collection.Create(ctx, r.competitor); err != nil {
			return models.UserProfile{}, err
		}
	}
	return r.Collection.Create(ctx, profile)
}

func newRacingService(t *testing.T, competitor models.UserProfile) (*Service, *racingProfiles) {
	t.Helper()
	provider, err := auth.NewService(memory.NewCollection[models.Credential](store.Credentials), auth.Config{
		Secret: "users-test-secret-value",
		Cost:   bcrypt.MinCost,
	})
	require.NoError(t, err)
	profiles := &racingProfiles{
		Collection: memory.NewCollection[models.UserProfile](store.Profiles).Unique(models.FieldUserID),
		competitor: competitor,
	}
	return New(provider, profiles), profiles
}

func TestAuthenticateReusesConcurrentlyCreatedProfile(t *testing.T) {
	ctx := context.Background()
	svc, profiles := newRacingService(t, models.UserProfile{})

	principal, err := svc.provider.SignUp(ctx, "lin@example.com", "correct horse")
	require.NoError(t, err)
	profiles.competitor = models.UserProfile{UserID: principal.ID, Username: "first", Role: models.RoleUser}
	token, err := svc.provider.SignIn(ctx, "lin@example.com", "correct horse")
	require.NoError(t, err)

	session, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "first", session.Username)

	stored, err := profiles.QueryByField(ctx, models.FieldUserID, principal.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSetRoleUpdatesConcurrentlyCreatedProfile(t *testing.T) {
	ctx := context.Background()
	svc, profiles := newRacingService(t, models.UserProfile{UserID: "u-9", Username: "nine", Role: models.RoleUser})

	require.NoError(t, svc.SetRole(ctx, "u-9", models.RoleAdmin))

	stored, err := profiles.QueryByField(ctx, models.FieldUserID, "u-9")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.RoleAdmin, stored[0].Role)
	assert.Equal(t, "nine", stored[0].Username)
}

