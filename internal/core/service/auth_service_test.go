package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func newAuthFixture() (*AuthService, *fakeUsers, *fakeCache) {
	users := newFakeUsers()
	cache := newFakeCache()
	return NewAuthService(users, plainHasher{}, newFakeTokens(), cache), users, cache
}

func TestRegister(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, domain.User{Email: "a@example.com", FirstName: "A", LastName: "B"}, "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.IsActive)

	stored, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret1", stored.PasswordHash)

	_, _, err = svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret1")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "a@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	registered.IsActive = false
	_, err = users.Update(ctx, registered)
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AttemptLimit(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret1")
	require.NoError(t, err)

	for i := 0; i < loginAttemptLimit; i++ {
		_, _, err := svc.Login(ctx, "a@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, _, err = svc.Login(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLogin_SuccessClearsAttempts(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret1")
	require.NoError(t, err)

	for i := 0; i < loginAttemptLimit+1; i++ {
		_, _, err := svc.Login(ctx, "a@example.com", "secret1")
		require.NoError(t, err, "login #%d", i+1)
	}

	for i := 0; i < loginAttemptLimit-1; i++ {
		_, _, err := svc.Login(ctx, "a@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, _, err = svc.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	// the earlier failures no longer count
	for i := 0; i < loginAttemptLimit; i++ {
		_, _, err := svc.Login(ctx, "a@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, _, err = svc.Login(ctx, "a@example.com", "wrong")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestAuthenticate(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret1")
	require.NoError(t, err)

	user, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, token, claims.TokenID)

	_, _, err = svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)

	registered.IsActive = false
	_, err = users.Update(ctx, registered)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, token, err := svc.Register(ctx, domain.User{Email: "a@example.com"}, "secret1")
	require.NoError(t, err)

	_, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, _, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorize(t *testing.T) {
	svc, _, _ := newAuthFixture()

	assert.NoError(t, svc.Authorize(domain.User{Role: domain.RoleAdmin}, domain.RoleAdmin))
	assert.ErrorIs(t, svc.Authorize(domain.User{Role: domain.RoleUser}, domain.RoleAdmin), ErrForbidden)
}
