package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

type AuthService struct {
	users  port.UserRepository
	hasher port.PasswordHasher
	tokens port.TokenIssuer
	cache  port.CacheRepository
}

// NewAuthService wires the auth flows. cache may be nil, which disables the
// login limiter and token revocation.
func NewAuthService(users port.UserRepository, hasher port.PasswordHasher, tokens port.TokenIssuer, cache port.CacheRepository) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
	}
}

// Register creates the account and its empty cart, then signs the user in.
func (s *AuthService) Register(ctx context.Context, user domain.User, password string) (domain.User, string, error) {
	_, err := s.users.FindByEmail(ctx, user.Email)
	if err == nil {
		return domain.User{}, "", ErrEmailTaken
	}
	if !errors.Is(err, port.ErrNotFound) {
		return domain.User{}, "", errors.Wrap(err, "find user")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "hash password")
	}
	user.PasswordHash = hash
	user.Role = domain.RoleUser
	user.IsActive = true

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, port.ErrDuplicate) {
		return domain.User{}, "", ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "create user")
	}

	token, _, err := s.tokens.Issue(created.ID)
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "issue token")
	}
	return created, token, nil
}

// Login checks credentials. Unknown email, inactive account and wrong
// password are reported identically. Only failed attempts accumulate
// towards the limit: a successful login clears the counter.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	limiterKey := "login:" + email
	if s.cache != nil {
		ok, err := s.cache.AllowAttempt(ctx, limiterKey, loginAttemptLimit, loginAttemptWindow)
		if err != nil {
			return domain.User{}, "", errors.Wrap(err, "login limiter")
		}
		if !ok {
			return domain.User{}, "", ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, port.ErrNotFound) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "find user")
	}
	if !user.IsActive {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return domain.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "issue token")
	}
	if s.cache != nil {
		if err := s.cache.ResetAttempts(ctx, limiterKey); err != nil {
			return domain.User{}, "", errors.Wrap(err, "reset login limiter")
		}
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, port.Claims, error) {
	if token == "" {
		return domain.User{}, port.Claims{}, ErrUnauthorized
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, port.Claims{}, ErrUnauthorized
	}

	if s.cache != nil && claims.TokenID != "" {
		revoked, err := s.cache.IsTokenRevoked(ctx, claims.TokenID)
		if err != nil {
			return domain.User{}, port.Claims{}, errors.Wrap(err, "check token revocation")
		}
		if revoked {
			return domain.User{}, port.Claims{}, ErrUnauthorized
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, port.ErrNotFound) {
		return domain.User{}, port.Claims{}, ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, port.Claims{}, errors.Wrap(err, "find user")
	}
	if !user.IsActive {
		return domain.User{}, port.Claims{}, ErrUnauthorized
	}
	return user, claims, nil
}

func (s *AuthService) Authorize(user domain.User, roles ...domain.Role) error {
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// Logout denylists the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims port.Claims) error {
	if s.cache == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return errors.Wrap(s.cache.RevokeToken(ctx, claims.TokenID, ttl), "revoke token")
}
