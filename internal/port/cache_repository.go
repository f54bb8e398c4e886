package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency claims key for ttl, returns false if already claimed
	SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseIdempotency frees a claimed key so the request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// RevokeToken denylists a token id until ttl elapses
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error

	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// AllowAttempt counts one attempt under key and reports whether the
	// count is still within limit for the current window
	AllowAttempt(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// ResetAttempts clears the counter under key
	ResetAttempts(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}
