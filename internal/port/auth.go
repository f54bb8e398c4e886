package port

import "time"

type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(userID int64) (string, Claims, error)
	Verify(token string) (Claims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash
	Compare(hash, password string) error
}
