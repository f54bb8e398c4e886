package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/port"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTIssuer signs HS256 tokens whose subject is the user id and whose jti is
// a random id used for revocation.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (j *JWTIssuer) Issue(userID int64) (string, port.Claims, error) {
	now := j.now()
	claims := port.Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(j.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", port.Claims{}, errors.Wrap(err, "sign token")
	}
	return signed, claims, nil
}

func (j *JWTIssuer) Verify(token string) (port.Claims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return port.Claims{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	userID, err := strconv.ParseInt(registered.Subject, 10, 64)
	if err != nil {
		return port.Claims{}, errors.Wrap(ErrInvalidToken, "subject is not a user id")
	}
	return port.Claims{
		UserID:    userID,
		TokenID:   registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
