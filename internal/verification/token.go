// Package verification issues and checks the signed links sent to confirm
// an email address. Tokens are self-contained HS256 JWTs; nothing is stored.
package verification

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vedran77/accounts/internal/domain"
)

const audience = "verify_email"

type Status int

const (
	Invalid Status = iota
	Valid
	Expired
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Result is the outcome of checking a token. Subject and Email are only set
// when Status is Valid.
type Result struct {
	Status  Status
	Subject uuid.UUID
	Email   string
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Codec struct {
	key []byte
	ttl time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{key: []byte(secret), ttl: ttl}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token bound to the user's id and current email. It returns
// the token and its expiry.
func (c *Codec) Issue(user *domain.User, now time.Time) (string, time.Time, error) {
	expires := now.Add(c.ttl)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (c *Codec) Resolve(token string, now time.Time) Result {
	return Check(token, c.key, now)
}

// Check validates signature, audience and expiry of token against key at
// instant now. It has no side effects.
func Check(token string, key []byte, now time.Time) Result {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Result{Status: Expired}
	}
	if err != nil {
		return Result{Status: Invalid}
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Result{Status: Invalid}
	}
	return Result{Status: Valid, Subject: subject, Email: claims.Email}
}
