package core

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned for tokens past their expiry, even when the
	// signature is otherwise valid.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalidSignature is returned when the signature does not verify
	// against the current secret.
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	// ErrTokenMalformed is returned for strings that are not parseable tokens.
	ErrTokenMalformed = errors.New("token malformed")
)

// tokenClaims carries the subject plus the registered time claims.
type tokenClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring identity tokens. Tokens are
// stateless bearer artifacts: nothing is persisted, and rotating the secret
// invalidates every outstanding token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService from an explicit secret and TTL so
// tests can inject fixed values instead of reading process-wide state.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue signs a token for subjectID with iat=now and exp=now+ttl.
func (s *TokenService) Issue(subjectID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify parses and validates tokenString and returns its subject id.
// Failures map to ErrTokenExpired, ErrTokenInvalidSignature, or
// ErrTokenMalformed; callers that answer HTTP requests must not leak which one
// occurred.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalidSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenInvalidSignature
		default:
			return "", ErrTokenMalformed
		}
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
