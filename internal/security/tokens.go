package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, tampered with, or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims holds the JWT claims of a session token: subject (account ID),
// issuer, issued-at, and expiry.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and verifies stateless session JWTs signed with HS256.
// The secret is loaded once at startup and passed in explicitly; it is immutable
// for the life of the process and must never be logged. Validity is determined
// entirely by signature and expiry; there is no server-side revocation list.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given secret.
// ttl is the token lifetime (30 days for session tokens).
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue signs a session token for subjectID with exp = now + ttl.
// Returns the compact token string and its expiration time.
func (p *TokenProvider) Issue(subjectID string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses and validates the token (signature, exp, iss) and returns the
// subject account ID. Any tampering, expiry, or signing-method mismatch yields
// ErrInvalidToken; there is no partial result.
func (p *TokenProvider) Verify(tokenString string) (subjectID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
