// Package auth validates the session tokens issued by the hosted identity
// service and manages the session cookie that carries them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrMissingSubject is returned when the token has no sub claim
	ErrMissingSubject = errors.New("missing subject")
)

// Claims represents the claims carried by a session token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Config holds configuration for TokenValidator
type Config struct {
	Secret   string
	Issuer   string // optional; checked when set
	Audience string // optional; checked when set
	Leeway   time.Duration
}

// TokenValidator validates HS256 session tokens signed with a shared secret
type TokenValidator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewTokenValidator creates a new session token validator
func NewTokenValidator(cfg Config) *TokenValidator {
	return &TokenValidator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
	}
}

// ValidateToken validates a token and returns its claims
func (v *TokenValidator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if err := checkClaims(claims, v.issuer, v.audience); err != nil {
		return nil, err
	}

	return claims, nil
}

// checkClaims verifies the claims every session token must carry.
// Empty issuer or audience skips that check.
func checkClaims(claims *Claims, issuer, audience string) error {
	if issuer != "" && claims.Issuer != issuer {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, issuer, claims.Issuer)
	}

	if audience != "" && !slices.Contains(claims.Audience, audience) {
		return ErrInvalidAudience
	}

	if claims.Subject == "" {
		return ErrMissingSubject
	}

	return nil
}

// IssueToken signs a session token for subject. Used by local tooling and
// tests; production tokens come from the identity service.
func (v *TokenValidator) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  "authenticated",
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
