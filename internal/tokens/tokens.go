package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tutorhub/tutor-server/pkg/middleware"
)

// Claims carried by access tokens this service issues.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Issue creates a signed HS256 access token for the principal and returns it
// with its expiry.
func Issue(secret string, p middleware.Principal, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	now := time.Now()
	exp := now.Add(ttl)
	sub := p.Subject
	if sub == "" {
		sub = p.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: p.Email,
		Name:  p.Name,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, exp, nil
}

// claimsToken exposes parsed claims to the auth middleware.
type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	mm, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims type %T", v)
	}
	*mm = map[string]interface{}(t.claims)
	return nil
}

// HMACVerifier verifies tokens signed with the shared secret.
type HMACVerifier struct {
	secret []byte
}

var _ middleware.Verifier = (*HMACVerifier)(nil)

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify rejects tokens that are not HMAC-signed, are expired or carry no exp.
func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("access token is invalid")
	}
	return &claimsToken{claims: claims}, nil
}

// ExpiresAt returns the exp claim of an already verified token, or the zero time.
func ExpiresAt(claims map[string]interface{}) time.Time {
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0)
	case int64:
		return time.Unix(exp, 0)
	}
	return time.Time{}
}
