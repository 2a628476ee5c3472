package services

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
)

// TokenService issues and validates the signed bearer tokens that carry
// identity across requests. Tokens are HS256 JWTs with subject = username
// and a comma-separated "roles" claim; nothing is persisted server-side.
type TokenService struct {
	key       []byte
	expiry    time.Duration
	clockSkew time.Duration
}

// TokenClaims is the decoded content of a validated token.
type TokenClaims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Roles string `json:"roles"`
	jwt.RegisteredClaims
}

// NewTokenService derives the signing key from the configured secret and
// fails when the resulting key material is under 32 bytes (HS256 wants a
// key of at least 256 bits). This runs at startup, so a bad secret is fatal
// to process start rather than to individual requests.
func NewTokenService(secret string, expMinutes, clockSkewSeconds int) (*TokenService, error) {
	key := decodeSecret(secret)
	if len(key) < 32 {
		return nil, fmt.Errorf("jwt secret too short: need >= 32 bytes of key material, got %d", len(key))
	}
	return &TokenService{
		key:       key,
		expiry:    time.Duration(expMinutes) * time.Minute,
		clockSkew: time.Duration(clockSkewSeconds) * time.Second,
	}, nil
}

// decodeSecret tries url-safe base64, then standard base64, falling back to
// the raw UTF-8 bytes when the secret is not cleanly decodable.
func decodeSecret(secret string) []byte {
	if strings.ContainsAny(secret, "-_") {
		if raw, err := base64.URLEncoding.DecodeString(secret); err == nil {
			return raw
		}
		if raw, err := base64.RawURLEncoding.DecodeString(secret); err == nil {
			return raw
		}
	}
	if strings.ContainsAny(secret, "+/") {
		if raw, err := base64.StdEncoding.DecodeString(secret); err == nil {
			return raw
		}
	}
	return []byte(secret)
}

// Issue signs a token for the principal: subject = username, roles as CSV,
// issued now, expiring after the configured duration.
func (s *TokenService) Issue(username string, roles []string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		Roles: strings.Join(roles, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies the signature and expiry (with the configured clock-skew
// leeway) and returns the decoded claims. Every failure mode maps to the
// same ErrInvalidToken so the response surface cannot distinguish an
// expired token from a tampered one.
func (s *TokenService) Parse(tokenString string) (*TokenClaims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.key, nil
	}, jwt.WithLeeway(s.clockSkew), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{
		Subject: claims.Subject,
		Roles:   models.ParseRoles(claims.Roles),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// IsValid reports whether the token verifies, is unexpired at check time and
// names exactly the given principal.
func (s *TokenService) IsValid(tokenString, username string) bool {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == username
}
