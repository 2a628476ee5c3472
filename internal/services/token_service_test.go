package services

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("too-short", 120, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestDecodeSecretVariants(t *testing.T) {
	// Leading 0xfb 0xff forces "-_" into the url-safe form and "+/" into
	// the standard form, so each branch is exercised deterministically.
	raw := append([]byte{0xfb, 0xff}, bytes.Repeat([]byte{0x01}, 30)...)

	urlEncoded := base64.URLEncoding.EncodeToString(raw)
	require.True(t, strings.ContainsAny(urlEncoded, "-_"))
	assert.Equal(t, raw, decodeSecret(urlEncoded))

	rawURLEncoded := base64.RawURLEncoding.EncodeToString(raw[:31])
	require.True(t, strings.ContainsAny(rawURLEncoded, "-_"))
	assert.Equal(t, raw[:31], decodeSecret(rawURLEncoded))

	stdEncoded := base64.StdEncoding.EncodeToString(raw)
	require.True(t, strings.ContainsAny(stdEncoded, "+/"))
	assert.Equal(t, raw, decodeSecret(stdEncoded))

	// Plain text that is not decodable base64 is used byte for byte.
	plain := strings.Repeat("a", 40)
	assert.Equal(t, []byte(plain), decodeSecret(plain))
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)

	signed, err := tokens.Issue("paula", []string{"ROLE_ADMIN", "ROLE_RESOURCE"})
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "paula", claims.Subject)
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_RESOURCE"}, claims.Roles)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(120*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	tokens := newTestTokens(t)

	signed, err := tokens.Issue("paula", []string{"ROLE_RESOURCE"})
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = tokens.Parse(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsTokenFromOtherKey(t *testing.T) {
	tokens := newTestTokens(t)
	other, err := NewTokenService(strings.Repeat("x", 32), 120, 30)
	require.NoError(t, err)

	signed, err := other.Issue("paula", nil)
	require.NoError(t, err)

	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseHonorsClockSkewLeeway(t *testing.T) {
	// Zero expiry: the token is already expired at issue time but the 30s
	// leeway still admits it.
	withLeeway, err := NewTokenService(strings.Repeat("k", 32), 0, 30)
	require.NoError(t, err)

	signed, err := withLeeway.Issue("paula", nil)
	require.NoError(t, err)

	_, err = withLeeway.Parse(signed)
	assert.NoError(t, err)

	// Without leeway the same token is rejected.
	strict, err := NewTokenService(strings.Repeat("k", 32), 0, 0)
	require.NoError(t, err)
	signedStrict, err := strict.Issue("paula", nil)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = strict.Parse(signedStrict)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsValidChecksSubject(t *testing.T) {
	tokens := newTestTokens(t)

	signed, err := tokens.Issue("paula", []string{"ROLE_RESOURCE"})
	require.NoError(t, err)

	assert.True(t, tokens.IsValid(signed, "paula"))
	assert.False(t, tokens.IsValid(signed, "intruder"))
	assert.False(t, tokens.IsValid("not-a-token", "paula"))
}
