package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("password124", hash))

	again, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestTokenRoundTrip(t *testing.T) {
	c := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, c)

	for _, role := range []model.Role{model.RoleAdmin, model.RoleUser} {
		tok, err := m.Issue("user-42", role)
		require.NoError(t, err)

		id, err := m.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, model.Identity{UserID: "user-42", Role: role}, id)
	}
}

func TestTokenExpires(t *testing.T) {
	c := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, c)

	tok, err := m.Issue("user-42", model.RoleUser)
	require.NoError(t, err)

	c.Advance(59 * time.Minute)
	_, err = m.Verify(tok)
	assert.NoError(t, err)

	c.Advance(2 * time.Minute)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, c)
	other := NewTokenManager("different", time.Hour, c)

	tok, err := m.Issue("user-42", model.RoleUser)
	require.NoError(t, err)

	forged, err := other.Issue("user-42", model.RoleAdmin)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forgedParts := strings.Split(forged, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"wrong secret":  forged,
		"spliced claim": spliced,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(in)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsUnsignedAndUnknownRole(t *testing.T) {
	c := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	m := NewTokenManager("secret", time.Hour, c)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(c.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(c.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := RandomCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 40)
}

func TestNewCodes(t *testing.T) {
	reset, err := NewResetCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, reset)

	booking, err := NewBookingCode()
	require.NoError(t, err)
	assert.Regexp(t, `^BK-[A-Z0-9]{8}$`, booking)
}
