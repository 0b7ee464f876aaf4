// Package auth is the credential store: password hashing, signed
// bearer tokens and random one-time codes.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned for every token that fails verification:
// malformed, tampered, wrongly signed or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims is the JWT payload. Subject carries the user id.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenManager constructs a TokenManager. Tokens expire ttl after issue.
func NewTokenManager(secret string, ttl time.Duration, c clock.Clock) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: c}
}

// Issue signs a token for userID with role.
func (m *TokenManager) Issue(userID string, role model.Role) (string, error) {
	now := m.clock.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and returns the identity it carries.
func (m *TokenManager) Verify(tokenStr string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !token.Valid {
		return model.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ResetCodeLength is the length of password reset codes.
const ResetCodeLength = 6

// NewResetCode returns a fresh password reset code.
func NewResetCode() (string, error) {
	return RandomCode(ResetCodeLength)
}

// NewBookingCode returns a human-shareable booking code like
// "BK-7Q2M9XKD". Uniqueness is enforced by storage, not here.
func NewBookingCode() (string, error) {
	code, err := RandomCode(8)
	if err != nil {
		return "", err
	}
	return "BK-" + code, nil
}

// RandomCode returns n characters drawn uniformly from A-Z and 0-9
// using crypto/rand.
func RandomCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random code: %w", err)
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
