package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":6543", c.HTTPAddr)
	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Equal(t, 15*time.Minute, c.ResetCodeTTL)
	assert.Equal(t, []string{"gmail.com", "student.itera.ac.id"}, c.AllowedEmailDomains)
	assert.False(t, c.RevealUnknownEmail)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=ticketing sslmode=disable", c.DSN())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "example.org")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, c.StoreDriver)
	assert.Equal(t, 90*time.Minute, c.TokenTTL)
	assert.Equal(t, []string{"example.org"}, c.AllowedEmailDomains)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	c := Config{StoreDriver: "mongo", TokenTTL: time.Hour, ResetCodeTTL: time.Minute, MaxUploadMB: 1}
	assert.ErrorContains(t, c.Validate(), "STORE_DRIVER")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "nonsense"}.SlogLevel())
}
