// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds every setting the service reads at startup.
type Config struct {
	// HTTP
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":6543"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:6543"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName      string `envconfig:"DB_NAME" default:"ticketing"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	UploadDir   string `envconfig:"UPLOAD_DIR" default:"./static/uploads"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"10"`

	// Auth
	JWTSecret           string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL            time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	ResetCodeTTL        time.Duration `envconfig:"RESET_CODE_TTL" default:"15m"`
	AllowedEmailDomains []string      `envconfig:"ALLOWED_EMAIL_DOMAINS" default:"gmail.com,student.itera.ac.id"`
	RevealUnknownEmail  bool          `envconfig:"RESET_REVEAL_UNKNOWN_EMAIL" default:"false"`

	// Errors
	ExposeInternalErrors bool `envconfig:"EXPOSE_INTERNAL_ERRORS" default:"false"`

	// Notifications
	MailerSendAPIKey string `envconfig:"MAILERSEND_API_KEY"`
	MailFromEmail    string `envconfig:"MAIL_FROM_EMAIL" default:"no-reply@example.com"`
	MailFromName     string `envconfig:"MAIL_FROM_NAME" default:"Event Ticketing"`
	AMQPURL          string `envconfig:"AMQP_URL"`
	AMQPExchange     string `envconfig:"AMQP_EXCHANGE" default:"ticketing"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.ResetCodeTTL <= 0 {
		return errors.New("RESET_CODE_TTL must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
