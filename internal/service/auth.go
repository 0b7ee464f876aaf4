package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Response messages shared with handlers and tests.
const (
	MsgEmailExists       = "Email already exists"
	MsgNameTaken         = "Username already taken. Please choose another one."
	MsgBadCredentials    = "Invalid username/email or password"
	MsgResetSent         = "Reset token sent to your email"
	MsgResetMaybeSent    = "If that email is registered, a reset token has been sent"
	MsgInvalidResetToken = "Invalid token"
	MsgExpiredResetToken = "Token has expired. Please request a new one."
)

// AuthOptions configures AuthService.
type AuthOptions struct {
	// AllowedEmailDomains restricts registration to these domains.
	// Empty means any domain.
	AllowedEmailDomains []string
	ResetCodeTTL        time.Duration
	// RevealUnknownEmail makes RequestReset fail with NotFound for
	// unregistered addresses instead of answering uniformly.
	RevealUnknownEmail bool
}

// AuthService handles registration, login and password reset.
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	mailer notify.Mailer
	clock  clock.Clock
	opts   AuthOptions
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService with its dependencies.
func NewAuthService(
	users UserStore,
	tokens TokenIssuer,
	mailer notify.Mailer,
	c clock.Clock,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	if opts.ResetCodeTTL <= 0 {
		opts.ResetCodeTTL = 15 * time.Minute
	}
	return &AuthService{users: users, tokens: tokens, mailer: mailer, clock: c, opts: opts, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) emailAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if len(s.opts.AllowedEmailDomains) == 0 {
		return true
	}
	domain := email[at+1:]
	for _, d := range s.opts.AllowedEmailDomains {
		if domain == strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@")) {
			return true
		}
	}
	return false
}

// Register validates req and creates a user. Email and name must both
// be unused.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	if name == "" {
		return nil, newError(KindValidation, "Name is required")
	}
	if req.Password == "" {
		return nil, newError(KindValidation, "Password is required")
	}
	if !s.emailAllowed(email) {
		return nil, newError(KindValidation, "Registration failed. Please use a valid %s email address.", s.domainHint())
	}
	if !role.Valid() {
		return nil, newError(KindValidation, `Invalid role. Choose "admin" or "user"`)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, newError(KindConflict, MsgEmailExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByName(ctx, name); err == nil {
		return nil, newError(KindConflict, MsgNameTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Name: name, Email: email, PasswordHash: hash, Role: role}

	// The store's unique constraints catch a concurrent registration
	// that slipped past the lookups above.
	switch err := s.users.Create(ctx, u); {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, newError(KindConflict, MsgEmailExists)
	case errors.Is(err, repository.ErrDuplicateName):
		return nil, newError(KindConflict, MsgNameTaken)
	case err != nil:
		return nil, fmt.Errorf("register user: %w", err)
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *AuthService) domainHint() string {
	if len(s.opts.AllowedEmailDomains) == 0 {
		return "an"
	}
	return strings.Join(s.opts.AllowedEmailDomains, " or ")
}

// Login authenticates by email or name and returns a signed token. A
// wrong identifier and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*model.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, "", newError(KindValidation, "Please provide email or username")
	}

	u, err := s.users.GetByEmailOrName(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		if lower := strings.ToLower(identifier); lower != identifier {
			u, err = s.users.GetByEmail(ctx, lower)
		}
	}
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", err
		}
		// Spend the same bcrypt work as a real check.
		auth.CheckPassword(password, s.dummy())
		return nil, "", newError(KindUnauthorized, MsgBadCredentials)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, "", newError(KindUnauthorized, MsgBadCredentials)
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// RequestReset stores a fresh reset code on the user and mails it. It
// returns the message to show the caller.
func (s *AuthService) RequestReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", newError(KindValidation, "Email is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		if s.opts.RevealUnknownEmail {
			return "", newError(KindNotFound, "Email not found")
		}
		s.logger.Info("password reset requested for unknown email")
		return MsgResetMaybeSent, nil
	}

	code, err := auth.NewResetCode()
	if err != nil {
		return "", err
	}
	expiresAt := s.clock.Now().Add(s.opts.ResetCodeTTL)
	if err := s.users.SetResetToken(ctx, u.ID, code, expiresAt); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	if err := s.mailer.SendResetCode(ctx, u.Email, code); err != nil {
		return "", fmt.Errorf("send reset code: %w", err)
	}
	s.logger.Info("password reset requested", "user_id", u.ID, "expires_at", expiresAt)

	if s.opts.RevealUnknownEmail {
		return MsgResetSent, nil
	}
	return MsgResetMaybeSent, nil
}

// ConfirmReset replaces the user's password if code is the pending
// reset code and has not expired. The code is consumed on success only.
func (s *AuthService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return newError(KindValidation, "New password is required")
	}

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "User not found")
		}
		return err
	}

	if u.ResetToken == nil || subtle.ConstantTimeCompare([]byte(*u.ResetToken), []byte(code)) != 1 {
		return newError(KindValidation, MsgInvalidResetToken)
	}
	if u.ResetTokenExpiry == nil || s.clock.Now().After(*u.ResetTokenExpiry) {
		return newError(KindValidation, MsgExpiredResetToken)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, u.ID, code, hash); err != nil {
		if errors.Is(err, repository.ErrResetCodeMismatch) {
			return newError(KindValidation, MsgInvalidResetToken)
		}
		return fmt.Errorf("reset password: %w", err)
	}
	s.logger.Info("password reset", "user_id", u.ID)
	return nil
}

// ListUsers returns every user. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, caller model.Identity) ([]model.User, error) {
	if caller.Role != model.RoleAdmin {
		return nil, newError(KindForbidden, "Access Denied: Only Admins can view user list")
	}
	return s.users.List(ctx)
}

// Profile returns the caller's own user record.
func (s *AuthService) Profile(ctx context.Context, caller model.Identity) (*model.User, error) {
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, err
	}
	return u, nil
}
