// Package identity authenticates accounts and resolves the calling principal.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/store"
	"ngo_tracker/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords
var ErrInvalidCredentials = errors.New("invalid credentials")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SignUpRequest is the input of SignUp
type SignUpRequest struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Service issues and checks tokens for accounts held in the record store
type Service struct {
	users     *store.Users
	secret    string
	publisher events.Publisher
}

// NewService wires the account store. Reset links are handed to publisher,
// which may be nil when nothing delivers them.
func NewService(users *store.Users, secret string, publisher events.Publisher) *Service {
	return &Service{users: users, secret: secret, publisher: publisher}
}

// NormalizeEmail lowercases and trims an email so lookups are exact matches
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72 // bcrypt ignores anything past 72 bytes
}

// SignUp creates an unverified account and returns it with an email verification token
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, string, error) {
	email := NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, "", domain.Invalid("name", "is required")
	case !emailPattern.MatchString(email):
		return nil, "", domain.Invalid("email", "is not a valid address")
	case !validPassword(req.Password):
		return nil, "", domain.Invalid("password", "must be 8-72 characters")
	case !req.Role.Valid():
		return nil, "", domain.Invalid("role", fmt.Sprintf("%q is not a known role", req.Role))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", domain.Invalid("email", "already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Name: name, Email: email, Password: string(hash), Role: req.Role}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user %s: %w", email, err)
	}

	token, err := utils.GenerateVerificationJWT(email, s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("issue verification token: %w", err)
	}
	logrus.WithFields(logrus.Fields{"email": email, "role": user.Role}).Info("Account created")
	return user, token, nil
}

// Login checks the password and returns a session token
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := utils.GenerateJWT(user.Email, s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("issue session token: %w", err)
	}
	return token, user, nil
}

// VerifyEmail redeems a verification token
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	claims, err := utils.ParseJWT(token, s.secret, utils.PurposeVerifyEmail)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if err := s.users.MarkEmailVerified(ctx, claims.Email); err != nil {
		return "", err
	}
	logrus.WithField("email", claims.Email).Info("Email verified")
	return claims.Email, nil
}

// RequestPasswordReset publishes a one hour reset token for the account.
// Unknown emails are logged and otherwise look the same to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		logrus.WithField("email", email).Info("Password reset requested for unknown account")
		return nil
	}
	if err != nil {
		return err
	}
	token, err := utils.GenerateResetJWT(user.Email, s.resetKey(user))
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	events.Emit(ctx, s.publisher, events.New(events.PasswordResetRequested, user.ID, map[string]string{
		"email": user.Email,
		"token": token,
	}))
	logrus.WithField("email", user.Email).Info("Password reset requested")
	return nil
}

// ResetPassword redeems a reset token. The token is signed over the old
// password hash, so it cannot be redeemed twice.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if !validPassword(password) {
		return domain.Invalid("password", "must be 8-72 characters")
	}
	email, err := utils.UnverifiedEmail(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if _, err := utils.ParseJWT(token, s.resetKey(user), utils.PurposeReset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Email, string(hash)); err != nil {
		return err
	}
	logrus.WithField("email", user.Email).Info("Password reset")
	return nil
}

func (s *Service) resetKey(u *domain.User) string {
	return s.secret + u.Password
}

// CurrentPrincipal resolves a session token to the caller. The verified flag
// is read from the store so it reflects verification done after login.
func (s *Service) CurrentPrincipal(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := utils.ParseJWT(token, s.secret, utils.PurposeSession)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	user, err := s.users.FindByEmail(ctx, claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &domain.Principal{Email: user.Email, Verified: user.EmailVerified}, nil
}

// Authorize loads the account behind a principal and checks its role and
// email verification. It returns ErrForbidden otherwise.
func (s *Service) Authorize(ctx context.Context, email string, roles ...domain.Role) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", email, domain.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, fmt.Errorf("email %s not verified: %w", email, domain.ErrForbidden)
	}
	for _, r := range roles {
		if user.Role == r {
			return user, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", user.Role, domain.ErrForbidden)
}
