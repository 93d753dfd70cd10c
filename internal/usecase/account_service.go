package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Diego23-co/GoPredict/internal/domain/account"
	"github.com/Diego23-co/GoPredict/internal/platform/cache"
	"github.com/Diego23-co/GoPredict/internal/platform/id"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

const otpDigits = 6

// AccountService owns registration, login, and the session/OTP stores.
// Sessions and one-time codes live in process-scoped TTL caches with
// explicit lifecycle, not ambient globals.
type AccountService struct {
	repo     account.Repository
	sessions *cache.Store
	otps     *cache.Store
	ids      id.Generator
	logger   *logging.Logger
}

func NewAccountService(
	repo account.Repository,
	sessions *cache.Store,
	otps *cache.Store,
	ids id.Generator,
	logger *logging.Logger,
) *AccountService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}

	return &AccountService{
		repo:     repo,
		sessions: sessions,
		otps:     otps,
		ids:      ids,
		logger:   logger,
	}
}

func (s *AccountService) Register(ctx context.Context, username, email, password string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.repo.Create(ctx, account.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			return fmt.Errorf("%w: username or email already registered", ErrInvalidInput)
		}
		return fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", "username", username)
	return nil
}

// Login accepts either the username or the email as identifier and
// returns an opaque bearer token backed by the session store.
func (s *AccountService) Login(ctx context.Context, loginID, password string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Login")
	defer span.End()

	loginID = strings.TrimSpace(loginID)
	if loginID == "" || password == "" {
		return "", fmt.Errorf("%w: login id and password are required", ErrInvalidInput)
	}

	a, err := s.lookup(ctx, loginID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown login id or wrong password", ErrUnauthorized)
		}
		return "", fmt.Errorf("look up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("%w: unknown login id or wrong password", ErrUnauthorized)
	}

	token, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	s.sessions.Set(ctx, sessionKey(token), a.Username)

	s.logger.InfoContext(ctx, "session issued", "username", a.Username)
	return token, nil
}

// VerifyAccessToken resolves a bearer token to its username. It backs
// the HTTP layer's capability check; the core never assumes an
// authenticated context on its own.
func (s *AccountService) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	value, ok := s.sessions.Get(ctx, sessionKey(token))
	if !ok {
		return "", fmt.Errorf("%w: unknown or expired token", ErrUnauthorized)
	}
	username, _ := value.(string)
	if username == "" {
		return "", fmt.Errorf("%w: unknown or expired token", ErrUnauthorized)
	}
	return username, nil
}

func (s *AccountService) Logout(ctx context.Context, token string) {
	if token = strings.TrimSpace(token); token != "" {
		s.sessions.Delete(ctx, sessionKey(token))
	}
}

func (s *AccountService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.ChangePassword")
	defer span.End()

	if len(newPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", ErrInvalidInput)
	}

	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("%w: account username=%s", ErrNotFound, username)
		}
		return fmt.Errorf("get account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(currentPassword)) != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	a.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("update account password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", "username", username)
	return nil
}

// RequestOTP issues a short-lived numeric code for the account. The
// code is returned to the caller for delivery; the delivery channel
// itself (mail, SMS) is outside this service.
func (s *AccountService) RequestOTP(ctx context.Context, username string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.RequestOTP")
	defer span.End()

	a, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", fmt.Errorf("%w: account username=%s", ErrNotFound, username)
		}
		return "", fmt.Errorf("get account for otp: %w", err)
	}

	code, err := id.NewNumericCode(otpDigits)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	s.otps.Set(ctx, otpKey(a.Username), code)

	s.logger.InfoContext(ctx, "otp issued", "username", a.Username)
	return code, nil
}

// VerifyOTP consumes the pending code and marks the account verified.
func (s *AccountService) VerifyOTP(ctx context.Context, username, code string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.VerifyOTP")
	defer span.End()

	username = strings.TrimSpace(username)
	pending, ok := s.otps.Get(ctx, otpKey(username))
	if !ok {
		return fmt.Errorf("%w: no pending code", ErrUnauthorized)
	}
	expected, _ := pending.(string)
	if expected == "" || expected != strings.TrimSpace(code) {
		return fmt.Errorf("%w: wrong code", ErrUnauthorized)
	}
	s.otps.Delete(ctx, otpKey(username))

	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("%w: account username=%s", ErrNotFound, username)
		}
		return fmt.Errorf("get account for otp verify: %w", err)
	}
	a.Verified = true
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}

	return nil
}

func (s *AccountService) lookup(ctx context.Context, loginID string) (account.Account, error) {
	a, err := s.repo.GetByUsername(ctx, loginID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}
	return s.repo.GetByEmail(ctx, loginID)
}

func sessionKey(token string) string { return "session:" + token }
func otpKey(username string) string  { return "otp:" + username }
