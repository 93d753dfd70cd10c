package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Diego23-co/GoPredict/internal/infrastructure/repository/memory"
	"github.com/Diego23-co/GoPredict/internal/platform/cache"
	"github.com/Diego23-co/GoPredict/internal/platform/logging"
)

func newAccountFixture(t *testing.T) *AccountService {
	t.Helper()
	return NewAccountService(
		memory.NewAccountRepository(),
		cache.NewStore(time.Hour),
		cache.NewStore(10*time.Minute),
		nil,
		logging.NewNop(),
	)
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "ann", "s3cret-pass")
	if err != nil {
		t.Fatalf("login by username: %v", err)
	}
	username, err := svc.VerifyAccessToken(ctx, token)
	if err != nil || username != "ann" {
		t.Fatalf("verify token: username=%q err=%v", username, err)
	}

	// Email works as the login identifier too.
	if _, err := svc.Login(ctx, "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestAccountService_RegisterRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "ann", "ann@example.com", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
	if err := svc.Register(ctx, "", "ann@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty username, got %v", err)
	}

	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Register(ctx, "ann", "other@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate username, got %v", err)
	}
}

func TestAccountService_LoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "ann", "wrong-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "s3cret-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestAccountService_LogoutInvalidatesToken(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.Login(ctx, "ann", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.Logout(ctx, token)

	if _, err := svc.VerifyAccessToken(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, "ann", "wrong-pass", "brand-new-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "ann", "s3cret-pass", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short new password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "ann", "s3cret-pass", "brand-new-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, "ann", "s3cret-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, "ann", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAccountService_OTPRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "ann", "ann@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	code, err := svc.RequestOTP(ctx, "ann")
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(code) != otpDigits {
		t.Fatalf("expected %d-digit code, got %q", otpDigits, code)
	}

	if err := svc.VerifyOTP(ctx, "ann", "000000x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong code, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "ann", code); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	// Codes are single use.
	if err := svc.VerifyOTP(ctx, "ann", code); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for consumed code, got %v", err)
	}
}

func TestAccountService_OTPForUnknownAccount(t *testing.T) {
	t.Parallel()

	svc := newAccountFixture(t)
	if _, err := svc.RequestOTP(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
