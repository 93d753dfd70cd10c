package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Diego23-co/GoPredict/internal/usecase"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type requestOTPRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
}

type verifyOTPRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Code     string `json:"code" validate:"required,numeric"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Register")
	defer span.End()

	var req registerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.accountService.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		h.logger.WarnContext(ctx, "register failed", "username", req.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	token, err := h.accountService.Login(ctx, req.LoginID, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"accessToken": token,
		"tokenType":   "Bearer",
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Logout")
	defer span.End()

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 {
		h.accountService.Logout(ctx, strings.TrimSpace(parts[1]))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChangePassword")
	defer span.End()

	username, ok := usernameFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no authenticated user", usecase.ErrUnauthorized))
		return
	}

	var req changePasswordRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(ctx, w, fmt.Errorf("%w: new password and confirmation do not match", usecase.ErrInvalidInput))
		return
	}

	if err := h.accountService.ChangePassword(ctx, username, req.CurrentPassword, req.NewPassword); err != nil {
		h.logger.WarnContext(ctx, "change password failed", "username", username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "password updated"})
}

// RequestOTP is an anonymous flow: the account owner asks for a code
// before holding a session, so the username travels in the body.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RequestOTP")
	defer span.End()

	var req requestOTPRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	// The code comes back in the response; transactional delivery is
	// not wired up, matching the single-instance deployment model.
	code, err := h.accountService.RequestOTP(ctx, req.Username)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyOTP")
	defer span.End()

	var req verifyOTPRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.accountService.VerifyOTP(ctx, req.Username, req.Code); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "verified"})
}
