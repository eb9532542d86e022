package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mb-events/server/internal/api/respond"
	"github.com/mb-events/server/internal/domain/users"
	"github.com/mb-events/server/internal/metrics"
)

type UsersHandler struct {
	Service  *users.Service
	validate *validator.Validate
}

func NewUsersHandler(service *users.Service) *UsersHandler {
	return &UsersHandler{
		Service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type userJSON struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func toUserJSON(user *users.User) userJSON {
	return userJSON{ID: user.ID, FullName: user.FullName, Email: user.Email}
}

func (h *UsersHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "missing or invalid fields", err)
		return false
	}
	return true
}

// Register creates an account and returns the new user.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Service.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			respond.Error(w, r, http.StatusConflict, "an account with this email already exists", err)
		case errors.Is(err, users.ErrMissingFields):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not create account", err)
		}
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "account created",
		"user":    toUserJSON(user),
	})
}

// Login verifies credentials and returns a session token.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, user, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			respond.Error(w, r, http.StatusUnauthorized, "invalid email or password", err)
		case errors.Is(err, users.ErrMissingFields):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not log in", err)
		}
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    toUserJSON(user),
	})
}

// ChangePassword swaps the password after verifying the old one.
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.Service.ChangePassword(r.Context(), req.Email, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrWeakPassword):
			respond.Error(w, r, http.StatusBadRequest, "password must contain a lowercase letter, an uppercase letter, a digit, and a special character", err)
		case errors.Is(err, users.ErrWrongPassword):
			respond.Error(w, r, http.StatusUnauthorized, "old password is incorrect", err)
		case errors.Is(err, users.ErrNotFound):
			respond.Error(w, r, http.StatusNotFound, "account not found", err)
		case errors.Is(err, users.ErrMissingFields):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not change password", err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "password changed",
	})
}

// ForgotPassword issues a reset token and emails the reset link.
func (h *UsersHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.Service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			respond.Error(w, r, http.StatusNotFound, "account not found", err)
		case errors.Is(err, users.ErrMissingFields):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not start password reset", err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "password reset email sent",
	})
}

// ResetPassword consumes a reset token and sets the new password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.Service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidResetToken):
			respond.Error(w, r, http.StatusUnauthorized, "reset link is invalid or expired", err)
		case errors.Is(err, users.ErrMissingFields):
			respond.Error(w, r, http.StatusBadRequest, err.Error(), err)
		default:
			respond.Error(w, r, http.StatusInternalServerError, "could not reset password", err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "password reset",
	})
}
