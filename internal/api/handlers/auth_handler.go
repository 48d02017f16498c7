package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/mail"
	"github.com/jobsterhq/jobster-be/internal/models"
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, sessions, and the password-reset flow.
type AuthHandler struct {
	users        services.UserServiceProvider
	tokens       *auth.TokenService
	mailer       mail.Mailer
	cookieExpiry time.Duration
	resetTTL     time.Duration
	production   bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService, mailer mail.Mailer, cookieExpiry, resetTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		mailer:       mailer,
		cookieExpiry: cookieExpiry,
		resetTTL:     resetTTL,
		production:   production,
	}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=applicant employer"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles new account registration and signs the account in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	user, err := h.users.Register(payload.Name, payload.Email, payload.Password, payload.Role)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("Account registered")
	h.sendToken(w, r, user, http.StatusCreated)
}

// Login handles authentication and session token delivery.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		apperror.Write(w, r, err)
		return
	}

	h.sendToken(w, r, user, http.StatusOK)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "none",
		Expires:  time.Now(),
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Logged out successfully"})
}

// ForgotPassword issues a reset token and mails it to the account. The
// response never reveals the token in production.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	plain, user, err := h.users.ForgotPassword(payload.Email, h.resetTTL)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/password/reset/%s", scheme(r), r.Host, plain)
	body := fmt.Sprintf("Your password reset link is:\n\n%s\n\nIf you did not request this, ignore this email. The link expires in %s.",
		resetURL, h.resetTTL)
	if err := h.mailer.Send(user.Email, "Password recovery", body); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send reset email")
		apperror.Write(w, r, apperror.NewInternal("Email could not be sent", err))
		return
	}

	resp := envelope{"success": true, "message": "Email sent to " + user.Email}
	if !h.production {
		resp["resetToken"] = plain
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword consumes a reset token and signs the account in with the
// new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	user, err := h.users.ResetPassword(chi.URLParam(r, "token"), payload.Password)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("Password reset completed")
	h.sendToken(w, r, user, http.StatusOK)
}

// sendToken issues a session token, sets the http-only cookie, and renders
// the token in the body.
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	token, err := h.tokens.IssueSessionToken(user.ID, user.Role)
	if err != nil {
		apperror.Write(w, r, apperror.NewInternal("Failed to generate token", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.cookieExpiry),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, status, envelope{"success": true, "token": token, "data": user})
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
