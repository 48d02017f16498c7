package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/filter"
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe returns the authenticated account's profile with its published
// postings.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	profile, err := h.service.GetProfile(claims.UserID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": profile})
}

// UpdateMe updates the authenticated account's name and email.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	if _, err := h.service.UpdateAccount(claims.UserID, payload.Name, payload.Email); err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Profile updated successfully"})
}

// UpdatePassword changes the authenticated account's password after
// verifying the current one.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	if err := decodeBody(r, &payload); err != nil {
		apperror.Write(w, r, err)
		return
	}

	if _, err := h.service.UpdatePassword(claims.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Password updated successfully"})
}

// DeleteMe closes the authenticated account and clears the session cookie.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	if err := h.service.DeleteAccount(claims.UserID); err != nil {
		apperror.Write(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "token", Value: "none", HttpOnly: true, Path: "/"})
	log.Info().Str("user_id", claims.UserID).Msg("Account deleted")
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Your account has been deleted"})
}

// List returns all accounts, shaped by the query filter builder. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := filter.Parse(r.URL.Query(), services.UserFilterOptions)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	users, err := h.service.List(q)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	total, err := h.service.Count(q)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"results": len(users),
		"total":   total,
		"data":    projectFields(users, q.Fields),
	})
}

// Delete removes an account by id, with its cascades. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteAccount(id); err != nil {
		apperror.Write(w, r, err)
		return
	}
	log.Info().Str("user_id", id).Msg("Account deleted by admin")
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "User is deleted by admin"})
}
