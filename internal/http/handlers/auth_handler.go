package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trailhead/tours/internal/domain"
	mw "github.com/trailhead/tours/internal/http/middleware"
	"github.com/trailhead/tours/internal/http/response"
)

// Signup handles user registration
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	session, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			response.Conflict(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusCreated, session)
}

// Login handles user authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	session, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, session)
}

// ForgotPassword issues a reset token and mails it. The response never
// reveals whether the email belongs to an account.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "If that email exists, a reset token has been sent",
	})
}

// ResetPassword consumes a reset token and sets a new password
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	session, err := h.authService.ResetPassword(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidToken)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, session)
}

// UpdatePassword changes the password of the logged-in user
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := mw.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "you are not logged in")
		return
	}

	var req domain.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	session, err := h.authService.UpdatePassword(r.Context(), user.ID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, session)
}

// DeactivateMe soft-deletes the logged-in user's account
func (h *Handlers) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	user := mw.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "you are not logged in")
		return
	}

	if err := h.authService.Deactivate(r.Context(), user.ID); err != nil {
		response.InternalError(w, "failed to deactivate account")
		return
	}

	response.JSON(w, http.StatusNoContent, nil)
}

// Me returns the logged-in user's public profile
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := mw.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "you are not logged in")
		return
	}

	response.JSON(w, http.StatusOK, user.ToUserInfo())
}
