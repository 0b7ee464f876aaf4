package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

const msgBadBody = "Invalid request body"

func userView(u model.User) model.UserView {
	return model.UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(service.DateLayout),
	}
}

// Register handles POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	u, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.RegisterResponse{
		Message: "User created successfully",
		ID:      u.ID,
	})
}

// Login handles POST /api/login
// The identifier may be sent as email, identifier or username.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.LoginIdentifier(), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResponse{
		Message: "Login success",
		Token:   token,
		UserID:  u.ID,
		Role:    u.Role,
		Name:    u.Name,
	})
}

// ForgotPassword handles POST /api/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	msg, err := h.auth.RequestReset(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: msg})
}

// ResetPassword handles POST /api/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	if err := h.auth.ConfirmReset(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: "Password has been reset successfully. Please login.",
	})
}

// ListUsers handles GET /api/users (admin only).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// Profile handles GET /api/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Profile(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(*u))
}
