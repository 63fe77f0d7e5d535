package handlers

import (
	"net/http"

	"github.com/game-center/account-service/internal/models"
	"github.com/game-center/account-service/internal/transport/http/httperr"
)

// LoginRequest — тело POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest — тело POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterRequest — тело POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	VCode    string `json:"vcode" validate:"required"`
}

// TokenResponse — пара токенов + профиль пользователя.
type TokenResponse struct {
	AccessToken  models.SignedToken `json:"access_token"`
	RefreshToken models.SignedToken `json:"refresh_token"`
	User         models.UserInfo    `json:"user"`
}

// Login обрабатывает POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidation(w, r, []string{"body: invalid json"})
		return
	}

	if lines := h.validateStruct(in); lines != nil {
		httperr.WriteValidation(w, r, lines)
		return
	}

	res, err := h.Service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// Refresh обрабатывает POST /auth/refresh.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidation(w, r, []string{"body: invalid json"})
		return
	}

	if lines := h.validateStruct(in); lines != nil {
		httperr.WriteValidation(w, r, lines)
		return
	}

	res, err := h.Service.RefreshSession(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// Register обрабатывает POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidation(w, r, []string{"body: invalid json"})
		return
	}

	if lines := h.validateStruct(in); lines != nil {
		httperr.WriteValidation(w, r, lines)
		return
	}

	info, err := h.Service.Register(r.Context(), in.Username, in.Email, in.Password, in.VCode)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}
