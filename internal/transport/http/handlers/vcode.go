package handlers

import (
	"net/http"

	"github.com/game-center/account-service/internal/transport/http/httperr"
)

// SendCodeRequest — тело POST /vcode/send.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest — тело POST /vcode/verify.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// SendCode обрабатывает POST /vcode/send.
func (h *Handlers) SendCode(w http.ResponseWriter, r *http.Request) {
	var in SendCodeRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidation(w, r, []string{"body: invalid json"})
		return
	}

	if lines := h.validateStruct(in); lines != nil {
		httperr.WriteValidation(w, r, lines)
		return
	}

	if err := h.Service.SendVCode(r.Context(), in.Email); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// VerifyCode обрабатывает POST /vcode/verify.
//
// Успешная проверка гасит код: повторное предъявление даст 401.
func (h *Handlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var in VerifyCodeRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteValidation(w, r, []string{"body: invalid json"})
		return
	}

	if lines := h.validateStruct(in); lines != nil {
		httperr.WriteValidation(w, r, lines)
		return
	}

	if err := h.Service.VerifyVCode(r.Context(), in.Email, in.Code); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
