package handlers

import (
	"net/http"

	"pto/ledger"
	"pto/middleware"
)

type AuthHandler struct {
	svc  *ledger.Service
	auth *middleware.Authenticator
}

func NewAuthHandler(svc *ledger.Service, auth *middleware.Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc, auth: auth}
}

// Login accepts a username or an email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.SetSession(w, user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
