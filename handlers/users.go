package handlers

import (
	"net/http"

	"pto/ledger"
	"pto/middleware"
	"pto/models"
)

// UsersHandler manages profiles and, for staff, accounts.
type UsersHandler struct {
	svc *ledger.Service
}

func NewUsersHandler(svc *ledger.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	profile, err := h.svc.Profile(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "profile": profile})
}

func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	h.updateProfile(w, r, user, user.ID)
}

// UpdateUserProfile edits another user's profile, manager included.
func (h *UsersHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	h.updateProfile(w, r, middleware.GetUserFromContext(r.Context()), id)
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request, actor *models.User, targetID uint) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	form, err := ledger.ParseProfileForm(r.PostForm, h.svc.Today())
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), actor, targetID, form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	form, err := ledger.ParseUserForm(r.PostForm)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.svc.CreateUser(r.Context(), middleware.GetUserFromContext(r.Context()), form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}
