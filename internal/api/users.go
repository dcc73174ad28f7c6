package api

import (
	"net/http"

	"github.com/erazemk/katalog/internal/catalog"
)

// UsersHandler handles account and profile endpoints.
type UsersHandler struct {
	Svc *catalog.Service
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListUsers(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewUser
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Svc.CreateUser(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, user)
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.MyProfile(r.Context(), principal(r), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, profile)
}

// Get handles GET /api/users/{username}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.Profile(r.Context(), principal(r), r.PathValue("username"), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, profile)
}

// Delete handles DELETE /api/users/{username}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteUser(r.Context(), principal(r), r.PathValue("username")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
