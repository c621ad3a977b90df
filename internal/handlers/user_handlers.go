package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"collab-app/internal/auth"
	"collab-app/internal/database"
	"collab-app/internal/models"
	"collab-app/pkg/logger"
)

// UserHandlers serves the user directory: the list of known users and
// bulk identifier-to-profile resolution used to decorate the UI.
type UserHandlers struct {
	db          database.Database
	authService *auth.Service
}

func NewUserHandlers(db database.Database, authService *auth.Service) *UserHandlers {
	return &UserHandlers{
		db:          db,
		authService: authService,
	}
}

func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		logger.Error("List users error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/users/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UserDetails resolves a batch of user identifiers to their profiles.
func (h *UserHandlers) UserDetails(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UserDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserIDs == nil {
		http.Error(w, "userIds array is required", http.StatusBadRequest)
		return
	}

	users, err := h.db.GetUsersByIDs(r.Context(), req.UserIDs)
	if err != nil {
		logger.Error("User details error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
			tokenStr = strings.TrimPrefix(bearer, "Bearer ")
		}
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	return h.authService.GetUserFromToken(r.Context(), tokenStr)
}
