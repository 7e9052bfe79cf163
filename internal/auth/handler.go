package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"linkdesk/internal/logger"
	"linkdesk/internal/models"
	"linkdesk/internal/utils"
)

// UserStore is the slice of the user DB the auth handlers need.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	Sessions *Sessions
	Users    UserStore
	Logger   *logger.Logger
}

// Login checks credentials and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("login failed for %q: unknown user", req.Username))
		utils.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("login failed for %q: bad password", req.Username))
		utils.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := h.Sessions.SaveUser(w, r, user); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not create session")
		return
	}

	h.Logger.Info("AUTH", fmt.Sprintf("user %s logged in", user.Username))
	utils.JSON(w, http.StatusOK, user)
}

// Logout expires the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(w, r); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not clear session")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the logged-in user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetByID(r.Context(), UserID(r.Context()))
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	utils.JSON(w, http.StatusOK, user)
}
