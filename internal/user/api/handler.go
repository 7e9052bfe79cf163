package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkdesk/internal/auth"
	"linkdesk/internal/logger"
	"linkdesk/internal/user/db"
	"linkdesk/internal/utils"
)

type Handler struct {
	DB     *db.DB
	Logger *logger.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.ListUsers)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("list users: %v", err))
		utils.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	utils.JSON(w, http.StatusOK, users)
}
