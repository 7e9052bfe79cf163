package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linkdesk/internal/auth"
	"linkdesk/internal/csvcodec"
	"linkdesk/internal/domain"
	"linkdesk/internal/logger"
	"linkdesk/internal/models"
	"linkdesk/internal/utils"
)

type Handler struct {
	DomainService *domain.DomainService
	Logger        *logger.Logger
}

// Routes mounts the domain surface. The inventory is readable by any
// logged-in user; writes and bulk import are admin only.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.ListDomains)
		r.Get("/export", h.ExportDomains)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/", h.CreateDomain)
		r.Post("/import", h.ImportDomains)
		r.Put("/{domainID}", h.UpdateDomain)
		r.Delete("/{domainID}", h.DeleteDomain)
	})
}

func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.DomainService.List(r.Context())
	if err != nil {
		h.respondError(w, "list domains", err)
		return
	}
	utils.JSON(w, http.StatusOK, domains)
}

func (h *Handler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var req models.Domain
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.DomainService.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create domain", err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var req models.Domain
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.DomainService.Update(r.Context(), chi.URLParam(r, "domainID"), req)
	if err != nil {
		h.respondError(w, "update domain", err)
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.DomainService.Delete(r.Context(), chi.URLParam(r, "domainID")); err != nil {
		h.respondError(w, "delete domain", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "domain deleted"})
}

// ImportDomains commits a confirmed import batch and reports the row count.
func (h *Handler) ImportDomains(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domains []models.Domain `json:"domains"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	n, err := h.DomainService.BulkImport(r.Context(), req.Domains)
	if err != nil {
		h.respondError(w, "import domains", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"imported": n})
}

// ExportDomains streams the inventory as a dated CSV download.
func (h *Handler) ExportDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.DomainService.List(r.Context())
	if err != nil {
		h.respondError(w, "export domains", err)
		return
	}

	filename := csvcodec.DomainExportFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := csvcodec.ExportDomains(w, domains); err != nil {
		h.Logger.Error("API", fmt.Sprintf("export domains: %v", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "domain not found")
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyImport):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateURL):
		utils.Error(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
