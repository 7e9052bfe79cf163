package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkdesk/internal/auth"
	"linkdesk/internal/csvcodec"
	"linkdesk/internal/logger"
	"linkdesk/internal/models"
	"linkdesk/internal/order"
	"linkdesk/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

// Routes mounts the order surface. Everything requires a session; list-all
// and delete are additionally admin-gated.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/unread-comments", h.UnreadComments)
		r.Get("/{orderID}", h.GetOrder)
		r.Patch("/{orderID}", h.UpdateOrder)
		r.Patch("/{orderID}/status", h.UpdateStatus)
		r.Get("/{orderID}/comments", h.ListComments)
		r.Post("/{orderID}/comments", h.AddComment)
		r.Post("/{orderID}/comments/read", h.MarkCommentsRead)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/all", h.ListAllOrders)
		r.Get("/export", h.ExportOrders)
		r.Delete("/{orderID}", h.DeleteOrder)
	})
}

func actor(r *http.Request) order.Actor {
	return order.Actor{
		UserID: auth.UserID(r.Context()),
		Admin:  auth.IsAdmin(r.Context()),
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.Order
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	placed, err := h.OrderService.PlaceOrder(r.Context(), actor(r), req)
	if err != nil {
		h.respondError(w, "create order", err)
		return
	}
	utils.JSON(w, http.StatusCreated, placed)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.GetOrder(r.Context(), actor(r), chi.URLParam(r, "orderID"))
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), actor(r))
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListAllOrders(r.Context(), actor(r))
	if err != nil {
		h.respondError(w, "list all orders", err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var patch models.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.OrderService.UpdateOrder(r.Context(), actor(r), chi.URLParam(r, "orderID"), patch)
	if err != nil {
		h.respondError(w, "update order", err)
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		utils.Error(w, http.StatusBadRequest, "status is required")
		return
	}

	updated, err := h.OrderService.UpdateStatus(r.Context(), actor(r), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		h.respondError(w, "update status", err)
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.OrderService.DeleteOrder(r.Context(), actor(r), chi.URLParam(r, "orderID")); err != nil {
		h.respondError(w, "delete order", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.OrderService.ListComments(r.Context(), actor(r), chi.URLParam(r, "orderID"))
	if err != nil {
		h.respondError(w, "list comments", err)
		return
	}
	utils.JSON(w, http.StatusOK, comments)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	comment, err := h.OrderService.AddComment(r.Context(), actor(r), chi.URLParam(r, "orderID"), req.Message)
	if err != nil {
		h.respondError(w, "add comment", err)
		return
	}
	utils.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) MarkCommentsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.OrderService.MarkCommentsRead(r.Context(), actor(r), chi.URLParam(r, "orderID")); err != nil {
		h.respondError(w, "mark comments read", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "comments marked read"})
}

func (h *Handler) UnreadComments(w http.ResponseWriter, r *http.Request) {
	counts, err := h.OrderService.UnreadCounts(r.Context(), actor(r))
	if err != nil {
		h.respondError(w, "unread comments", err)
		return
	}
	utils.JSON(w, http.StatusOK, counts)
}

// ExportOrders streams every order as a CSV download.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListAllOrders(r.Context(), actor(r))
	if err != nil {
		h.respondError(w, "export orders", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvcodec.OrderExportFilename))
	w.WriteHeader(http.StatusOK)
	if err := csvcodec.ExportOrders(w, orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("export orders: %v", err))
	}
}

// respondError maps service errors onto the API's status taxonomy.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrNotOwner), errors.Is(err, order.ErrCancelNotAllowed):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidKind),
		errors.Is(err, order.ErrMissingFields),
		errors.Is(err, order.ErrEmptyMessage):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrActionInFlight):
		utils.Error(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
