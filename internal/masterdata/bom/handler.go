package bom

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   *auth.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, guard *auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

type lineRequest struct {
	ProductID  int64 `json:"product_id"`
	MaterialID int64 `json:"material_id"`
	Quantity   int64 `json:"quantity"`
}

type quantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id query parameter required")
		return
	}
	lines, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("list bom lines", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": lines})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid bom line id")
		return
	}
	line, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": line})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	line, err := h.service.Create(r.Context(), Line{
		ProductID:  req.ProductID,
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": line})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid bom line id")
		return
	}
	var req quantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	line, err := h.service.Update(r.Context(), id, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": line})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid bom line id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}
