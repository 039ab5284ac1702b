package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   *auth.Middleware
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service, guard *auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/logs", h.handleListLogs)
	r.Get("/logs/export", h.handleExportLogs)
	r.Get("/movements/{item_type}/{item_id}", h.handleMovements)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Post("/adjust", h.handleAdjust)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("stock summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func logFilterFromQuery(r *http.Request) LogFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	return LogFilter{
		ItemType:      ItemType(q.Get("item_type")),
		ItemID:        itemID,
		MovementType:  MovementType(q.Get("movement_type")),
		ReferenceType: ReferenceType(q.Get("reference_type")),
		Page:          page,
		PerPage:       perPage,
	}
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	filter := logFilterFromQuery(r)
	logs, total, err := h.service.ListLogs(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": logs,
		"meta": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.ExportLogs(r.Context(), logFilterFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="stock_logs.xlsx"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("write xlsx", slog.Any("error", err))
	}
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	logs, err := h.service.MovementsByItem(r.Context(), ItemType(chi.URLParam(r, "item_type")), itemID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": logs})
}

type adjustRequest struct {
	ItemType  string `json:"item_type" validate:"required,oneof=material product"`
	ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	Direction string `json:"direction" validate:"required,oneof=in out"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Notes     string `json:"notes" validate:"max=500"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	entry, err := h.service.Adjust(r.Context(), AdjustInput{
		ItemType:  ItemType(req.ItemType),
		ItemID:    req.ItemID,
		Direction: Direction(req.Direction),
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		ActorID:   actor.ID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": entry})
}
