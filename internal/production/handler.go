package production

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Handler wires HTTP endpoints for work orders.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    *auth.Middleware
	validate *validator.Validate
}

// NewHandler constructs production handler.
func NewHandler(logger *slog.Logger, service *Service, guard *auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers work order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/requirements", h.handleRequirements)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleStaff))
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}/start", h.handleStart)
		r.Patch("/{id}/complete", h.handleComplete)
		r.Patch("/{id}/cancel", h.handleCancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Delete("/{id}", h.handleDelete)
	})
}

type createRequest struct {
	WONumber        string `json:"wo_number" validate:"omitempty,max=50"`
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	QuantityPlanned int64  `json:"quantity_planned" validate:"required,gt=0"`
	Notes           string `json:"notes" validate:"max=500"`
}

type updateRequest struct {
	ProductID       int64  `json:"product_id" validate:"omitempty,gt=0"`
	QuantityPlanned int64  `json:"quantity_planned" validate:"omitempty,gt=0"`
	Notes           string `json:"notes" validate:"max=500"`
}

type completeRequest struct {
	QuantityProduced int64 `json:"quantity_produced" validate:"required,gt=0"`
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))
	productID, _ := strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter := ListFilter{
		Status:    Status(q.Get("status")),
		ProductID: productID,
		Search:    q.Get("search"),
		Page:      page,
		PerPage:   perPage,
	}
	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list work orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"meta": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": wo})
}

func (h *Handler) handleRequirements(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	reqs, err := h.service.Requirements(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": reqs})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	wo, err := h.service.Create(r.Context(), CreateInput{
		WONumber:        req.WONumber,
		ProductID:       req.ProductID,
		QuantityPlanned: req.QuantityPlanned,
		Notes:           req.Notes,
		CreatedBy:       actor.ID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": wo})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	wo, err := h.service.Update(r.Context(), id, UpdateInput{
		ProductID:       req.ProductID,
		QuantityPlanned: req.QuantityPlanned,
		Notes:           req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": wo})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	wo, err := h.service.Start(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": wo})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	wo, err := h.service.Cancel(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": wo})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	var req completeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.Complete(r.Context(), id, actor.ID, req.QuantityProduced)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": result})
}
