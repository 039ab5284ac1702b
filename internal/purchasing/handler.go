package purchasing

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Handler wires HTTP endpoints for purchase orders.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    *auth.Middleware
	validate *validator.Validate
}

// NewHandler constructs purchasing handler.
func NewHandler(logger *slog.Logger, service *Service, guard *auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleStaff))
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}/receive", h.handleReceive)
		r.Patch("/{id}/cancel", h.handleCancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Delete("/{id}", h.handleDelete)
		r.Patch("/{id}/approve", h.handleApprove)
	})
}

type itemRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Quantity   int64           `json:"quantity" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price"`
}

type createRequest struct {
	PONumber   string        `json:"po_number" validate:"omitempty,max=50"`
	SupplierID int64         `json:"supplier_id" validate:"required,gt=0"`
	OrderDate  *time.Time    `json:"order_date,omitempty"`
	Notes      string        `json:"notes" validate:"max=500"`
	Items      []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateRequest struct {
	SupplierID int64         `json:"supplier_id" validate:"omitempty,gt=0"`
	OrderDate  *time.Time    `json:"order_date,omitempty"`
	Notes      string        `json:"notes" validate:"max=500"`
	Items      []itemRequest `json:"items" validate:"omitempty,min=1,dive"`
}

func toItemInputs(reqs []itemRequest) []ItemInput {
	items := make([]ItemInput, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, ItemInput{MaterialID: req.MaterialID, Quantity: req.Quantity, Price: req.Price})
	}
	return items
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))
	supplierID, _ := strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	filter := ListFilter{
		Status:     Status(q.Get("status")),
		SupplierID: supplierID,
		Search:     q.Get("search"),
		Page:       page,
		PerPage:    perPage,
	}
	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": po})
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
	input := CreateInput{
		PONumber:   req.PONumber,
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
		CreatedBy:  actor.ID,
		Items:      toItemInputs(req.Items),
	}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}
	po, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": po})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
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
	input := UpdateInput{
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
		Items:      toItemInputs(req.Items),
	}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}
	po, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": po})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Approve)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Cancel)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (PurchaseOrder, error)) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	po, err := fn(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": po})
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.Receive(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": result})
}
