package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/masterdata/bom"
	"github.com/fabrika-mes/fabrika/internal/masterdata/customers"
	"github.com/fabrika-mes/fabrika/internal/masterdata/materials"
	"github.com/fabrika-mes/fabrika/internal/masterdata/products"
	"github.com/fabrika-mes/fabrika/internal/masterdata/suppliers"
	"github.com/fabrika-mes/fabrika/internal/observability"
	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
	"github.com/fabrika-mes/fabrika/internal/production"
	"github.com/fabrika-mes/fabrika/internal/purchasing"
	"github.com/fabrika-mes/fabrika/internal/sales"
	"github.com/fabrika-mes/fabrika/internal/stock"
	"github.com/fabrika-mes/fabrika/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	Guard *auth.Middleware

	AuthHandler       *auth.Handler
	StockHandler      *stock.Handler
	PurchasingHandler *purchasing.Handler
	SalesHandler      *sales.Handler
	ProductionHandler *production.Handler
	MaterialsHandler  *materials.Handler
	ProductsHandler   *products.Handler
	SuppliersHandler  *suppliers.Handler
	CustomersHandler  *customers.Handler
	BOMHandler        *bom.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Authenticate)

			r.Route("/users", params.AuthHandler.MountUserRoutes)
			r.Route("/materials", params.MaterialsHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
			r.Route("/bom", params.BOMHandler.MountRoutes)
			r.Route("/purchase-orders", params.PurchasingHandler.MountRoutes)
			r.Route("/sales-orders", params.SalesHandler.MountRoutes)
			r.Route("/work-orders", params.ProductionHandler.MountRoutes)
			r.Route("/stock", params.StockHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.Guard.RequireRole(auth.RoleAdmin))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not registered")
	})

	return r
}
