package materials

import (
	"github.com/go-chi/chi/v5"

	"github.com/fabrika-mes/fabrika/internal/auth"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleStaff))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Delete("/{id}", h.Delete)
	})
}
