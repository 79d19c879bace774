// Package api exposes the admin panel's HTTP surface. Handlers translate the
// domain error taxonomy into status codes and Spanish user-facing messages;
// technical detail goes to the request log only.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
)

// maxUploadBytes bounds multipart request bodies, image included.
const maxUploadBytes = 10 << 20

// Handler serves the admin API, delegating catalog logic to the synchronizer
// and access control to the auth service.
type Handler struct {
	sync *catalog.Synchronizer
	view *catalog.View
	auth *auth.Service
}

// NewHandler constructs a Handler. A nil auth service disables request
// gating; the login endpoint then issues a static development token.
func NewHandler(sync *catalog.Synchronizer, view *catalog.View, authSvc *auth.Service) *Handler {
	return &Handler{
		sync: sync,
		view: view,
		auth: authSvc,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Get("/categories", h.listCategories)
			r.Post("/categories", h.createCategory)
			r.Post("/categories/ensure", h.ensureCategory)

			r.Get("/products", h.listProducts)
			r.Post("/products", h.createProduct)
			r.Patch("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
		})
	})
}

// Routes returns a standalone router with all API routes mounted, used by
// handler tests.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}
