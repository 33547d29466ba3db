package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/restaurant-backoffice/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware ресторанного бэк-офиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/", h.Index)
	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/new", h.NewProductForm)
		r.Post("/new", h.CreateProduct)
		r.Get("/edit/{id}", h.EditProductForm)
		r.Post("/edit/{id}", h.UpdateProduct)
		r.Get("/delete/{id}", h.DeleteProduct)
	})

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.ListClients)
		r.Get("/new", h.NewClientForm)
		r.Post("/new", h.CreateClient)
		r.Get("/edit/{id}", h.EditClientForm)
		r.Post("/edit/{id}", h.UpdateClient)
		r.Get("/delete/{id}", h.DeleteClient)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/new", h.NewOrderForm)
		r.Post("/new", h.CreateOrder)
		r.Get("/edit/{id}", h.EditOrderForm)
		r.Post("/edit/{id}", h.UpdateOrder)
		r.Get("/delete/{id}", h.DeleteOrder)

		r.Get("/{order_id}", h.ShowOrder)
		r.Post("/{order_id}/details/new", h.AddLineItem)
		r.Post("/{order_id}/recalculate", h.RecalculateOrder)
	})

	r.Route("/order_detail", func(r chi.Router) {
		r.Get("/edit/{id}", h.EditLineItemForm)
		r.Post("/edit/{id}", h.EditLineItem)
		r.Get("/delete/{id}", h.RemoveLineItem)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
