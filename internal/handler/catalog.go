package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/validation"
)

type productForm struct {
	Statuses []model.ProductStatus `json:"statuses"`
	Product  model.Product         `json:"product"`
}

// ListProducts возвращает меню.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err, "list products error")
		return
	}

	h.writeJSON(w, products)
}

// NewProductForm возвращает значения формы новой позиции меню по умолчанию.
func (h *Handler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, productForm{
		Statuses: []model.ProductStatus{model.ProductStatusAvailable, model.ProductStatusUnavailable},
		Product:  model.Product{Status: model.ProductStatusAvailable},
	})
}

// CreateProduct добавляет позицию меню.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseProduct(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse product form")
		return
	}

	if _, err := h.service.CreateProduct(r.Context(), in); err != nil {
		h.writeError(w, err, "create product error")
		return
	}

	redirect(w, r, "/products")
}

// EditProductForm возвращает позицию меню для заполнения формы.
func (h *Handler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse product id")
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get product error", zap.Int64("productID", id))
		return
	}

	h.writeJSON(w, productForm{
		Statuses: []model.ProductStatus{model.ProductStatusAvailable, model.ProductStatusUnavailable},
		Product:  *p,
	})
}

// UpdateProduct изменяет позицию меню.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse product id")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseProduct(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse product form")
		return
	}

	if _, err := h.service.UpdateProduct(r.Context(), id, in); err != nil {
		h.writeError(w, err, "update product error", zap.Int64("productID", id))
		return
	}

	redirect(w, r, "/products")
}

// DeleteProduct удаляет позицию меню.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse product id")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, err, "delete product error", zap.Int64("productID", id))
		return
	}

	redirect(w, r, "/products")
}

// ListClients возвращает список клиентов.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, err, "list clients error")
		return
	}

	h.writeJSON(w, clients)
}

// NewClientForm возвращает пустую форму клиента.
func (h *Handler) NewClientForm(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, model.Client{})
}

// CreateClient добавляет клиента и переводит оператора к заказам.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseClient(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse client form")
		return
	}

	if _, err := h.service.CreateClient(r.Context(), in); err != nil {
		h.writeError(w, err, "create client error")
		return
	}

	redirect(w, r, "/orders")
}

// EditClientForm возвращает клиента для заполнения формы.
func (h *Handler) EditClientForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse client id")
		return
	}

	c, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get client error", zap.Int64("clientID", id))
		return
	}

	h.writeJSON(w, c)
}

// UpdateClient изменяет данные клиента.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse client id")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseClient(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse client form")
		return
	}

	if _, err := h.service.UpdateClient(r.Context(), id, in); err != nil {
		h.writeError(w, err, "update client error", zap.Int64("clientID", id))
		return
	}

	redirect(w, r, "/clients")
}

// DeleteClient удаляет клиента.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse client id")
		return
	}

	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.writeError(w, err, "delete client error", zap.Int64("clientID", id))
		return
	}

	redirect(w, r, "/clients")
}
