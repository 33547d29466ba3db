package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/validation"
)

type orderForm struct {
	Clients        []model.Client        `json:"clients"`
	PaymentMethods []model.PaymentMethod `json:"payment_methods"`
	Statuses       []model.OrderStatus   `json:"statuses"`
	Order          model.Order           `json:"order"`
}

var (
	paymentMethods = []model.PaymentMethod{
		model.PaymentMethodCash,
		model.PaymentMethodCard,
		model.PaymentMethodTransfer,
	}
	orderStatuses = []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusPreparing,
		model.OrderStatusDelivered,
		model.OrderStatusPaid,
		model.OrderStatusCancelled,
	}
)

// ListOrders возвращает заказы от новых к старым.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err, "list orders error")
		return
	}

	h.writeJSON(w, orders)
}

func (h *Handler) renderOrderForm(w http.ResponseWriter, r *http.Request, order model.Order) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, err, "list clients error")
		return
	}

	h.writeJSON(w, orderForm{
		Clients:        clients,
		PaymentMethods: paymentMethods,
		Statuses:       orderStatuses,
		Order:          order,
	})
}

// NewOrderForm возвращает список клиентов и значения нового заказа по умолчанию.
func (h *Handler) NewOrderForm(w http.ResponseWriter, r *http.Request) {
	h.renderOrderForm(w, r, model.Order{
		Date:          h.now().UTC(),
		PaymentMethod: model.PaymentMethodCash,
		Status:        model.OrderStatusPending,
	})
}

// CreateOrder создаёт заказ и переводит оператора к вводу позиций.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseOrder(r.PostForm, h.now())
	if err != nil {
		h.writeError(w, err, "parse order form")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "create order error", zap.Int64("clientID", in.ClientID))
		return
	}

	redirect(w, r, orderPath(order.ID))
}

// ShowOrder возвращает заказ вместе с позициями.
func (h *Handler) ShowOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "order_id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}

	details, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get order error", zap.Int64("orderID", id))
		return
	}

	h.writeJSON(w, details)
}

// EditOrderForm возвращает заказ для заполнения формы.
func (h *Handler) EditOrderForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}

	details, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get order error", zap.Int64("orderID", id))
		return
	}

	h.renderOrderForm(w, r, details.Order)
}

// UpdateOrder изменяет атрибуты заказа.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	// Пустая дата в форме редактирования оставляет сохранённую дату заказа.
	in, err := validation.ParseOrder(r.PostForm, time.Time{})
	if err != nil {
		h.writeError(w, err, "parse order form")
		return
	}

	if _, err := h.service.UpdateOrder(r.Context(), id, in); err != nil {
		h.writeError(w, err, "update order error", zap.Int64("orderID", id))
		return
	}

	redirect(w, r, "/orders")
}

// DeleteOrder удаляет заказ вместе с позициями.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeError(w, err, "delete order error", zap.Int64("orderID", id))
		return
	}

	redirect(w, r, "/orders")
}

// RecalculateOrder пересчитывает сумму заказа по его позициям.
func (h *Handler) RecalculateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "order_id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}

	if _, err := h.service.RecalculateOrderTotal(r.Context(), id); err != nil {
		h.writeError(w, err, "recalculate order error", zap.Int64("orderID", id))
		return
	}

	redirect(w, r, orderPath(id))
}

// AddLineItem добавляет позицию в заказ.
func (h *Handler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "order_id")
	if err != nil {
		h.writeError(w, err, "parse order id")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseLineItem(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse line item form")
		return
	}

	if _, err := h.service.AddLineItem(r.Context(), orderID, in); err != nil {
		h.writeError(w, err, "add line item error",
			zap.Int64("orderID", orderID), zap.Int64("productID", in.ProductID))
		return
	}

	redirect(w, r, orderPath(orderID))
}

// EditLineItemForm возвращает позицию заказа для заполнения формы.
func (h *Handler) EditLineItemForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse line item id")
		return
	}

	item, err := h.service.GetLineItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get line item error", zap.Int64("lineItemID", id))
		return
	}

	h.writeJSON(w, item)
}

// EditLineItem изменяет позицию заказа.
func (h *Handler) EditLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse line item id")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	in, err := validation.ParseLineItem(r.PostForm)
	if err != nil {
		h.writeError(w, err, "parse line item form")
		return
	}

	item, err := h.service.EditLineItem(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err, "edit line item error", zap.Int64("lineItemID", id))
		return
	}

	redirect(w, r, orderPath(item.OrderID))
}

// RemoveLineItem удаляет позицию заказа.
func (h *Handler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse line item id")
		return
	}

	orderID, err := h.service.RemoveLineItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "remove line item error", zap.Int64("lineItemID", id))
		return
	}

	redirect(w, r, orderPath(orderID))
}
