// Package handler содержит HTTP-обработчики ресторанного бэк-офиса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-backoffice/internal/middleware"
	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/repository"
	"github.com/mmeshcher/restaurant-backoffice/internal/service"
	"github.com/mmeshcher/restaurant-backoffice/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	UpdateClient(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, in model.OrderInput) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.OrderDetails, error)
	UpdateOrder(ctx context.Context, id int64, in model.OrderInput) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	GetLineItem(ctx context.Context, id int64) (*model.LineItem, error)
	AddLineItem(ctx context.Context, orderID int64, in model.LineItemInput) (*model.LineItem, error)
	EditLineItem(ctx context.Context, itemID int64, in model.LineItemInput) (*model.LineItem, error)
	RemoveLineItem(ctx context.Context, itemID int64) (int64, error)
	RecalculateOrderTotal(ctx context.Context, orderID int64) (*model.Order, error)
}

// Handler реализует HTTP-обработчики ресторанного бэк-офиса.
type Handler struct {
	service Service
	logger  *zap.Logger
	metrics *middleware.Metrics
	now     func() time.Time
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Если metrics равен nil, маршрут /metrics не регистрируется.
func NewHandler(s Service, logger *zap.Logger, metrics *middleware.Metrics) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

type indexResponse struct {
	Sections map[string]string `json:"sections"`
}

// Index возвращает ссылки на разделы приложения.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, indexResponse{
		Sections: map[string]string{
			"products": "/products",
			"clients":  "/clients",
			"orders":   "/orders",
		},
	})
}

// Health проверяет доступность базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError переводит ошибку сервиса в HTTP-статус. Неожиданные ошибки логируются.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		http.Error(w, verrs.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrLineItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repository.ErrProductInUse),
		errors.Is(err, repository.ErrClientInUse),
		errors.Is(err, service.ErrNegativeTotal),
		errors.Is(err, service.ErrAmountOutOfRange):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// pathID разбирает идентификатор из параметра маршрута.
func pathID(r *http.Request, name string) (int64, error) {
	return validation.ParseID(chi.URLParam(r, name))
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
