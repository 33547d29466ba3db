// Package service реализует бизнес-логику ресторанного бэк-офиса.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
)

var (
	// ErrInvalidQuantity возвращается, если количество в позиции заказа не положительное.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNegativeTotal возвращается, если изменение позиции сделало бы сумму заказа отрицательной.
	ErrNegativeTotal = errors.New("order total would become negative")
	// ErrAmountOutOfRange возвращается, если подытог или сумма заказа не помещаются в NUMERIC(18,2).
	ErrAmountOutOfRange = errors.New("amount exceeds the supported range")
)

// maxAmount ограничивает подытоги и суммы заказов сверху (не включительно).
var maxAmount = decimal.New(1, 16)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
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
	GetOrderDetails(ctx context.Context, id int64) (*model.OrderDetails, error)
	UpdateOrder(ctx context.Context, id int64, in model.OrderInput) (*model.Order, error)
	GetLineItem(ctx context.Context, id int64) (*model.LineItem, error)

	// InTx выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx описывает операции, доступные внутри транзакции.
type Tx interface {
	// LockOrder возвращает заказ, блокируя его строку до конца транзакции.
	LockOrder(ctx context.Context, id int64) (*model.Order, error)
	SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	DeleteOrder(ctx context.Context, id int64) error

	GetProduct(ctx context.Context, id int64) (*model.Product, error)

	GetLineItem(ctx context.Context, id int64) (*model.LineItem, error)
	InsertLineItem(ctx context.Context, item *model.LineItem) error
	UpdateLineItem(ctx context.Context, item *model.LineItem) error
	DeleteLineItem(ctx context.Context, id int64) error
	DeleteLineItemsByOrder(ctx context.Context, orderID int64) (int64, error)
	SumLineItems(ctx context.Context, orderID int64) (decimal.Decimal, error)
}

// Service содержит бизнес-логику ресторанного бэк-офиса.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// CreateProduct добавляет позицию меню.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	return s.repo.CreateProduct(ctx, in)
}

// ListProducts возвращает все позиции меню.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct возвращает позицию меню по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct изменяет позицию меню. Цены уже добавленных в заказы позиций не меняются.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	return s.repo.UpdateProduct(ctx, id, in)
}

// DeleteProduct удаляет позицию меню, если она не используется в заказах.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// CreateClient добавляет клиента.
func (s *Service) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	return s.repo.CreateClient(ctx, in)
}

// ListClients возвращает всех клиентов.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.repo.ListClients(ctx)
}

// GetClient возвращает клиента по идентификатору.
func (s *Service) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	return s.repo.GetClient(ctx, id)
}

// UpdateClient изменяет данные клиента.
func (s *Service) UpdateClient(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error) {
	return s.repo.UpdateClient(ctx, id, in)
}

// DeleteClient удаляет клиента, если у него нет заказов.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.repo.DeleteClient(ctx, id)
}

// CreateOrder создаёт заказ с нулевой суммой. Позиции добавляются отдельно.
func (s *Service) CreateOrder(ctx context.Context, in model.OrderInput) (*model.Order, error) {
	return s.repo.CreateOrder(ctx, in)
}

// ListOrders возвращает заказы, отсортированные по дате от новых к старым.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder возвращает заказ вместе с клиентом и позициями.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.OrderDetails, error) {
	return s.repo.GetOrderDetails(ctx, id)
}

// UpdateOrder изменяет атрибуты заказа. Сумма заказа не пересчитывается.
// Нулевая дата в in означает, что дата заказа остаётся прежней.
func (s *Service) UpdateOrder(ctx context.Context, id int64, in model.OrderInput) (*model.Order, error) {
	if in.Date.IsZero() {
		current, err := s.repo.GetOrderDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		in.Date = current.Date
	}
	return s.repo.UpdateOrder(ctx, id, in)
}

// DeleteOrder удаляет заказ вместе со всеми его позициями.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockOrder(ctx, id); err != nil {
			return err
		}
		if _, err := tx.DeleteLineItemsByOrder(ctx, id); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		return tx.DeleteOrder(ctx, id)
	})
}
