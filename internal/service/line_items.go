package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
)

// GetLineItem возвращает позицию заказа по идентификатору.
func (s *Service) GetLineItem(ctx context.Context, id int64) (*model.LineItem, error) {
	return s.repo.GetLineItem(ctx, id)
}

// AddLineItem добавляет позицию в заказ по текущей цене продукта и увеличивает сумму заказа на её подытог.
func (s *Service) AddLineItem(ctx context.Context, orderID int64, in model.LineItemInput) (*model.LineItem, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var created *model.LineItem
	err := s.repo.InTx(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		product, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}

		item := &model.LineItem{
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal(product.Price, in.Quantity),
		}
		if item.Subtotal.GreaterThanOrEqual(maxAmount) {
			return fmt.Errorf("%w: subtotal %s", ErrAmountOutOfRange, item.Subtotal)
		}
		if err := tx.InsertLineItem(ctx, item); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}

		if err := adjustTotal(ctx, tx, order, item.Subtotal); err != nil {
			return err
		}

		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// EditLineItem меняет продукт и количество позиции, заново фиксирует цену продукта
// и корректирует сумму заказа на разницу между новым и прежним подытогом.
func (s *Service) EditLineItem(ctx context.Context, itemID int64, in model.LineItemInput) (*model.LineItem, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *model.LineItem
	err := s.repo.InTx(ctx, func(tx Tx) error {
		item, order, err := lockLineItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		product, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}

		oldSubtotal := item.Subtotal

		item.ProductID = product.ID
		item.ProductName = product.Name
		item.Quantity = in.Quantity
		item.UnitPrice = product.Price
		item.Subtotal = subtotal(product.Price, in.Quantity)
		if item.Subtotal.GreaterThanOrEqual(maxAmount) {
			return fmt.Errorf("%w: subtotal %s", ErrAmountOutOfRange, item.Subtotal)
		}

		if err := tx.UpdateLineItem(ctx, item); err != nil {
			return fmt.Errorf("update line item: %w", err)
		}

		if err := adjustTotal(ctx, tx, order, item.Subtotal.Sub(oldSubtotal)); err != nil {
			return err
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveLineItem уменьшает сумму заказа на подытог позиции и удаляет её.
// Возвращает идентификатор заказа, которому принадлежала позиция.
func (s *Service) RemoveLineItem(ctx context.Context, itemID int64) (int64, error) {
	var orderID int64
	err := s.repo.InTx(ctx, func(tx Tx) error {
		item, order, err := lockLineItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		if err := adjustTotal(ctx, tx, order, item.Subtotal.Neg()); err != nil {
			return err
		}

		if err := tx.DeleteLineItem(ctx, item.ID); err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return orderID, nil
}

// RecalculateOrderTotal заново вычисляет сумму заказа как сумму подытогов его позиций.
func (s *Service) RecalculateOrderTotal(ctx context.Context, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		sum, err := tx.SumLineItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("sum line items: %w", err)
		}

		if err := tx.SetOrderTotal(ctx, orderID, sum); err != nil {
			return fmt.Errorf("set order total: %w", err)
		}

		o.Total = sum
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// lockLineItem блокирует заказ позиции и перечитывает позицию под блокировкой,
// чтобы подытог не изменился до конца транзакции.
func lockLineItem(ctx context.Context, tx Tx, itemID int64) (*model.LineItem, *model.Order, error) {
	item, err := tx.GetLineItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	order, err := tx.LockOrder(ctx, item.OrderID)
	if err != nil {
		return nil, nil, err
	}

	item, err = tx.GetLineItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	return item, order, nil
}

func adjustTotal(ctx context.Context, tx Tx, order *model.Order, delta decimal.Decimal) error {
	total := order.Total.Add(delta)
	if total.IsNegative() {
		return fmt.Errorf("%w: order %d, total %s, delta %s", ErrNegativeTotal, order.ID, order.Total, delta)
	}
	if total.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: order %d, total %s, delta %s", ErrAmountOutOfRange, order.ID, order.Total, delta)
	}

	if err := tx.SetOrderTotal(ctx, order.ID, total); err != nil {
		return fmt.Errorf("set order total: %w", err)
	}

	order.Total = total
	return nil
}

func subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
