package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/service"
)

const lineItemSelect = `SELECT li.id, li.order_id, li.product_id, p.product_name, li.quantity, li.unit_price, li.subtotal
	 FROM line_items li
	 JOIN products p ON p.id = li.product_id`

func scanLineItem(row pgx.Row) (*model.LineItem, error) {
	var it model.LineItem
	if err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
		return nil, err
	}
	return &it, nil
}

func getLineItem(ctx context.Context, q querier, id int64) (*model.LineItem, error) {
	it, err := scanLineItem(q.QueryRow(ctx, lineItemSelect+` WHERE li.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineItemNotFound
		}
		return nil, fmt.Errorf("get line item: %w", err)
	}
	return it, nil
}

func listLineItems(ctx context.Context, q querier, orderID int64) ([]model.LineItem, error) {
	rows, err := q.Query(ctx, lineItemSelect+` WHERE li.order_id = $1 ORDER BY li.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select line items: %w", err)
	}
	defer rows.Close()

	items := []model.LineItem{}
	for rows.Next() {
		it, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, *it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// GetLineItem возвращает позицию заказа по идентификатору.
func (r *PostgresRepository) GetLineItem(ctx context.Context, id int64) (*model.LineItem, error) {
	return getLineItem(ctx, r.pool, id)
}

// GetLineItem возвращает позицию заказа в рамках транзакции.
func (t *pgTx) GetLineItem(ctx context.Context, id int64) (*model.LineItem, error) {
	return getLineItem(ctx, t.tx, id)
}

// InsertLineItem сохраняет новую позицию заказа и заполняет её идентификатор.
func (t *pgTx) InsertLineItem(ctx context.Context, item *model.LineItem) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO line_items (order_id, product_id, quantity, unit_price, subtotal)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		if isNumericOutOfRange(err) {
			return fmt.Errorf("insert line item: %w", service.ErrAmountOutOfRange)
		}
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

// UpdateLineItem сохраняет продукт, количество, цену и подытог позиции.
func (t *pgTx) UpdateLineItem(ctx context.Context, item *model.LineItem) error {
	cmdTag, err := t.tx.Exec(ctx,
		`UPDATE line_items
		 SET product_id = $2, quantity = $3, unit_price = $4, subtotal = $5
		 WHERE id = $1`,
		item.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		if isNumericOutOfRange(err) {
			return fmt.Errorf("update line item: %w", service.ErrAmountOutOfRange)
		}
		return fmt.Errorf("update line item: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineItemNotFound
	}
	return nil
}

// DeleteLineItem удаляет позицию заказа.
func (t *pgTx) DeleteLineItem(ctx context.Context, id int64) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM line_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineItemNotFound
	}
	return nil
}

// DeleteLineItemsByOrder удаляет все позиции заказа и возвращает их количество.
func (t *pgTx) DeleteLineItemsByOrder(ctx context.Context, orderID int64) (int64, error) {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM line_items WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, fmt.Errorf("delete order line items: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// SumLineItems возвращает сумму подытогов позиций заказа.
func (t *pgTx) SumLineItems(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(subtotal), 0) FROM line_items WHERE order_id = $1`,
		orderID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum line items: %w", err)
	}
	return sum, nil
}
