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

const orderColumns = `id, ordered_at, total, payment_method, status, client_id`

func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	var (
		o       model.Order
		payment string
		status  string
	)
	dest := append([]any{&o.ID, &o.Date, &o.Total, &payment, &status, &o.ClientID}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.PaymentMethod = model.PaymentMethod(payment)
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// CreateOrder создаёт заказ с нулевой суммой.
func (r *PostgresRepository) CreateOrder(ctx context.Context, in model.OrderInput) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`INSERT INTO orders (ordered_at, total, payment_method, status, client_id)
		 VALUES ($1, 0, $2, $3, $4)
		 RETURNING `+orderColumns,
		in.Date, string(in.PaymentMethod), string(in.Status), in.ClientID,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// ListOrders возвращает заказы от новых к старым.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY ordered_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrderDetails возвращает заказ с именем клиента и позициями.
func (r *PostgresRepository) GetOrderDetails(ctx context.Context, id int64) (*model.OrderDetails, error) {
	var clientName string
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT o.id, o.ordered_at, o.total, o.payment_method, o.status, o.client_id,
		        c.client_name || ' ' || c.last_name
		 FROM orders o
		 JOIN clients c ON c.id = o.client_id
		 WHERE o.id = $1`,
		id,
	), &clientName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := listLineItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}

	return &model.OrderDetails{
		Order:      *o,
		ClientName: clientName,
		Items:      items,
	}, nil
}

// UpdateOrder изменяет дату, клиента, способ оплаты и статус заказа. Сумма не меняется.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, id int64, in model.OrderInput) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`UPDATE orders
		 SET ordered_at = $2, payment_method = $3, status = $4, client_id = $5
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, in.Date, string(in.PaymentMethod), string(in.Status), in.ClientID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// LockOrder возвращает заказ и блокирует его строку до конца транзакции.
func (t *pgTx) LockOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

// SetOrderTotal сохраняет сумму заказа.
func (t *pgTx) SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE orders SET total = $2 WHERE id = $1`, orderID, total)
	if err != nil {
		if isNumericOutOfRange(err) {
			return fmt.Errorf("update order total: %w", service.ErrAmountOutOfRange)
		}
		return fmt.Errorf("update order total: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder удаляет заказ.
func (t *pgTx) DeleteOrder(ctx context.Context, id int64) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetProduct возвращает позицию меню в рамках транзакции.
func (t *pgTx) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return getProduct(ctx, t.tx, id)
}
