package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
)

const productColumns = `id, product_name, price, status, description`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p      model.Product
		status string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &status, &p.Description); err != nil {
		return nil, err
	}
	p.Status = model.ProductStatus(status)
	return &p, nil
}

func getProduct(ctx context.Context, q querier, id int64) (*model.Product, error) {
	p, err := scanProduct(q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct создаёт позицию меню.
func (r *PostgresRepository) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`INSERT INTO products (product_name, price, status, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+productColumns,
		in.Name, in.Price, string(in.Status), in.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// ListProducts возвращает все позиции меню по алфавиту.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY product_name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// GetProduct возвращает позицию меню по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return getProduct(ctx, r.pool, id)
}

// UpdateProduct изменяет позицию меню.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products
		 SET product_name = $2, price = $3, status = $4, description = $5
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, in.Name, in.Price, string(in.Status), in.Description,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DeleteProduct удаляет позицию меню. Позиции, на которые ссылаются заказы, не удаляются.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d", ErrProductInUse, id)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
