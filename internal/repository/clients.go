package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
)

const clientColumns = `id, client_name, last_name, phone, email`

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.Name, &c.LastName, &c.Phone, &c.Email); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient создаёт клиента.
func (r *PostgresRepository) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`INSERT INTO clients (client_name, last_name, phone, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+clientColumns,
		in.Name, in.LastName, in.Phone, in.Email,
	))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// ListClients возвращает всех клиентов, отсортированных по фамилии.
func (r *PostgresRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY last_name, client_name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return clients, nil
}

// GetClient возвращает клиента по идентификатору.
func (r *PostgresRepository) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// UpdateClient изменяет данные клиента.
func (r *PostgresRepository) UpdateClient(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`UPDATE clients
		 SET client_name = $2, last_name = $3, phone = $4, email = $5
		 WHERE id = $1
		 RETURNING `+clientColumns,
		id, in.Name, in.LastName, in.Phone, in.Email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// DeleteClient удаляет клиента. Клиенты с заказами не удаляются.
func (r *PostgresRepository) DeleteClient(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: client %d", ErrClientInUse, id)
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
