package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

var ErrOrderNotFound = errors.New("order not found")

type DB struct {
	Bun *bun.DB
}

// CreateOrder inserts the order and all of its items in one transaction.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(order.Items) == 0 {
			return nil
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

// GetOrderByID loads an order with its items.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return d.getOrder(ctx, "o.id = ?", id)
}

// GetOrderBySessionID loads the order correlated to a payment session.
func (d *DB) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return d.getOrder(ctx, "o.stripe_session_id = ?", sessionID)
}

func (d *DB) getOrder(ctx context.Context, where string, arg interface{}) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().
		Model(order).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("oi.id ASC")
		}).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// SetPaymentSession stores the provider session id on the order.
func (d *DB) SetPaymentSession(ctx context.Context, orderID, sessionID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set payment session on order %s: %w", orderID, err)
	}
	return requireAffected(res, orderID)
}

// TransitionStatus moves an order from one of the allowed states to status.
// It reports false when the order exists but was not in an allowed state.
func (d *DB) TransitionStatus(ctx context.Context, orderID, status string, from ...string) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", orderID)
	if len(from) > 0 {
		q = q.Where("status IN (?)", bun.In(from))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update order %s to %s: %w", orderID, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	exists, err := d.Bun.NewSelect().Model((*models.Order)(nil)).Where("id = ?", orderID).Exists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrOrderNotFound
	}
	return false, nil
}

// ListStalePending returns pending orders created before cutoff that never
// received a payment session, oldest first.
func (d *DB) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Order, error) {
	orders := make([]*models.Order, 0)
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("o.status = ?", models.OrderStatusPending).
		Where("o.stripe_session_id IS NULL").
		Where("o.created_at < ?", cutoff.UTC()).
		Order("o.created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale orders: %w", err)
	}
	return orders, nil
}

func requireAffected(res sql.Result, orderID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return nil
}
