package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ggshop/internal/domain/order"
)

const (
	orderColumns = `o.id, o.user_id, o.customer_name, o.customer_email, o.total_amount, o.status,
		o.created_at, o.updated_at`

	summaryFromSQL = `SELECT ` + orderColumns + `,
			COUNT(oi.id), COALESCE(SUM(oi.quantity), 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id`

	listUserOrdersSQL = summaryFromSQL + `
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`

	listAllOrdersSQL = summaryFromSQL + `
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`

	getUserOrderSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.id = $1 AND o.user_id = $2`

	listOrderItemsSQL = `SELECT oi.id, oi.order_id, COALESCE(oi.product_id, 0), oi.product_name,
			oi.color_name, oi.size, oi.quantity, oi.price, oi.subtotal, oi.created_at,
			COALESCE(p.image, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// ListByUser returns the user's orders with line counts, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, listUserOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanSummary)
}

// ListAll returns every order with line counts, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanSummary)
}

// GetForUser returns one of the user's orders with its lines.
func (r *OrderRepository) GetForUser(ctx context.Context, userID, orderID int64) (*order.Detail, error) {
	rows, err := r.pool.Query(ctx, getUserOrderSQL, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		err := scanOrder(row, &o)
		return o, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}

	rows, err = r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %d: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Color, &it.Size, &it.Quantity, &it.Price, &it.Subtotal, &it.CreatedAt,
			&it.Image,
		)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing items of order %d: %w", orderID, err)
	}

	return &order.Detail{Order: o, Items: items}, nil
}

func scanOrder(row pgx.Row, o *order.Order, extra ...any) error {
	var status string
	dest := append([]any{
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.Total, &status,
		&o.CreatedAt, &o.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	s, err := order.ParseStatus(status)
	if err != nil {
		return err
	}
	o.Status = s
	return nil
}

func scanSummary(row pgx.CollectableRow) (order.Summary, error) {
	var s order.Summary
	err := scanOrder(row, &s.Order, &s.ItemCount, &s.TotalQuantity)
	return s, err
}
