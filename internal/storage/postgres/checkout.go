package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ggshop/internal/domain/checkout"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/stock"
)

const (
	// Locks the caller's cart rows so a concurrent checkout of the same
	// cart waits for this one.
	lockCartLinesSQL = `SELECT ci.id, ci.product_id, ci.color_name, ci.size, ci.quantity,
			p.name, p.price, COALESCE(ps.quantity, 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_stock ps
			ON ps.product_id = ci.product_id AND ps.color_name = ci.color_name AND ps.size = ci.size
		WHERE ci.user_id = $1
		ORDER BY ci.id
		FOR UPDATE OF ci`

	insertOrderSQL = `INSERT INTO orders (user_id, customer_name, customer_email, total_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	insertOrderItemSQL = `INSERT INTO order_items
			(order_id, product_id, product_name, color_name, size, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ checkout.TxManager = (*CheckoutRepository)(nil)

// CheckoutRepository runs checkout transactions.
type CheckoutRepository struct {
	pool *pgxpool.Pool
}

// NewCheckoutRepository returns a CheckoutRepository that uses the given pool.
func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction. Stock correctness comes
// from the conditional decrement, not from the isolation level: a
// concurrent sale makes the decrement fail with InsufficientStock instead
// of a serialization error.
func (r *CheckoutRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &checkoutTx{tx: tx})
	})
}

type checkoutTx struct {
	tx pgx.Tx
}

func (t *checkoutTx) CartLines(ctx context.Context, userID int64) ([]checkout.Line, error) {
	rows, err := t.tx.Query(ctx, lockCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("locking cart of user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (checkout.Line, error) {
		var l checkout.Line
		err := row.Scan(
			&l.CartItemID, &l.Key.ProductID, &l.Key.Color, &l.Key.Size, &l.Quantity,
			&l.ProductName, &l.UnitPrice, &l.Available,
		)
		return l, err
	})
}

func (t *checkoutTx) CreateOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL, o.UserID, o.CustomerName, o.CustomerEmail, o.Total, o.Status.String()).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (t *checkoutTx) AddOrderItem(ctx context.Context, it *order.Item) error {
	err := t.tx.QueryRow(ctx, insertOrderItemSQL,
		it.OrderID, it.ProductID, it.ProductName, it.Color, it.Size, it.Quantity, it.Price, it.Subtotal,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting item of order %d: %w", it.OrderID, err)
	}
	return nil
}

func (t *checkoutTx) DecrementForOrder(ctx context.Context, key stock.VariantKey, amount int) error {
	tag, err := t.tx.Exec(ctx, decrementStockSQL, key.ProductID, key.Color, key.Size, amount)
	if err != nil {
		return fmt.Errorf("decrementing stock %s: %w", key, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	available, err := quantity(ctx, t.tx, key)
	if err != nil {
		return err
	}
	return &stock.InsufficientStockError{Key: key, Requested: amount, Available: available}
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID int64) error {
	if _, err := t.tx.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart of user %d: %w", userID, err)
	}
	return nil
}
