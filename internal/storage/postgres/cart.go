package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ggshop/internal/domain/cart"
	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
)

const (
	cartItemColumns = `id, user_id, product_id, color_name, size, quantity, created_at`

	findCartItemSQL = `SELECT ` + cartItemColumns + ` FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND color_name = $3 AND size = $4`

	getCartItemSQL = `SELECT ` + cartItemColumns + ` FROM cart_items
		WHERE user_id = $1 AND id = $2`

	insertCartItemSQL = `INSERT INTO cart_items (user_id, product_id, color_name, size, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	updateCartItemSQL = `UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND id = $2`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`

	listCartSQL = `SELECT ci.id, ci.user_id, ci.product_id, ci.color_name, ci.size, ci.quantity, ci.created_at,
			p.name, p.price, p.image, COALESCE(ps.quantity, 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_stock ps
			ON ps.product_id = ci.product_id AND ps.color_name = ci.color_name AND ps.size = ci.size
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC, ci.id DESC`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// FindByKey returns the user's line for key.
func (r *CartRepository) FindByKey(ctx context.Context, userID int64, key stock.VariantKey) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, findCartItemSQL, userID, key.ProductID, key.Color, key.Size)
	if err != nil {
		return nil, fmt.Errorf("finding cart item %s: %w", key, err)
	}
	return collectCartItem(rows)
}

// Get returns the user's line by id.
func (r *CartRepository) Get(ctx context.Context, userID, itemID int64) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	return collectCartItem(rows)
}

// Insert stores a new line and fills its ID and CreatedAt.
func (r *CartRepository) Insert(ctx context.Context, item *cart.Item) error {
	k := item.Key
	err := r.pool.QueryRow(ctx, insertCartItemSQL, item.UserID, k.ProductID, k.Color, k.Size, item.Quantity).
		Scan(&item.ID, &item.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isPgError(err, codeForeignKeyViolation):
		return product.ErrNotFound
	case isPgError(err, codeUniqueViolation):
		return cart.ErrDuplicate
	default:
		return fmt.Errorf("inserting cart item %s: %w", k, err)
	}
}

// SetQuantity updates the quantity of one of the user's lines.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, itemID int64, qty int) error {
	tag, err := r.pool.Exec(ctx, updateCartItemSQL, userID, itemID, qty)
	if err != nil {
		return fmt.Errorf("updating cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Delete removes one of the user's lines if present.
func (r *CartRepository) Delete(ctx context.Context, userID, itemID int64) error {
	if _, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, itemID); err != nil {
		return fmt.Errorf("deleting cart item %d: %w", itemID, err)
	}
	return nil
}

// List returns the user's lines with product data and live stock.
func (r *CartRepository) List(ctx context.Context, userID int64) ([]cart.View, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart of user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.View, error) {
		var v cart.View
		err := row.Scan(
			&v.ID, &v.UserID, &v.Key.ProductID, &v.Key.Color, &v.Key.Size, &v.Quantity, &v.CreatedAt,
			&v.ProductName, &v.Price, &v.Image, &v.AvailableStock,
		)
		return v, err
	})
}

func collectCartItem(rows pgx.Rows) (*cart.Item, error) {
	it, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.UserID, &it.Key.ProductID, &it.Key.Color, &it.Key.Size, &it.Quantity, &it.CreatedAt)
		return it, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cart item: %w", err)
	}
	return &it, nil
}
