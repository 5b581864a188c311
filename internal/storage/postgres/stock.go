package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
)

const (
	getStockSQL = `SELECT quantity FROM product_stock
		WHERE product_id = $1 AND color_name = $2 AND size = $3`

	upsertStockSQL = `INSERT INTO product_stock (product_id, color_name, size, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, color_name, size) DO UPDATE SET quantity = EXCLUDED.quantity`

	adjustStockSQL = `UPDATE product_stock
		SET quantity = LEAST(2147483647, GREATEST(0, quantity::bigint + $4::bigint))::integer
		WHERE product_id = $1 AND color_name = $2 AND size = $3
		RETURNING quantity`

	listStockSQL = `SELECT product_id, color_name, size, quantity FROM product_stock
		WHERE product_id = $1 ORDER BY color_name COLLATE "C", size COLLATE "C"`

	// The WHERE clause re-checks availability under the row lock taken by
	// the UPDATE; no row means the sale would drive stock negative.
	decrementStockSQL = `UPDATE product_stock SET quantity = quantity - $4
		WHERE product_id = $1 AND color_name = $2 AND size = $3 AND quantity >= $4`
)

var _ stock.Repository = (*StockRepository)(nil)

// StockRepository implements stock.Repository backed by PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a StockRepository that uses the given pool.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// Quantity returns the live quantity of key, 0 when no entry exists.
func (r *StockRepository) Quantity(ctx context.Context, key stock.VariantKey) (int, error) {
	return quantity(ctx, r.pool, key)
}

// Set upserts the entry for key.
func (r *StockRepository) Set(ctx context.Context, key stock.VariantKey, qty int) error {
	_, err := r.pool.Exec(ctx, upsertStockSQL, key.ProductID, key.Color, key.Size, qty)
	if err != nil {
		if isPgError(err, codeForeignKeyViolation) {
			return product.ErrNotFound
		}
		return fmt.Errorf("setting stock %s: %w", key, err)
	}
	return nil
}

// Adjust applies delta to an existing entry in one statement.
func (r *StockRepository) Adjust(ctx context.Context, key stock.VariantKey, delta int) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, adjustStockSQL, key.ProductID, key.Color, key.Size, delta).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, stock.ErrNotFound
		}
		return 0, fmt.Errorf("adjusting stock %s: %w", key, err)
	}
	return qty, nil
}

// ForProduct returns every entry of a product.
func (r *StockRepository) ForProduct(ctx context.Context, productID int64) ([]stock.Entry, error) {
	rows, err := r.pool.Query(ctx, listStockSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing stock of product %d: %w", productID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (stock.Entry, error) {
		var e stock.Entry
		err := row.Scan(&e.Key.ProductID, &e.Key.Color, &e.Key.Size, &e.Quantity)
		return e, err
	})
}

func quantity(ctx context.Context, q querier, key stock.VariantKey) (int, error) {
	var qty int
	err := q.QueryRow(ctx, getStockSQL, key.ProductID, key.Color, key.Size).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("getting stock %s: %w", key, err)
	}
	return qty, nil
}
