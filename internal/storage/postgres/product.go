package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/ggshop/internal/domain/product"
)

const (
	productColumns = `p.id, p.name, p.category, p.price, p.old_price, COALESCE(p.discount, ''),
		p.rating, p.description, p.image, p.created_at,
		COALESCE((SELECT SUM(s.quantity) FROM product_stock s WHERE s.product_id = p.id), 0) = 0`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p ORDER BY p.created_at DESC, p.id DESC`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products p WHERE p.id = $1`

	listProductImagesSQL = `SELECT image_url FROM product_images
		WHERE product_id = $1 ORDER BY display_order`

	listProductColorsSQL = `SELECT color_name, color_class FROM product_colors
		WHERE product_id = $1 ORDER BY color_name`

	listProductStockSQL = `SELECT color_name, size, quantity FROM product_stock
		WHERE product_id = $1`

	upsertProductSQL = `INSERT INTO products
			(id, name, category, price, old_price, discount, rating, description, image)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			old_price = EXCLUDED.old_price,
			discount = EXCLUDED.discount,
			rating = EXCLUDED.rating,
			description = EXCLUDED.description,
			image = EXCLUDED.image`

	deleteProductImagesSQL = `DELETE FROM product_images WHERE product_id = $1`
	insertProductImageSQL  = `INSERT INTO product_images (product_id, image_url, display_order) VALUES ($1, $2, $3)`

	upsertProductColorSQL = `INSERT INTO product_colors (product_id, color_name, color_class) VALUES ($1, $2, $3)
		ON CONFLICT (product_id, color_name) DO UPDATE SET color_class = EXCLUDED.color_class`

	// Keeps BIGSERIAL ahead of explicitly seeded ids.
	syncProductSequenceSQL = `SELECT setval(pg_get_serial_sequence('products', 'id'),
		GREATEST((SELECT MAX(id) FROM products), 1))`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a product with its gallery, colors and stock matrix.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Detail, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	d := &product.Detail{Product: p, Stock: make(map[string]map[string]int)}

	batch := &pgx.Batch{}
	batch.Queue(listProductImagesSQL, id)
	batch.Queue(listProductColorsSQL, id)
	batch.Queue(listProductStockSQL, id)
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	if rows, err = br.Query(); err != nil {
		return nil, fmt.Errorf("listing images of product %d: %w", id, err)
	}
	if d.Images, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return nil, fmt.Errorf("listing images of product %d: %w", id, err)
	}

	if rows, err = br.Query(); err != nil {
		return nil, fmt.Errorf("listing colors of product %d: %w", id, err)
	}
	d.Colors, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Color, error) {
		var c product.Color
		err := row.Scan(&c.Name, &c.Class)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing colors of product %d: %w", id, err)
	}

	if rows, err = br.Query(); err != nil {
		return nil, fmt.Errorf("listing stock of product %d: %w", id, err)
	}
	var (
		color, size string
		qty         int
	)
	_, err = pgx.ForEachRow(rows, []any{&color, &size, &qty}, func() error {
		if d.Stock[color] == nil {
			d.Stock[color] = make(map[string]int)
		}
		d.Stock[color][size] = qty
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing stock of product %d: %w", id, err)
	}

	return d, nil
}

// Upsert writes a catalog product with its gallery, colors and stock in one
// transaction. Existing gallery images are replaced.
func (r *ProductRepository) Upsert(ctx context.Context, d product.Detail) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p := d.Product
		if _, err := tx.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Category, p.Price, p.OldPrice, p.Discount, p.Rating, p.Description, p.Image,
		); err != nil {
			return fmt.Errorf("upserting product %d: %w", p.ID, err)
		}

		if _, err := tx.Exec(ctx, deleteProductImagesSQL, p.ID); err != nil {
			return fmt.Errorf("clearing images of product %d: %w", p.ID, err)
		}
		for i, img := range d.Images {
			if _, err := tx.Exec(ctx, insertProductImageSQL, p.ID, img, i); err != nil {
				return fmt.Errorf("inserting image of product %d: %w", p.ID, err)
			}
		}

		for _, c := range d.Colors {
			if _, err := tx.Exec(ctx, upsertProductColorSQL, p.ID, c.Name, c.Class); err != nil {
				return fmt.Errorf("upserting color %q of product %d: %w", c.Name, p.ID, err)
			}
		}

		for color, sizes := range d.Stock {
			for size, qty := range sizes {
				if _, err := tx.Exec(ctx, upsertStockSQL, p.ID, color, size, qty); err != nil {
					return fmt.Errorf("upserting stock of product %d: %w", p.ID, err)
				}
			}
		}

		if _, err := tx.Exec(ctx, syncProductSequenceSQL); err != nil {
			return fmt.Errorf("syncing product sequence: %w", err)
		}
		return nil
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Price, &p.OldPrice, &p.Discount,
		&p.Rating, &p.Description, &p.Image, &p.CreatedAt, &p.OutOfStock,
	)
	return p, err
}
