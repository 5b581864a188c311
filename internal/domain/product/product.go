package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Category    string
	Price       decimal.Decimal
	OldPrice    decimal.NullDecimal
	Discount    string
	Rating      decimal.Decimal
	Description string
	Image       string
	CreatedAt   time.Time

	// OutOfStock is true when no variant of the product has stock left.
	OutOfStock bool
}

// Color is a sellable color of a product.
type Color struct {
	Name  string
	Class string
}

// Detail is a product with its gallery, colors and stock matrix.
type Detail struct {
	Product
	Images []string
	Colors []Color
	// Stock maps color name to size to available quantity.
	Stock map[string]map[string]int
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Detail, error)
}
