// Package stock is the ledger of available quantity per sellable variant.
//
// The ledger is the source of truth for availability. Reads are never cached:
// every cart mutation and every checkout asks the store for the live value.
// Quantities never go below zero; the only path that lowers stock for a sale
// is DecrementForOrder, which runs inside the checkout transaction and
// re-checks availability at write time.
package stock

import (
	"cmp"
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/ggshop/internal/domain/validation"
)

// ErrNotFound is returned when a variant key has no ledger entry.
var ErrNotFound = errors.New("stock entry not found")

// VariantKey identifies a sellable unit: a product in one color and size.
type VariantKey struct {
	ProductID int64
	Color     string
	Size      string
}

func (k VariantKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.ProductID, k.Color, k.Size)
}

// Validate rejects incomplete keys.
func (k VariantKey) Validate() error {
	if err := validation.PositiveID("productId", k.ProductID); err != nil {
		return err
	}
	if err := validation.Required("colorName", k.Color); err != nil {
		return err
	}
	return validation.Required("size", k.Size)
}

// Compare orders keys by product, color, then size.
func (k VariantKey) Compare(o VariantKey) int {
	if c := cmp.Compare(k.ProductID, o.ProductID); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Color, o.Color); c != 0 {
		return c
	}
	return cmp.Compare(k.Size, o.Size)
}

// Entry is a ledger row.
type Entry struct {
	Key      VariantKey
	Quantity int
}

// InsufficientStockError reports that a variant cannot cover a requested
// quantity. InCart is set when the request was merged with an existing cart
// line.
type InsufficientStockError struct {
	Key       VariantKey
	Requested int
	Available int
	InCart    int
}

func (e *InsufficientStockError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("insufficient stock for %s: %d already in cart, %d available",
			e.Key, e.InCart, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, %d available",
		e.Key, e.Requested, e.Available)
}

// ApplyDelta returns current+delta clamped to [0, validation.MaxQuantity]
// without overflowing.
func ApplyDelta(current, delta int) int {
	current = min(max(current, 0), validation.MaxQuantity)
	if delta > validation.MaxQuantity-current {
		return validation.MaxQuantity
	}
	if delta < -current {
		return 0
	}
	return current + delta
}

// Repository persists ledger entries.
type Repository interface {
	// Quantity returns the available quantity, or 0 when no entry exists.
	Quantity(ctx context.Context, key VariantKey) (int, error)
	// Set upserts an entry.
	Set(ctx context.Context, key VariantKey, qty int) error
	// Adjust atomically applies ApplyDelta to an existing entry and returns
	// the new quantity. Returns ErrNotFound when the entry is missing.
	Adjust(ctx context.Context, key VariantKey, delta int) (int, error)
	// ForProduct returns every entry of a product ordered by color and size.
	ForProduct(ctx context.Context, productID int64) ([]Entry, error)
}

// Decrementer lowers stock for a sale. Implementations must re-check
// availability in the same statement that writes, and fail with
// *InsufficientStockError instead of going negative.
type Decrementer interface {
	DecrementForOrder(ctx context.Context, key VariantKey, amount int) error
}
