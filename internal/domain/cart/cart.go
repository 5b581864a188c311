// Package cart holds per-user pending purchase lines.
//
// Every mutation is checked against the live stock ledger, but the check is
// soft: stock may drop after an item was added, so readers recompute
// availability and checkout re-validates everything.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/ggshop/internal/domain/stock"
)

// ErrNotFound is returned when a cart item does not exist or belongs to
// another user.
var ErrNotFound = errors.New("cart item not found")

// ErrDuplicate is returned by Repository.Insert when the user already has a
// line for the key.
var ErrDuplicate = errors.New("cart already holds this variant")

// Item is one cart line. A user has at most one line per variant key.
type Item struct {
	ID        int64
	UserID    int64
	Key       stock.VariantKey
	Quantity  int
	CreatedAt time.Time
}

// View is a cart line enriched with catalog data and live stock.
type View struct {
	Item
	ProductName    string
	Price          decimal.Decimal
	Image          string
	AvailableStock int
	StockAvailable bool
	MaxQuantity    int
}

// Availability is the answer to a stock check.
type Availability struct {
	Available    bool
	CurrentStock int
}

// Repository persists cart lines. Every method is scoped to a user.
type Repository interface {
	// FindByKey returns the user's line for key or ErrNotFound.
	FindByKey(ctx context.Context, userID int64, key stock.VariantKey) (*Item, error)
	// Get returns the user's line by id or ErrNotFound.
	Get(ctx context.Context, userID, itemID int64) (*Item, error)
	// Insert stores a new line and fills its ID and CreatedAt. It returns
	// ErrDuplicate when the user already has a line for the key.
	Insert(ctx context.Context, item *Item) error
	SetQuantity(ctx context.Context, userID, itemID int64, qty int) error
	// Delete removes the line if it exists and belongs to the user.
	Delete(ctx context.Context, userID, itemID int64) error
	// List returns the user's lines, newest first, with product data and
	// AvailableStock populated.
	List(ctx context.Context, userID int64) ([]View, error)
}

// StockReader reads live quantities from the ledger.
type StockReader interface {
	Quantity(ctx context.Context, key stock.VariantKey) (int, error)
}
