// Package checkout converts a user's cart into a committed order.
//
// A checkout runs as one transaction over the cart, the stock ledger and the
// order archive. Either the order exists, its stock is decremented and the
// cart is empty, or nothing changed.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/stock"
)

var (
	// ErrEmptyCart is returned when the caller has nothing to check out.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrTransaction wraps storage failures that aborted a checkout.
	ErrTransaction = errors.New("checkout transaction failed")
)

// State is the phase of a single checkout run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCommitting
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StockIssue describes one cart line that stock cannot cover.
type StockIssue struct {
	ProductID   int64
	ProductName string
	Color       string
	Size        string
	Requested   int
	Available   int
}

// InsufficientStockError lists every cart line that failed the stock check.
type InsufficientStockError struct {
	Issues []StockIssue
}

func (e *InsufficientStockError) Error() string {
	var b strings.Builder
	b.WriteString("insufficient stock: ")
	for i, is := range e.Issues {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%s, %s) requested %d, %d available",
			is.ProductName, is.Color, is.Size, is.Requested, is.Available)
	}
	return b.String()
}

// Line is a cart line joined with the live product price and stock.
type Line struct {
	CartItemID  int64
	Key         stock.VariantKey
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Available   int
}

// Subtotal returns quantity times unit price rounded to cents.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Tx is the set of writes a checkout performs inside one transaction.
type Tx interface {
	// CartLines returns the user's cart lines and locks them until the
	// transaction ends.
	CartLines(ctx context.Context, userID int64) ([]Line, error)
	// CreateOrder inserts o and fills its ID and timestamps.
	CreateOrder(ctx context.Context, o *order.Order) error
	// AddOrderItem inserts it and fills its ID.
	AddOrderItem(ctx context.Context, it *order.Item) error
	stock.Decrementer
	// ClearCart deletes every cart line of the user.
	ClearCart(ctx context.Context, userID int64) error
}

// TxManager runs fn in a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Result summarizes a committed checkout.
type Result struct {
	OrderID       int64
	ItemCount     int
	TotalQuantity int
	Total         decimal.Decimal
}
