// Package order is the archive of committed orders. Orders are written only
// by checkout; this package reads them back.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order does not exist or belongs to
// another user.
var ErrNotFound = errors.New("order not found")

// Status is the lifecycle state of an order.
type Status int

const (
	StatusPending Status = iota
	StatusProcessing
	StatusCompleted
	StatusCancelled
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusProcessing: "processing",
	StatusCompleted:  "completed",
	StatusCancelled:  "cancelled",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus maps a stored status value onto a Status.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, errors.Errorf("unknown order status %q", s)
}

// Order is a committed purchase. CustomerName and CustomerEmail are taken
// from the buyer's identity at checkout time.
type Order struct {
	ID            int64
	UserID        int64
	CustomerName  string
	CustomerEmail string
	Total         decimal.Decimal
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is an order line. Name and Price are snapshots taken at checkout;
// ProductID is 0 once the product has been removed from the catalog.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Color       string
	Size        string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time

	// Image is the current catalog image of the product, if it still exists.
	Image string
}

// Summary is an order with aggregate line counts.
type Summary struct {
	Order
	ItemCount     int
	TotalQuantity int
}

// Detail is an order with its lines.
type Detail struct {
	Order
	Items []Item
}

// Repository reads archived orders.
type Repository interface {
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]Summary, error)
	// GetForUser returns the order with its items or ErrNotFound when it
	// does not belong to userID.
	GetForUser(ctx context.Context, userID, orderID int64) (*Detail, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]Summary, error)
}
