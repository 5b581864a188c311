package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/xenking/ggshop/internal/domain/checkout"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/stock"
)

var _ checkout.TxManager = (*Store)(nil)

// WithinTx runs fn against a private copy of the state and publishes the
// copy only when fn succeeds. Transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) CartLines(_ context.Context, userID int64) ([]checkout.Line, error) {
	var lines []checkout.Line
	for _, it := range t.st.cart {
		if it.UserID != userID {
			continue
		}
		l := checkout.Line{
			CartItemID: it.ID,
			Key:        it.Key,
			Quantity:   it.Quantity,
			Available:  t.st.stock[it.Key],
		}
		if p, ok := t.st.products[it.Key.ProductID]; ok {
			l.ProductName = p.Name
			l.UnitPrice = p.Price
		}
		lines = append(lines, l)
	}
	slices.SortFunc(lines, func(a, b checkout.Line) int { return cmp.Compare(a.CartItemID, b.CartItemID) })
	return lines, nil
}

func (t *tx) CreateOrder(_ context.Context, o *order.Order) error {
	t.st.nextOrder++
	o.ID = t.st.nextOrder
	o.CreatedAt = t.now()
	o.UpdatedAt = o.CreatedAt
	t.st.orders = append(t.st.orders, *o)
	return nil
}

func (t *tx) AddOrderItem(_ context.Context, it *order.Item) error {
	t.st.nextItem++
	it.ID = t.st.nextItem
	it.CreatedAt = t.now()
	t.st.items = append(t.st.items, *it)
	return nil
}

func (t *tx) DecrementForOrder(_ context.Context, key stock.VariantKey, amount int) error {
	return t.st.decrement(key, amount)
}

func (t *tx) ClearCart(_ context.Context, userID int64) error {
	t.st.cart = slices.DeleteFunc(t.st.cart, func(it cartItem) bool { return it.UserID == userID })
	return nil
}
