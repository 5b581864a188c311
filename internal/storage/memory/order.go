package memory

import (
	"context"
	"slices"

	"github.com/xenking/ggshop/internal/domain/order"
)

// ListByUser returns the user's orders, newest first.
func (s Orders) ListByUser(_ context.Context, userID int64) ([]order.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.summaries(func(o order.Order) bool { return o.UserID == userID }), nil
}

// GetForUser returns one of the user's orders with its lines.
func (s Orders) GetForUser(_ context.Context, userID, orderID int64) (*order.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.st.orders, func(o order.Order) bool {
		return o.ID == orderID && o.UserID == userID
	})
	if i < 0 {
		return nil, order.ErrNotFound
	}
	d := &order.Detail{Order: s.st.orders[i]}
	for _, it := range s.st.items {
		if it.OrderID != orderID {
			continue
		}
		if p, ok := s.st.products[it.ProductID]; ok {
			it.Image = p.Image
		}
		d.Items = append(d.Items, it)
	}
	return d, nil
}

// ListAll returns every order, newest first.
func (s Orders) ListAll(_ context.Context) ([]order.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.summaries(func(order.Order) bool { return true }), nil
}

func (st *state) summaries(keep func(order.Order) bool) []order.Summary {
	out := []order.Summary{}
	for i := len(st.orders) - 1; i >= 0; i-- {
		o := st.orders[i]
		if !keep(o) {
			continue
		}
		sum := order.Summary{Order: o}
		for _, it := range st.items {
			if it.OrderID == o.ID {
				sum.ItemCount++
				sum.TotalQuantity += it.Quantity
			}
		}
		out = append(out, sum)
	}
	return out
}
