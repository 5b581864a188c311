package memory

import (
	"context"
	"slices"

	"github.com/xenking/ggshop/internal/domain/stock"
)

// Quantity returns the ledger quantity of key, 0 when missing.
func (s Stock) Quantity(_ context.Context, key stock.VariantKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stock[key], nil
}

// Set upserts a ledger entry.
func (s Stock) Set(_ context.Context, key stock.VariantKey, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[key] = qty
	return nil
}

// Adjust applies delta to an existing entry, flooring at zero.
func (s Stock) Adjust(_ context.Context, key stock.VariantKey, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.st.stock[key]
	if !ok {
		return 0, stock.ErrNotFound
	}
	next := stock.ApplyDelta(cur, delta)
	s.st.stock[key] = next
	return next, nil
}

// ForProduct returns a product's entries ordered by color and size.
func (s Stock) ForProduct(_ context.Context, productID int64) ([]stock.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []stock.Entry
	for k, qty := range s.st.stock {
		if k.ProductID == productID {
			out = append(out, stock.Entry{Key: k, Quantity: qty})
		}
	}
	slices.SortFunc(out, func(a, b stock.Entry) int { return a.Key.Compare(b.Key) })
	return out, nil
}

// decrement lowers key by amount or reports what is left.
func (st *state) decrement(key stock.VariantKey, amount int) error {
	cur := st.stock[key]
	if cur < amount {
		return &stock.InsufficientStockError{Key: key, Requested: amount, Available: cur}
	}
	st.stock[key] = cur - amount
	return nil
}
