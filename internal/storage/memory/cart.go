package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/ggshop/internal/domain/cart"
	"github.com/xenking/ggshop/internal/domain/stock"
)

type cartItem = cart.Item

// FindByKey returns the user's line for key.
func (s Cart) FindByKey(_ context.Context, userID int64, key stock.VariantKey) (*cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.st.cart {
		if it.UserID == userID && it.Key == key {
			return &it, nil
		}
	}
	return nil, cart.ErrNotFound
}

// Get returns the user's line by id.
func (s Cart) Get(_ context.Context, userID, itemID int64) (*cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.st.cartIndex(userID, itemID); i >= 0 {
		it := s.st.cart[i]
		return &it, nil
	}
	return nil, cart.ErrNotFound
}

// Insert stores a new line. A second line for the same user and key is
// rejected, as the unique constraint does in PostgreSQL.
func (s Cart) Insert(_ context.Context, item *cart.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.st.cart {
		if it.UserID == item.UserID && it.Key == item.Key {
			return cart.ErrDuplicate
		}
	}
	s.st.nextCartItem++
	item.ID = s.st.nextCartItem
	item.CreatedAt = s.now()
	s.st.cart = append(s.st.cart, *item)
	return nil
}

// SetQuantity updates the quantity of one of the user's lines.
func (s Cart) SetQuantity(_ context.Context, userID, itemID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.st.cartIndex(userID, itemID)
	if i < 0 {
		return cart.ErrNotFound
	}
	s.st.cart[i].Quantity = qty
	return nil
}

// Delete removes one of the user's lines if present.
func (s Cart) Delete(_ context.Context, userID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.st.cartIndex(userID, itemID); i >= 0 {
		s.st.cart = slices.Delete(s.st.cart, i, i+1)
	}
	return nil
}

// List returns the user's lines with product data and live stock, newest
// first.
func (s Cart) List(_ context.Context, userID int64) ([]cart.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []cart.View
	for _, it := range s.st.cart {
		if it.UserID != userID {
			continue
		}
		v := cart.View{Item: it, AvailableStock: s.st.stock[it.Key]}
		if p, ok := s.st.products[it.Key.ProductID]; ok {
			v.ProductName = p.Name
			v.Price = p.Price
			v.Image = p.Image
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b cart.View) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (st *state) cartIndex(userID, itemID int64) int {
	return slices.IndexFunc(st.cart, func(it cart.Item) bool {
		return it.UserID == userID && it.ID == itemID
	})
}
