package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
)

// AddProduct stores a catalog product and its stock matrix. A zero ID is
// assigned the next free one, which is returned.
func (s *Store) AddProduct(d product.Detail) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == 0 {
		s.st.nextProduct++
		d.ID = s.st.nextProduct
	} else {
		s.st.nextProduct = max(s.st.nextProduct, d.ID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	for color, sizes := range d.Stock {
		for size, qty := range sizes {
			s.st.stock[stock.VariantKey{ProductID: d.ID, Color: color, Size: size}] = qty
		}
	}
	d.Stock = nil
	s.st.products[d.ID] = &d
	return d.ID
}

// RemoveProduct deletes a product with its stock and cart lines. Order
// lines keep their snapshots and lose the product reference.
func (s *Store) RemoveProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.st.products, id)
	for k := range s.st.stock {
		if k.ProductID == id {
			delete(s.st.stock, k)
		}
	}
	s.st.cart = slices.DeleteFunc(s.st.cart, func(it cartItem) bool { return it.Key.ProductID == id })
	for i := range s.st.items {
		if s.st.items[i].ProductID == id {
			s.st.items[i].ProductID = 0
		}
	}
}

func (st *state) totalStock(productID int64) int {
	total := 0
	for k, qty := range st.stock {
		if k.ProductID == productID {
			total += qty
		}
	}
	return total
}

// List returns every product, newest first.
func (s Products) List(_ context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]product.Product, 0, len(s.st.products))
	for _, d := range s.st.products {
		p := d.Product
		p.OutOfStock = s.st.totalStock(p.ID) == 0
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b product.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// GetByID returns a product with its gallery, colors and stock matrix.
func (s Products) GetByID(_ context.Context, id int64) (*product.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.st.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	out := *d
	out.Images = slices.Clone(d.Images)
	out.Colors = slices.Clone(d.Colors)
	out.Stock = make(map[string]map[string]int)
	for k, qty := range s.st.stock {
		if k.ProductID != id {
			continue
		}
		if out.Stock[k.Color] == nil {
			out.Stock[k.Color] = make(map[string]int)
		}
		out.Stock[k.Color][k.Size] = qty
	}
	return &out, nil
}
