package product

import (
	"context"
	"fmt"

	"github.com/xenking/ggshop/internal/domain/validation"
)

// Service serves catalog reads. The catalog is owned elsewhere; nothing here
// writes products.
type Service struct {
	products Repository
}

// NewService creates a catalog Service.
func NewService(products Repository) *Service {
	return &Service{products: products}
}

// List returns all products, newest first, flagged when fully out of stock.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns a product with gallery, colors and stock per color and size.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	if err := validation.PositiveID("id", id); err != nil {
		return nil, err
	}

	d, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	total := 0
	for _, sizes := range d.Stock {
		for _, qty := range sizes {
			total += qty
		}
	}
	d.OutOfStock = total == 0
	return d, nil
}
