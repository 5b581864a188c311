package stock

import (
	"context"
	"fmt"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// Service exposes ledger reads and the admin stock operations.
type Service struct {
	entries Repository
}

// NewService creates a ledger Service.
func NewService(entries Repository) *Service {
	return &Service{entries: entries}
}

// Quantity returns the live available quantity for key, 0 if unknown.
func (s *Service) Quantity(ctx context.Context, key VariantKey) (int, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}
	qty, err := s.entries.Quantity(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get stock %s: %w", key, err)
	}
	return qty, nil
}

// Set overwrites the quantity of key, creating the entry when missing.
func (s *Service) Set(ctx context.Context, id auth.Identity, key VariantKey, qty int) error {
	if err := id.RequireAdmin(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}
	if err := validation.NonNegativeQuantity("quantity", qty); err != nil {
		return err
	}
	if err := s.entries.Set(ctx, key, qty); err != nil {
		return fmt.Errorf("set stock %s: %w", key, err)
	}
	return nil
}

// Adjust adds delta (which may be negative) to an existing entry, clamping
// the result to [0, validation.MaxQuantity], and returns the new quantity.
func (s *Service) Adjust(ctx context.Context, id auth.Identity, key VariantKey, delta int) (int, error) {
	if err := id.RequireAdmin(); err != nil {
		return 0, err
	}
	if err := key.Validate(); err != nil {
		return 0, err
	}
	if err := validation.QuantityDelta("adjustment", delta); err != nil {
		return 0, err
	}
	qty, err := s.entries.Adjust(ctx, key, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust stock %s: %w", key, err)
	}
	return qty, nil
}

// ForProduct returns the ledger entries of every variant of a product.
func (s *Service) ForProduct(ctx context.Context, productID int64) ([]Entry, error) {
	if err := validation.PositiveID("productId", productID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock of product %d: %w", productID, err)
	}
	return entries, nil
}
