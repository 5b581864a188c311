package order

import (
	"context"
	"fmt"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// Service serves order history reads.
type Service struct {
	orders Repository
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// ListForUser returns the caller's orders with item counts, newest first.
func (s *Service) ListForUser(ctx context.Context, id auth.Identity) ([]Summary, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", id.UserID, err)
	}
	return orders, nil
}

// Detail returns one of the caller's orders with its lines.
func (s *Service) Detail(ctx context.Context, id auth.Identity, orderID int64) (*Detail, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}
	if err := validation.PositiveID("orderId", orderID); err != nil {
		return nil, err
	}
	d, err := s.orders.GetForUser(ctx, id.UserID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return d, nil
}

// ListAll returns every order with its buyer. Admin only.
func (s *Service) ListAll(ctx context.Context, id auth.Identity) ([]Summary, error) {
	if err := id.RequireAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}
