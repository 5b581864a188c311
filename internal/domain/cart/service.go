package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/stock"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// Service implements cart operations.
type Service struct {
	items  Repository
	ledger StockReader
}

// NewService creates a cart Service.
func NewService(items Repository, ledger StockReader) *Service {
	return &Service{items: items, ledger: ledger}
}

// AddItem puts quantity units of key in the caller's cart. An existing line
// for the same key is merged and the merged total is checked against stock.
func (s *Service) AddItem(ctx context.Context, id auth.Identity, key stock.VariantKey, qty int) (*Item, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := validation.PositiveQuantity("quantity", qty); err != nil {
		return nil, err
	}

	available, err := s.ledger.Quantity(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get stock %s: %w", key, err)
	}
	if available < qty {
		return nil, &stock.InsufficientStockError{Key: key, Requested: qty, Available: available}
	}

	// A concurrent first add of the same key can win the insert; the loser
	// retries once and merges into that line.
	for attempt := 0; ; attempt++ {
		item, err := s.addOrMerge(ctx, id.UserID, key, qty, available)
		if errors.Is(err, ErrDuplicate) && attempt == 0 {
			continue
		}
		return item, err
	}
}

func (s *Service) addOrMerge(ctx context.Context, userID int64, key stock.VariantKey, qty, available int) (*Item, error) {
	existing, err := s.items.FindByKey(ctx, userID, key)
	switch {
	case errors.Is(err, ErrNotFound):
		item := &Item{UserID: userID, Key: key, Quantity: qty}
		if err := s.items.Insert(ctx, item); err != nil {
			return nil, fmt.Errorf("insert cart item: %w", err)
		}
		return item, nil
	case err != nil:
		return nil, fmt.Errorf("find cart item: %w", err)
	}

	merged := existing.Quantity + qty
	if merged > available {
		return nil, &stock.InsufficientStockError{
			Key:       key,
			Requested: merged,
			Available: available,
			InCart:    existing.Quantity,
		}
	}
	if err := s.items.SetQuantity(ctx, userID, existing.ID, merged); err != nil {
		return nil, fmt.Errorf("update cart item %d: %w", existing.ID, err)
	}
	existing.Quantity = merged
	return existing, nil
}

// UpdateQuantity replaces the quantity of one of the caller's lines.
func (s *Service) UpdateQuantity(ctx context.Context, id auth.Identity, itemID int64, qty int) (*Item, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}
	if err := validation.PositiveID("cartItemId", itemID); err != nil {
		return nil, err
	}
	if err := validation.PositiveQuantity("quantity", qty); err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, id.UserID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item %d: %w", itemID, err)
	}

	available, err := s.ledger.Quantity(ctx, item.Key)
	if err != nil {
		return nil, fmt.Errorf("get stock %s: %w", item.Key, err)
	}
	if available < qty {
		return nil, &stock.InsufficientStockError{Key: item.Key, Requested: qty, Available: available}
	}

	if err := s.items.SetQuantity(ctx, id.UserID, itemID, qty); err != nil {
		return nil, fmt.Errorf("update cart item %d: %w", itemID, err)
	}
	item.Quantity = qty
	return item, nil
}

// RemoveItem deletes one of the caller's lines. Removing a missing line is
// not an error.
func (s *Service) RemoveItem(ctx context.Context, id auth.Identity, itemID int64) error {
	if err := id.RequireCustomer(); err != nil {
		return err
	}
	if err := validation.PositiveID("cartItemId", itemID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id.UserID, itemID); err != nil {
		return fmt.Errorf("delete cart item %d: %w", itemID, err)
	}
	return nil
}

// ListItems returns the caller's cart with availability recomputed from
// live stock.
func (s *Service) ListItems(ctx context.Context, id auth.Identity) ([]View, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}
	views, err := s.items.List(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	for i := range views {
		v := &views[i]
		v.StockAvailable = v.AvailableStock >= v.Quantity
		v.MaxQuantity = v.AvailableStock
	}
	return views, nil
}

// CheckAvailability reports whether qty units of key are in stock. It needs
// no identity.
func (s *Service) CheckAvailability(ctx context.Context, key stock.VariantKey, qty int) (Availability, error) {
	if err := key.Validate(); err != nil {
		return Availability{}, err
	}
	if err := validation.PositiveQuantity("quantity", qty); err != nil {
		return Availability{}, err
	}
	available, err := s.ledger.Quantity(ctx, key)
	if err != nil {
		return Availability{}, fmt.Errorf("get stock %s: %w", key, err)
	}
	return Availability{Available: available >= qty, CurrentStock: available}, nil
}
