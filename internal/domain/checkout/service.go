package checkout

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/stock"
)

const instrumentationName = "github.com/xenking/ggshop/internal/domain/checkout"

// Service runs checkouts.
type Service struct {
	txm      TxManager
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// NewService creates a checkout Service instrumented with the given
// providers.
func NewService(txm TxManager, tp trace.TracerProvider, mp metric.MeterProvider) (*Service, error) {
	outcomes, err := mp.Meter(instrumentationName).Int64Counter("shop.checkout.outcomes",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create outcomes counter")
	}
	return &Service{
		txm:      txm,
		tracer:   tp.Tracer(instrumentationName),
		outcomes: outcomes,
	}, nil
}

// run tracks the state of one checkout.
type run struct {
	lg    *zap.Logger
	state State
}

func (r *run) transition(to State, fields ...zap.Field) {
	r.lg.Debug("Checkout state",
		append(fields, zap.Stringer("from", r.state), zap.Stringer("to", to))...,
	)
	r.state = to
}

// Checkout turns the caller's cart into a completed order.
func (s *Service) Checkout(ctx context.Context, id auth.Identity) (*Result, error) {
	if err := id.RequireCustomer(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "checkout.Checkout",
		trace.WithAttributes(attribute.Int64("shop.user_id", id.UserID)),
	)
	defer span.End()

	r := &run{lg: zctx.From(ctx).With(zap.Int64("user_id", id.UserID)), state: StateIdle}

	var res *Result
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		res, err = s.commit(ctx, r, tx, id)
		return err
	})

	outcome := outcomeOf(err)
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("shop.checkout.outcome", outcome))

	if err != nil {
		r.transition(StateAborted, zap.String("outcome", outcome), zap.Error(err))
		if outcome == outcomeFailed {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout failed")
			return nil, fmt.Errorf("%w: %w", ErrTransaction, err)
		}
		return nil, err
	}

	r.transition(StateCommitted,
		zap.Int64("order_id", res.OrderID),
		zap.String("total", res.Total.StringFixed(2)),
	)
	span.SetAttributes(attribute.Int64("shop.order_id", res.OrderID))
	return res, nil
}

func (s *Service) commit(ctx context.Context, r *run, tx Tx, id auth.Identity) (*Result, error) {
	r.transition(StateValidating)

	lines, err := tx.CartLines(ctx, id.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var issues []StockIssue
	for _, l := range lines {
		if l.Available < l.Quantity {
			issues = append(issues, issueOf(l, l.Available))
		}
	}
	if len(issues) > 0 {
		return nil, &InsufficientStockError{Issues: issues}
	}

	r.transition(StateCommitting, zap.Int("lines", len(lines)))

	res := &Result{ItemCount: len(lines), Total: decimal.Zero}
	for _, l := range lines {
		res.Total = res.Total.Add(l.Subtotal())
		res.TotalQuantity += l.Quantity
	}

	o := &order.Order{
		UserID:        id.UserID,
		CustomerName:  id.Username,
		CustomerEmail: id.Email,
		Total:         res.Total,
		Status:        order.StatusCompleted,
	}
	if err := tx.CreateOrder(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	res.OrderID = o.ID

	// Same lock order in every transaction.
	slices.SortFunc(lines, func(a, b Line) int { return a.Key.Compare(b.Key) })

	for _, l := range lines {
		it := &order.Item{
			OrderID:     o.ID,
			ProductID:   l.Key.ProductID,
			ProductName: l.ProductName,
			Color:       l.Key.Color,
			Size:        l.Key.Size,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice,
			Subtotal:    l.Subtotal(),
		}
		if err := tx.AddOrderItem(ctx, it); err != nil {
			return nil, errors.Wrapf(err, "add order item %s", l.Key)
		}
		if err := tx.DecrementForOrder(ctx, l.Key, l.Quantity); err != nil {
			var serr *stock.InsufficientStockError
			if errors.As(err, &serr) {
				return nil, &InsufficientStockError{Issues: []StockIssue{issueOf(l, serr.Available)}}
			}
			return nil, errors.Wrapf(err, "decrement stock %s", l.Key)
		}
	}

	if err := tx.ClearCart(ctx, id.UserID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return res, nil
}

func issueOf(l Line, available int) StockIssue {
	return StockIssue{
		ProductID:   l.Key.ProductID,
		ProductName: l.ProductName,
		Color:       l.Key.Color,
		Size:        l.Key.Size,
		Requested:   l.Quantity,
		Available:   available,
	}
}

const (
	outcomeCommitted         = "committed"
	outcomeEmptyCart         = "empty_cart"
	outcomeInsufficientStock = "insufficient_stock"
	outcomeFailed            = "failed"
)

func outcomeOf(err error) string {
	var serr *InsufficientStockError
	switch {
	case err == nil:
		return outcomeCommitted
	case errors.Is(err, ErrEmptyCart):
		return outcomeEmptyCart
	case errors.As(err, &serr):
		return outcomeInsufficientStock
	default:
		return outcomeFailed
	}
}
