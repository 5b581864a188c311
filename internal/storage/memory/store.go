// Package memory is an in-process implementation of every storage port.
//
// All state sits behind one mutex. A transaction works on a private copy of
// the state and publishes it on success, so a failed transaction leaves no
// trace. It backs unit tests.
package memory

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/xenking/ggshop/internal/domain/cart"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
)

type state struct {
	products map[int64]*product.Detail
	stock    map[stock.VariantKey]int
	cart     []cart.Item
	orders   []order.Order
	items    []order.Item

	nextProduct  int64
	nextCartItem int64
	nextOrder    int64
	nextItem     int64
}

func newState() *state {
	return &state{
		products: make(map[int64]*product.Detail),
		stock:    make(map[stock.VariantKey]int),
	}
}

// clone copies everything a transaction may write. Products are read-only
// and shared.
func (s *state) clone() *state {
	c := *s
	c.stock = maps.Clone(s.stock)
	c.cart = slices.Clone(s.cart)
	c.orders = slices.Clone(s.orders)
	c.items = slices.Clone(s.items)
	return &c
}

// Store is the in-memory storage.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Products is the catalog view of a Store.
type Products struct{ *Store }

// Stock is the ledger view of a Store.
type Stock struct{ *Store }

// Cart is the cart view of a Store.
type Cart struct{ *Store }

// Orders is the order archive view of a Store.
type Orders struct{ *Store }

func (s *Store) Products() Products { return Products{s} }
func (s *Store) Stock() Stock       { return Stock{s} }
func (s *Store) Cart() Cart         { return Cart{s} }
func (s *Store) Orders() Orders     { return Orders{s} }

var (
	_ product.Repository = Products{}
	_ stock.Repository   = Stock{}
	_ cart.Repository    = Cart{}
	_ order.Repository   = Orders{}
)
