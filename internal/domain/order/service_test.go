package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders []Detail
	err    error
}

func (m *mockOrderRepo) summarize(d Detail) Summary {
	s := Summary{Order: d.Order, ItemCount: len(d.Items)}
	for _, it := range d.Items {
		s.TotalQuantity += it.Quantity
	}
	return s
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID int64) ([]Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Summary
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.summarize(m.orders[i]))
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetForUser(_ context.Context, userID, orderID int64) (*Detail, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.orders {
		if d.ID == orderID && d.UserID == userID {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Summary, 0, len(m.orders))
	for i := len(m.orders) - 1; i >= 0; i-- {
		out = append(out, m.summarize(m.orders[i]))
	}
	return out, nil
}

// --- Helpers ---

var (
	alice = auth.Identity{UserID: 1, Username: "alice", Email: "alice@example.com", Role: auth.RoleMember}
	bob   = auth.Identity{UserID: 2, Username: "bob", Email: "bob@example.com", Role: auth.RoleMember}
	root  = auth.Identity{UserID: 3, Username: "root", Role: auth.RoleAdmin}
)

func newTestOrder(id int64, buyer auth.Identity, lines ...int) Detail {
	d := Detail{Order: Order{
		ID:            id,
		UserID:        buyer.UserID,
		CustomerName:  buyer.Username,
		CustomerEmail: buyer.Email,
		Status:        StatusCompleted,
		CreatedAt:     time.Date(2026, 3, int(id), 0, 0, 0, 0, time.UTC),
	}}
	price := decimal.NewFromInt(10)
	for i, qty := range lines {
		sub := price.Mul(decimal.NewFromInt(int64(qty)))
		d.Items = append(d.Items, Item{
			ID:          int64(i + 1),
			OrderID:     id,
			ProductID:   1,
			ProductName: "Tee",
			Quantity:    qty,
			Price:       price,
			Subtotal:    sub,
		})
		d.Total = d.Total.Add(sub)
	}
	return d
}

func newTestService() (*Service, *mockOrderRepo) {
	repo := &mockOrderRepo{orders: []Detail{
		newTestOrder(1, alice, 2, 1),
		newTestOrder(2, bob, 4),
		newTestOrder(3, alice, 1),
	}}
	return NewService(repo), repo
}

// --- Tests ---

func TestListForUser(t *testing.T) {
	svc, _ := newTestService()

	got, err := svc.ListForUser(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID, "newest first")
	assert.Equal(t, 2, got[1].ItemCount)
	assert.Equal(t, 3, got[1].TotalQuantity)
	assert.True(t, got[1].Total.Equal(decimal.NewFromInt(30)))
}

func TestListForUser_Visitor(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ListForUser(context.Background(), auth.Visitor())
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestDetail(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Detail(context.Background(), bob, 2)
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "bob@example.com", d.CustomerEmail)
}

func TestDetail_OtherUsersOrder(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Detail(context.Background(), alice, 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDetail_InvalidID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Detail(context.Background(), alice, 0)
	assert.True(t, validation.Is(err))
}

func TestListAll(t *testing.T) {
	svc, _ := newTestService()

	got, err := svc.ListAll(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "alice", got[0].CustomerName)

	_, err = svc.ListAll(context.Background(), alice)
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestListAll_StorageError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("connection refused")

	_, err := svc.ListAll(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list all orders")
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled} {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("shipped")
	require.Error(t, err)
}
