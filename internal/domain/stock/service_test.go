package stock

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// --- Mock implementations ---

type mockRepo struct {
	entries map[VariantKey]int
	err     error
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[VariantKey]int)}
}

func (m *mockRepo) Quantity(_ context.Context, key VariantKey) (int, error) {
	return m.entries[key], m.err
}

func (m *mockRepo) Set(_ context.Context, key VariantKey, qty int) error {
	if m.err != nil {
		return m.err
	}
	m.entries[key] = qty
	return nil
}

func (m *mockRepo) Adjust(_ context.Context, key VariantKey, delta int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	cur, ok := m.entries[key]
	if !ok {
		return 0, ErrNotFound
	}
	m.entries[key] = ApplyDelta(cur, delta)
	return m.entries[key], nil
}

func (m *mockRepo) ForProduct(_ context.Context, productID int64) ([]Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Entry
	for k, q := range m.entries {
		if k.ProductID == productID {
			out = append(out, Entry{Key: k, Quantity: q})
		}
	}
	slices.SortFunc(out, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	return out, nil
}

// --- Helpers ---

var (
	admin  = auth.Identity{UserID: 1, Username: "root", Role: auth.RoleAdmin}
	member = auth.Identity{UserID: 2, Username: "buyer", Role: auth.RoleMember}
	tee    = VariantKey{ProductID: 1, Color: "Black", Size: "M"}
)

// --- Tests ---

func TestQuantity_MissingEntryIsZero(t *testing.T) {
	svc := NewService(newMockRepo())

	qty, err := svc.Quantity(context.Background(), tee)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestQuantity_InvalidKey(t *testing.T) {
	svc := NewService(newMockRepo())

	for _, key := range []VariantKey{
		{ProductID: 0, Color: "Black", Size: "M"},
		{ProductID: 1, Color: "", Size: "M"},
		{ProductID: 1, Color: "Black", Size: ""},
	} {
		_, err := svc.Quantity(context.Background(), key)
		assert.True(t, validation.Is(err), "key %v", key)
	}
}

func TestSet(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	require.NoError(t, svc.Set(context.Background(), admin, tee, 12))
	assert.Equal(t, 12, repo.entries[tee])

	require.NoError(t, svc.Set(context.Background(), admin, tee, 0))
	assert.Equal(t, 0, repo.entries[tee])
}

func TestSet_RejectsNegative(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.Set(context.Background(), admin, tee, -1)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.NotContains(t, repo.entries, tee)
}

func TestSet_RejectsOversized(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.Set(context.Background(), admin, tee, 3_000_000_000)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.NotContains(t, repo.entries, tee)

	require.NoError(t, svc.Set(context.Background(), admin, tee, validation.MaxQuantity))
}

func TestSet_RequiresAdmin(t *testing.T) {
	svc := NewService(newMockRepo())

	require.ErrorIs(t, svc.Set(context.Background(), member, tee, 3), auth.ErrForbidden)
	require.ErrorIs(t, svc.Set(context.Background(), auth.Visitor(), tee, 3), auth.ErrUnauthenticated)
}

func TestAdjust(t *testing.T) {
	repo := newMockRepo()
	repo.entries[tee] = 4
	svc := NewService(repo)

	qty, err := svc.Adjust(context.Background(), admin, tee, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, qty)

	qty, err = svc.Adjust(context.Background(), admin, tee, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, qty, "adjust floors at zero")
}

func TestAdjust_Saturates(t *testing.T) {
	repo := newMockRepo()
	repo.entries[tee] = 5
	svc := NewService(repo)

	qty, err := svc.Adjust(context.Background(), admin, tee, validation.MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, validation.MaxQuantity, qty)

	_, err = svc.Adjust(context.Background(), admin, tee, math.MaxInt)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "adjustment", verr.Field)
	assert.Equal(t, validation.MaxQuantity, repo.entries[tee])
}

func TestAdjust_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Adjust(context.Background(), admin, tee, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdjust_StorageError(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("connection reset")
	svc := NewService(repo)

	_, err := svc.Adjust(context.Background(), admin, tee, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjust stock")
}

func TestApplyDelta_NeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	qty := 0
	for range 10_000 {
		qty = ApplyDelta(qty, rng.IntN(21)-10)
		require.GreaterOrEqual(t, qty, 0)
	}
}

func TestApplyDelta_Saturates(t *testing.T) {
	assert.Equal(t, validation.MaxQuantity, ApplyDelta(5, math.MaxInt))
	assert.Equal(t, validation.MaxQuantity, ApplyDelta(validation.MaxQuantity, 1))
	assert.Zero(t, ApplyDelta(5, math.MinInt))
	assert.Equal(t, 8, ApplyDelta(5, 3))
	assert.Equal(t, 2, ApplyDelta(5, -3))
}

func TestVariantKey_Compare(t *testing.T) {
	a := VariantKey{ProductID: 1, Color: "Black", Size: "M"}
	b := VariantKey{ProductID: 1, Color: "Black", Size: "S"}
	c := VariantKey{ProductID: 1, Color: "Olive", Size: "L"}
	d := VariantKey{ProductID: 2, Color: "Black", Size: "L"}

	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Negative(t, c.Compare(d))
	assert.Zero(t, a.Compare(a))
	assert.Positive(t, d.Compare(a))
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &InsufficientStockError{Key: tee, Requested: 3, Available: 1}
	assert.EqualError(t, err, "insufficient stock for 1/Black/M: requested 3, 1 available")

	err = &InsufficientStockError{Key: tee, Requested: 3, Available: 5, InCart: 3}
	assert.EqualError(t, err, "insufficient stock for 1/Black/M: 3 already in cart, 5 available")
}

func TestForProduct(t *testing.T) {
	repo := newMockRepo()
	repo.entries[VariantKey{ProductID: 1, Color: "Olive", Size: "S"}] = 2
	repo.entries[tee] = 4
	repo.entries[VariantKey{ProductID: 2, Color: "Black", Size: "M"}] = 9
	svc := NewService(repo)

	entries, err := svc.ForProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, tee, entries[0].Key)
	assert.Equal(t, 2, entries[1].Quantity)

	_, err = svc.ForProduct(context.Background(), 0)
	assert.True(t, validation.Is(err))
}
