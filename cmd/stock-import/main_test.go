package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
	"github.com/xenking/ggshop/internal/storage/memory"
)

func writeFeed(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

// knownProducts rejects writes for products the catalog does not have.
type knownProducts struct {
	stock.Repository
	ids map[int64]bool
}

func (k knownProducts) Set(ctx context.Context, key stock.VariantKey, qty int) error {
	if !k.ids[key.ProductID] {
		return product.ErrNotFound
	}
	return k.Repository.Set(ctx, key, qty)
}

func TestParseRecord(t *testing.T) {
	rec, ok := parseRecord([]string{"3", " Black", "M ", "12"})
	require.True(t, ok)
	assert.Equal(t, record{key: stock.VariantKey{ProductID: 3, Color: "Black", Size: "M"}, qty: 12}, rec)

	for _, bad := range [][]string{
		{"3", "Black", "M"},
		{"x", "Black", "M", "1"},
		{"0", "Black", "M", "1"},
		{"3", "", "M", "1"},
		{"3", "Black", "M", "-1"},
	} {
		_, ok := parseRecord(bad)
		assert.False(t, ok, "%v", bad)
	}
}

func TestImportFeeds(t *testing.T) {
	a := writeFeed(t, "a.csv.gz", "product_id,color,size,quantity\n1,Black,M,10\n1,Black,L,4\n2,Navy,U,7\nbroken\n")
	b := writeFeed(t, "b.csv.gz", "1,Black,M,99\n9,Red,S,1\n1,White,S,3\n")

	store := memory.New()
	w := knownProducts{Repository: store.Stock(), ids: map[int64]bool{1: true, 2: true}}

	rep, err := importFeeds(context.Background(), zaptest.NewLogger(t), w, []string{a, b})
	require.NoError(t, err)

	blackM := stock.VariantKey{ProductID: 1, Color: "Black", Size: "M"}
	assert.Equal(t, []stock.VariantKey{blackM}, rep.Conflicts)
	assert.Equal(t, []stock.VariantKey{{ProductID: 9, Color: "Red", Size: "S"}}, rep.Unknown)
	assert.Equal(t, 3, rep.Applied)
	assert.Equal(t, 1, rep.Invalid)

	ctx := context.Background()
	qty, err := store.Stock().Quantity(ctx, blackM)
	require.NoError(t, err)
	assert.Zero(t, qty, "conflicting variant is left untouched")

	qty, err = store.Stock().Quantity(ctx, stock.VariantKey{ProductID: 1, Color: "White", Size: "S"})
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestImportFeeds_MissingFile(t *testing.T) {
	_, err := importFeeds(context.Background(), zaptest.NewLogger(t), memory.New().Stock(),
		[]string{filepath.Join(t.TempDir(), "missing.gz")})
	require.Error(t, err)
}
