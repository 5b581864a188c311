package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProducts_SeedFile(t *testing.T) {
	products, err := readProducts(filepath.Join("..", "..", "db", "seed", "products.json"))
	require.NoError(t, err)
	require.NotEmpty(t, products)

	first := products[0].detail()
	assert.Equal(t, int64(1), first.ID)
	assert.True(t, first.OldPrice.Valid)
	assert.NotEmpty(t, first.Colors)
	assert.Equal(t, 12, countVariants(first.Stock))
}

func TestReadProducts_Rejects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"missing id":     `[{"name":"Cap","price":"1.00"}]`,
		"negative price": `[{"id":1,"name":"Cap","price":"-1.00"}]`,
		"not json":       `{`,
	} {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := readProducts(path)
		assert.Error(t, err, name)
	}
}
