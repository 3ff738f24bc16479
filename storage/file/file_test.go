package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/cart/carttest"
)

func TestStorage(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "carts"))
	require.NoError(t, err)

	carttest.RunStorageTests(t, s, "")
}

func TestStorage_layout(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, filepath.Join(dir, "atlantis_cart.json"), s.Path(cart.DefaultStorageKey))
	assert.Equal(t, filepath.Join(dir, "atlantis_cart%3Aa%2Fb.json"), s.Path("atlantis_cart:a/b"))

	require.NoError(t, s.Set(ctx, "atlantis_cart:a/b", []byte("[]")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "atlantis_cart%3Aa%2Fb.json", entries[0].Name())
}
