// Package carttest holds the behaviour every cart.Storage backend must share.
package carttest

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/atlantis/core/cart"
)

// RunStorageTests exercises storage using keys derived from prefix.
// Backends shared with other processes should pass a unique prefix.
func RunStorageTests(t *testing.T, storage cart.Storage, prefix string) {
	ctx := context.Background()
	key := prefix + cart.DefaultStorageKey
	ownerKey := key + ":owner-1"

	t.Cleanup(func() {
		_ = storage.Delete(ctx, key)
		_ = storage.Delete(ctx, ownerKey)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := storage.Get(ctx, key)
		assert.Equal(t, cart.ErrNoCart, errors.Cause(err))
		assert.NoError(t, storage.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, key, []byte(`[]`)))
		require.NoError(t, storage.Set(ctx, key, []byte(`[{"id":"plan1","quantity":1}]`)))
		data, err := storage.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"plan1","quantity":1}]`, string(data))
	})

	t.Run("keys are isolated", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, ownerKey, []byte(`[]`)))
		require.NoError(t, storage.Delete(ctx, ownerKey))
		_, err := storage.Get(ctx, ownerKey)
		assert.Equal(t, cart.ErrNoCart, errors.Cause(err))

		_, err = storage.Get(ctx, key)
		assert.NoError(t, err)
	})

	t.Run("engine round trip", func(t *testing.T) {
		require.NoError(t, storage.Delete(ctx, key))
		store := cart.NewJSONStore(storage, key)
		e := cart.New(ctx, store)

		dp := decimal.NewFromInt(900)
		require.NoError(t, e.AddItem(ctx, cart.Candidate{ID: "plan1", Name: "Abonament 4 Frecvențe", Price: decimal.NewFromInt(1000), DiscountPrice: &dp}))
		require.NoError(t, e.AddItem(ctx, cart.Candidate{ID: "plan1", Name: "Abonament 4 Frecvențe", Price: decimal.NewFromInt(1000), DiscountPrice: &dp}))
		require.NoError(t, e.AddItem(ctx, cart.Candidate{ID: "plan6", Name: "Abonament Individual 5 Antrenamente", Price: decimal.NewFromInt(2250)}))

		reloaded := cart.New(ctx, store)
		assert.Equal(t, 3, reloaded.TotalItems())
		assert.True(t, reloaded.TotalPrice().Equal(decimal.NewFromInt(4050)))
		assert.Equal(t, "Abonament 4 Frecvențe", reloaded.Items()[0].Name)

		require.NoError(t, reloaded.Clear(ctx))
		assert.Empty(t, cart.New(ctx, store).Items())
	})

	t.Run("corrupt payload", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, key, []byte("not json at all")))
		assert.Empty(t, cart.New(ctx, cart.NewJSONStore(storage, key)).Items())
	})
}
