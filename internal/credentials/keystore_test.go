package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokenStore(t *testing.T) {
	t.Run("Should report missing token", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()

		_, err := store.Load()
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("Should save and load token", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()

		require.NoError(t, store.Save("  secret-token  "))
		token, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "secret-token", token)
	})

	t.Run("Should reject empty token", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()

		assert.Error(t, store.Save("   "))
	})

	t.Run("Should delete token idempotently", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()

		require.NoError(t, store.Save("secret-token"))
		require.NoError(t, store.Delete())
		require.NoError(t, store.Delete())

		_, err := store.Load()
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("Should surface keychain errors", func(t *testing.T) {
		keyring.MockInitWithError(assert.AnError)
		store := NewTokenStore()

		_, err := store.Load()
		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorIs(t, store.Save("x"), assert.AnError)
	})
}

func TestResolve(t *testing.T) {
	t.Run("Should prefer configured token", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()
		require.NoError(t, store.Save("stored"))

		token, ok := store.Resolve("configured")
		assert.True(t, ok)
		assert.Equal(t, "configured", token)
	})

	t.Run("Should fall back to keychain", func(t *testing.T) {
		keyring.MockInit()
		store := NewTokenStore()
		require.NoError(t, store.Save("stored"))

		token, ok := store.Resolve("")
		assert.True(t, ok)
		assert.Equal(t, "stored", token)
	})

	t.Run("Should report absence", func(t *testing.T) {
		keyring.MockInit()
		token, ok := NewTokenStore().Resolve("")
		assert.False(t, ok)
		assert.Empty(t, token)
	})
}
