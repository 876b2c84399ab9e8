package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedVendorSet(t *testing.T) {
	set := NewTrustedVendorSet()
	assert.Equal(t, 0, set.Len())

	require.NoError(t, set.Add("Acme"))
	require.NoError(t, set.Add("  Globex "))

	t.Run("case-insensitive duplicate rejected", func(t *testing.T) {
		assert.ErrorIs(t, set.Add("ACME"), ErrDuplicateVendor)
		assert.ErrorIs(t, set.Add("globex"), ErrDuplicateVendor)
		assert.Equal(t, 2, set.Len())
	})

	t.Run("blank rejected", func(t *testing.T) {
		assert.ErrorIs(t, set.Add("   "), ErrEmptyVendor)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		assert.True(t, set.Contains("acme"))
		assert.True(t, set.Contains("GLOBEX"))
		assert.False(t, set.Contains("Initech"))
		assert.False(t, set.Contains(""))
	})

	t.Run("lookup returns stored spelling", func(t *testing.T) {
		got, ok := set.Lookup("GLOBEX")
		assert.True(t, ok)
		assert.Equal(t, "Globex", got)
		_, ok = set.Lookup("Initech")
		assert.False(t, ok)
	})

	t.Run("non-ASCII names fold case", func(t *testing.T) {
		unicode := NewTrustedVendorSet("Ärzte GmbH")
		got, ok := unicode.Lookup("ärzte gmbh")
		assert.True(t, ok)
		assert.Equal(t, "Ärzte GmbH", got)
	})

	t.Run("names keep order and spelling", func(t *testing.T) {
		assert.Equal(t, []string{"Acme", "Globex"}, set.Names())
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, set.Add("Initech"))
		require.NoError(t, set.Remove("acme"))
		assert.False(t, set.Contains("Acme"))
		assert.Equal(t, []string{"Globex", "Initech"}, set.Names())
		assert.True(t, set.Contains("initech"))
		assert.ErrorIs(t, set.Remove("acme"), ErrVendorNotFound)
	})

	t.Run("clone is independent", func(t *testing.T) {
		clone := set.Clone()
		require.NoError(t, clone.Add("Hooli"))
		assert.False(t, set.Contains("Hooli"))
	})
}

func TestNilTrustedVendorSet(t *testing.T) {
	var set *TrustedVendorSet
	assert.False(t, set.Contains("Acme"))
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Names())
	_, ok := set.Lookup("Acme")
	assert.False(t, ok)
}
