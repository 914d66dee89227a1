package evm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	t.Run("accepts bare 64 hex characters", func(t *testing.T) {
		key, err := NormalizeKey(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, key)
	})

	t.Run("strips 0x prefix", func(t *testing.T) {
		key, err := NormalizeKey("0x" + valid)
		require.NoError(t, err)
		assert.Equal(t, valid, key)
	})

	t.Run("strips surrounding whitespace", func(t *testing.T) {
		key, err := NormalizeKey("  " + valid + "\n")
		require.NoError(t, err)
		assert.Equal(t, valid, key)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := NormalizeKey(valid[:62])
		assert.Error(t, err)
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := NormalizeKey(strings.Repeat("zz", 32))
		assert.Error(t, err)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := NormalizeKey("   ")
		assert.Error(t, err)
	})
}
