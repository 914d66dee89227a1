package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisend/internal/domain/entity"
)

func TestGroupIntoCandidates(t *testing.T) {
	t.Run("merges rows sharing network and key", func(t *testing.T) {
		rows := []entity.ParsedRow{
			{Network: "SOL", PrivateKey: "key1", Token: "mintA"},
			{Network: "sol-mainnet", PrivateKey: "key1", Token: "mintB"},
			{Network: "SOL", PrivateKey: "key1", Token: "mintA"},
		}
		candidates := GroupIntoCandidates(rows, nil)
		require.Len(t, candidates, 1)
		assert.Equal(t, []string{"mintA", "mintB"}, candidates[0].RequestedTokens)
	})

	t.Run("same key on different networks stays separate", func(t *testing.T) {
		rows := []entity.ParsedRow{
			{Network: "SOL", PrivateKey: "shared"},
			{Network: "BSC", PrivateKey: "shared"},
			{Network: "SOL-devnet", PrivateKey: "shared"},
		}
		candidates := GroupIntoCandidates(rows, nil)
		assert.Len(t, candidates, 3)
	})

	t.Run("keeps first-appearance order", func(t *testing.T) {
		rows := []entity.ParsedRow{
			{Network: "BSC", PrivateKey: "b"},
			{Network: "SOL", PrivateKey: "a"},
			{Network: "BSC", PrivateKey: "b", Token: "0x1"},
		}
		candidates := GroupIntoCandidates(rows, nil)
		require.Len(t, candidates, 2)
		assert.Equal(t, entity.ChainContractModel, candidates[0].Chain)
		assert.Equal(t, entity.ChainAccountModel, candidates[1].Chain)
	})

	t.Run("drops unclassifiable rows and logs them", func(t *testing.T) {
		var logged []string
		rows := []entity.ParsedRow{
			{Network: "ethereum", PrivateKey: "x"},
			{Network: "SOL", PrivateKey: "y"},
		}
		candidates := GroupIntoCandidates(rows, func(entry string) { logged = append(logged, entry) })
		assert.Len(t, candidates, 1)
		require.Len(t, logged, 1)
		assert.Contains(t, logged[0], "ethereum")
	})

	t.Run("trims key whitespace before grouping", func(t *testing.T) {
		rows := []entity.ParsedRow{
			{Network: "SOL", PrivateKey: " key1 "},
			{Network: "SOL", PrivateKey: "key1"},
		}
		candidates := GroupIntoCandidates(rows, nil)
		assert.Len(t, candidates, 1)
	})

	t.Run("is idempotent", func(t *testing.T) {
		rows := []entity.ParsedRow{
			{Network: "SOL", PrivateKey: "key1", Token: "mintA"},
			{Network: "BSC", PrivateKey: "key2", Token: "0x1"},
		}
		first := GroupIntoCandidates(rows, nil)
		second := GroupIntoCandidates(rows, nil)
		assert.Equal(t, first, second)
	})
}
