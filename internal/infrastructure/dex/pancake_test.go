package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multisend/internal/domain/entity"
)

const (
	wbnb  = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
	cake  = "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"
	busd  = "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"
	route = "0x10ED43C718714eb63d5aA57B78B54704E256024E"
)

func testQuoter(t *testing.T) *PancakeQuoter {
	t.Helper()
	quoter, err := NewPancakeQuoter(nil, route, wbnb, 0, zap.NewNop())
	require.NoError(t, err)
	return quoter.(*PancakeQuoter)
}

func TestPancakePath(t *testing.T) {
	q := testQuoter(t)

	t.Run("empty input means wrapped native", func(t *testing.T) {
		path, err := q.path(entity.SwapQuoteRequest{OutputToken: cake})
		require.NoError(t, err)
		assert.Equal(t, []common.Address{common.HexToAddress(wbnb), common.HexToAddress(cake)}, path)
	})

	t.Run("token to token hops through wrapped native", func(t *testing.T) {
		path, err := q.path(entity.SwapQuoteRequest{InputToken: busd, OutputToken: cake})
		require.NoError(t, err)
		require.Len(t, path, 3)
		assert.Equal(t, common.HexToAddress(wbnb), path[1])
	})

	t.Run("rejects identical input and output", func(t *testing.T) {
		_, err := q.path(entity.SwapQuoteRequest{InputToken: cake, OutputToken: cake})
		assert.Error(t, err)
	})

	t.Run("rejects malformed output address", func(t *testing.T) {
		_, err := q.path(entity.SwapQuoteRequest{OutputToken: "not-an-address"})
		assert.Error(t, err)
	})
}

func TestApplySlippage(t *testing.T) {
	amount := big.NewInt(10000)
	assert.Equal(t, big.NewInt(9900), applySlippage(amount, 100))
	assert.Equal(t, big.NewInt(10000), applySlippage(amount, 0))
	assert.Equal(t, big.NewInt(10000), applySlippage(amount, 10000))
}
