package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
)

const routerV2ABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedRouterABI  abi.ABI
	parsedRouterOnce sync.Once
)

func routerABI() abi.ABI {
	parsedRouterOnce.Do(func() {
		var err error
		parsedRouterABI, err = abi.JSON(strings.NewReader(routerV2ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse router ABI: %v", err))
		}
	})
	return parsedRouterABI
}

// PancakeQuoter quotes contract-model swaps against a V2 router's
// getAmountsOut. Pairs without direct liquidity are routed through the
// wrapped native token.
type PancakeQuoter struct {
	client         *ethclient.Client
	router         common.Address
	wrappedNative  common.Address
	rpcCallTimeout time.Duration
	logger         *zap.Logger
}

// NewPancakeQuoter creates a new PancakeQuoter on an already-dialed client.
func NewPancakeQuoter(client *ethclient.Client, router, wrappedNative string, rpcCallTimeout time.Duration, logger *zap.Logger) (port.SwapQuoter, error) {
	if !common.IsHexAddress(router) {
		return nil, fmt.Errorf("router address %q is not a valid contract address", router)
	}
	if !common.IsHexAddress(wrappedNative) {
		return nil, fmt.Errorf("wrapped native address %q is not a valid contract address", wrappedNative)
	}
	return &PancakeQuoter{
		client:         client,
		router:         common.HexToAddress(router),
		wrappedNative:  common.HexToAddress(wrappedNative),
		rpcCallTimeout: rpcCallTimeout,
		logger:         logger.Named("PancakeQuoter"),
	}, nil
}

// Quote calls getAmountsOut over the derived path and applies the slippage
// tolerance locally.
func (q *PancakeQuoter) Quote(ctx context.Context, req entity.SwapQuoteRequest) (entity.SwapQuote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return entity.SwapQuote{}, fmt.Errorf("amountIn must be positive")
	}
	path, err := q.path(req)
	if err != nil {
		return entity.SwapQuote{}, err
	}

	calldata, err := routerABI().Pack("getAmountsOut", req.AmountIn, path)
	if err != nil {
		return entity.SwapQuote{}, fmt.Errorf("failed to encode getAmountsOut call: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, q.rpcCallTimeout)
	defer cancel()

	out, err := q.client.CallContract(callCtx, ethereum.CallMsg{To: &q.router, Data: calldata}, nil)
	if err != nil {
		q.logger.Warn("getAmountsOut call failed", zap.Error(err))
		return entity.SwapQuote{}, fmt.Errorf("getAmountsOut failed (no liquidity for this pair?): %w", err)
	}
	values, err := routerABI().Unpack("getAmountsOut", out)
	if err != nil || len(values) == 0 {
		return entity.SwapQuote{}, fmt.Errorf("failed to decode getAmountsOut result: %w", err)
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return entity.SwapQuote{}, fmt.Errorf("getAmountsOut returned an unexpected shape")
	}

	amountOut := amounts[len(amounts)-1]
	return entity.SwapQuote{
		AmountOut:    amountOut,
		MinAmountOut: applySlippage(amountOut, req.SlippageBps),
		Venue:        "pancake-v2",
	}, nil
}

// path builds the router path, substituting the wrapped native token for an
// empty input and inserting it as a hop when neither side is the wrapped
// native.
func (q *PancakeQuoter) path(req entity.SwapQuoteRequest) ([]common.Address, error) {
	if !common.IsHexAddress(req.OutputToken) {
		return nil, fmt.Errorf("output token %q is not a valid contract address", req.OutputToken)
	}
	out := common.HexToAddress(req.OutputToken)

	in := q.wrappedNative
	if req.InputToken != "" {
		if !common.IsHexAddress(req.InputToken) {
			return nil, fmt.Errorf("input token %q is not a valid contract address", req.InputToken)
		}
		in = common.HexToAddress(req.InputToken)
	}
	if in == out {
		return nil, fmt.Errorf("input and output tokens are identical")
	}
	if in != q.wrappedNative && out != q.wrappedNative {
		return []common.Address{in, q.wrappedNative, out}, nil
	}
	return []common.Address{in, out}, nil
}

func applySlippage(amount *big.Int, slippageBps int) *big.Int {
	if slippageBps <= 0 || slippageBps >= 10000 {
		return new(big.Int).Set(amount)
	}
	min := new(big.Int).Mul(amount, big.NewInt(int64(10000-slippageBps)))
	return min.Div(min, big.NewInt(10000))
}
