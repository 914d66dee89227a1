package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
	"multisend/internal/pkg/utils"
)

const (
	nativeTransferGas = uint64(21000)

	// Gas ceiling used when EstimateGas itself fails; generous enough for
	// fee-on-transfer and rebasing tokens.
	fallbackTokenGas = uint64(150000)

	// Headroom added on top of the node's estimate.
	tokenGasBuffer = uint64(10000)

	metadataCacheTTL = 30 * time.Minute
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func erc20() abi.ABI {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
	return parsedERC20ABI
}

// Adapter implements port.ChainAdapter for contract-model EVM chains. All
// transactions are legacy (type-0): the target chains price gas with a flat
// gasPrice and a 21000-unit native transfer, which keeps the fee computable
// up front.
type Adapter struct {
	client         *ethclient.Client
	chainID        *big.Int
	env            entity.Environment
	rpcCallTimeout time.Duration
	confirmTimeout time.Duration
	logger         port.Logger
	metadataCache  *cache.Cache
}

// Config carries everything the adapter needs for one environment.
type Config struct {
	RPCURL         string
	ChainID        int64
	Environment    entity.Environment
	RPCCallTimeout time.Duration
	ConfirmTimeout time.Duration
}

// NewAdapter dials the RPC endpoint and returns a ready adapter.
func NewAdapter(cfg Config, logger port.Logger) (*Adapter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RPCCallTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", cfg.RPCURL, err)
	}
	return &Adapter{
		client:         client,
		chainID:        big.NewInt(cfg.ChainID),
		env:            cfg.Environment,
		rpcCallTimeout: cfg.RPCCallTimeout,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         logger,
		metadataCache:  cache.New(metadataCacheTTL, metadataCacheTTL),
	}, nil
}

func (a *Adapter) Kind() entity.ChainKind          { return entity.ChainContractModel }
func (a *Adapter) Environment() entity.Environment { return a.env }
func (a *Adapter) NativeSymbol() string            { return "BNB" }
func (a *Adapter) NativeDecimals() uint8           { return 18 }

// DeriveAddress returns the EIP-55 checksummed address for the key.
func (a *Adapter) DeriveAddress(privateKey string) (string, error) {
	key, err := NormalizeKey(privateKey)
	if err != nil {
		return "", err
	}
	ecdsaKey, err := gethcrypto.HexToECDSA(key)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return gethcrypto.PubkeyToAddress(ecdsaKey.PublicKey).Hex(), nil
}

func (a *Adapter) ValidateDestination(address string) error {
	if !common.IsHexAddress(address) {
		return port.ErrInvalidDestination
	}
	return nil
}

func (a *Adapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	balance, err := a.client.BalanceAt(callCtx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed: %w", err)
	}
	return balance, nil
}

// TokenBalance reads balanceOf, decimals and symbol concurrently. Metadata
// reads degrade to defaults (symbol "TOKEN", 18 decimals) and a failed
// balanceOf degrades to zero, so one broken contract never fails a wallet.
func (a *Adapter) TokenBalance(ctx context.Context, owner, tokenAddress string) (entity.TokenBalance, error) {
	if !common.IsHexAddress(tokenAddress) {
		return entity.TokenBalance{}, fmt.Errorf("token address %q is not a valid contract address", tokenAddress)
	}
	token := common.HexToAddress(tokenAddress)
	holder := common.HexToAddress(owner)

	var (
		balance   = big.NewInt(0)
		symbol    = "TOKEN"
		decimals  = uint8(18)
		balanceOK bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := a.callUint256(gctx, token, "balanceOf", holder)
		if err != nil {
			a.logger.Warn("balanceOf call failed, assuming zero", "token", tokenAddress, "error", err)
			return nil
		}
		balance = out
		balanceOK = true
		return nil
	})
	g.Go(func() error {
		sym, dec := a.metadata(gctx, token)
		symbol = sym
		decimals = dec
		return nil
	})
	if err := g.Wait(); err != nil {
		return entity.TokenBalance{}, err
	}

	return entity.TokenBalance{
		TokenAddress: tokenAddress,
		Symbol:       symbol,
		Amount:       balance,
		Decimals:     decimals,
		Exists:       balanceOK,
	}, nil
}

// CanEnumerateHoldings is false: an EVM node has no cheap primitive for
// listing every contract an address holds, only per-contract balanceOf.
func (a *Adapter) CanEnumerateHoldings() bool { return false }

func (a *Adapter) EnumerateHoldings(ctx context.Context, owner string) ([]entity.TokenBalance, error) {
	return nil, port.ErrEnumerationUnsupported
}

func (a *Adapter) TokenLabel(ctx context.Context, tokenAddress string) string {
	if !common.IsHexAddress(tokenAddress) {
		return utils.ShortAddress(tokenAddress, 6, 4)
	}
	symbol, _ := a.metadata(ctx, common.HexToAddress(tokenAddress))
	return symbol
}

// metadata returns the cached (symbol, decimals) pair for a contract,
// querying the chain on a miss.
func (a *Adapter) metadata(ctx context.Context, token common.Address) (string, uint8) {
	type tokenMetadata struct {
		Symbol   string
		Decimals uint8
	}
	cacheKey := token.Hex()
	if cached, found := a.metadataCache.Get(cacheKey); found {
		md := cached.(tokenMetadata)
		return md.Symbol, md.Decimals
	}

	md := tokenMetadata{Symbol: "TOKEN", Decimals: 18}
	if sym, err := a.callString(ctx, token, "symbol"); err == nil && sym != "" {
		md.Symbol = sym
	} else if err != nil {
		a.logger.Debug("symbol() call failed, using fallback", "token", cacheKey, "error", err)
	}
	if dec, err := a.callUint8(ctx, token, "decimals"); err == nil {
		md.Decimals = dec
	} else {
		a.logger.Debug("decimals() call failed, using fallback", "token", cacheKey, "error", err)
	}

	a.metadataCache.Set(cacheKey, md, cache.DefaultExpiration)
	return md.Symbol, md.Decimals
}

// SendNative sweeps rawAmount minus the flat fee (gasPrice x 21000) to the
// destination. When the fee consumes the whole balance nothing is submitted
// and ErrInsufficientForFee is returned.
func (a *Adapter) SendNative(ctx context.Context, privateKey, destination string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	key, from, err := a.signingKey(privateKey)
	if err != nil {
		return entity.TransferReceipt{}, err
	}
	if err := a.ValidateDestination(destination); err != nil {
		return entity.TransferReceipt{}, err
	}

	gasPrice, err := a.suggestGasPrice(ctx)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(nativeTransferGas))
	amount := new(big.Int).Sub(rawAmount, fee)
	if amount.Sign() <= 0 {
		return entity.TransferReceipt{}, port.ErrInsufficientForFee
	}

	nonce, err := a.pendingNonce(ctx, from)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(destination), amount, nativeTransferGas, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainID), key)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := a.broadcast(ctx, signed); err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if err := a.waitMined(ctx, signed); err != nil {
		return entity.TransferReceipt{}, err
	}
	return entity.TransferReceipt{TxID: signed.Hash().Hex(), AmountSent: amount}, nil
}

// SendToken transfers the full rawAmount of an ERC20 token; the gas fee comes
// out of the native balance.
func (a *Adapter) SendToken(ctx context.Context, privateKey, destination, tokenAddress string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	key, from, err := a.signingKey(privateKey)
	if err != nil {
		return entity.TransferReceipt{}, err
	}
	if err := a.ValidateDestination(destination); err != nil {
		return entity.TransferReceipt{}, err
	}
	if !common.IsHexAddress(tokenAddress) {
		return entity.TransferReceipt{}, fmt.Errorf("token address %q is not a valid contract address", tokenAddress)
	}
	token := common.HexToAddress(tokenAddress)

	calldata, err := erc20().Pack("transfer", common.HexToAddress(destination), rawAmount)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to encode transfer calldata: %w", err)
	}

	gasPrice, err := a.suggestGasPrice(ctx)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	nonce, err := a.pendingNonce(ctx, from)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	gasLimit := fallbackTokenGas
	estimated, err := a.estimateGas(ctx, ethereum.CallMsg{From: from, To: &token, Data: calldata})
	if err == nil {
		gasLimit = estimated + tokenGasBuffer
	} else {
		a.logger.Warn("gas estimation failed, using fallback limit", "token", tokenAddress, "limit", gasLimit, "error", err)
	}

	tx := types.NewTransaction(nonce, token, big.NewInt(0), gasLimit, gasPrice, calldata)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainID), key)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := a.broadcast(ctx, signed); err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if err := a.waitMined(ctx, signed); err != nil {
		return entity.TransferReceipt{}, err
	}
	return entity.TransferReceipt{TxID: signed.Hash().Hex(), AmountSent: rawAmount}, nil
}

func (a *Adapter) signingKey(privateKey string) (*ecdsa.PrivateKey, common.Address, error) {
	normalized, err := NormalizeKey(privateKey)
	if err != nil {
		return nil, common.Address{}, err
	}
	key, err := gethcrypto.HexToECDSA(normalized)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return key, gethcrypto.PubkeyToAddress(key.PublicKey), nil
}

// Each pre-broadcast RPC gets its own rpcCallTimeout, the same way the read
// paths scope their calls. A shared deadline across the sequence would shrink
// the budget of every call after the first.
func (a *Adapter) suggestGasPrice(ctx context.Context) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()
	return a.client.SuggestGasPrice(callCtx)
}

func (a *Adapter) pendingNonce(ctx context.Context, from common.Address) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()
	return a.client.PendingNonceAt(callCtx, from)
}

func (a *Adapter) estimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()
	return a.client.EstimateGas(callCtx, msg)
}

func (a *Adapter) broadcast(ctx context.Context, tx *types.Transaction) error {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()
	return a.client.SendTransaction(callCtx, tx)
}

func (a *Adapter) waitMined(ctx context.Context, tx *types.Transaction) error {
	waitCtx, cancel := context.WithTimeout(ctx, a.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, a.client, tx)
	if err != nil {
		return fmt.Errorf("transaction %s was not mined in time: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted on chain", tx.Hash().Hex())
	}
	return nil
}

func (a *Adapter) callUint256(ctx context.Context, contract common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := a.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	values, err := erc20().Unpack(method, out)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	result, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned a non-uint256 value", method)
	}
	return result, nil
}

func (a *Adapter) callString(ctx context.Context, contract common.Address, method string) (string, error) {
	out, err := a.call(ctx, contract, method)
	if err != nil {
		return "", err
	}
	values, err := erc20().Unpack(method, out)
	if err != nil || len(values) == 0 {
		return "", fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	result, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned a non-string value", method)
	}
	return result, nil
}

func (a *Adapter) callUint8(ctx context.Context, contract common.Address, method string) (uint8, error) {
	out, err := a.call(ctx, contract, method)
	if err != nil {
		return 0, err
	}
	values, err := erc20().Unpack(method, out)
	if err != nil || len(values) == 0 {
		return 0, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	result, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s returned a non-uint8 value", method)
	}
	return result, nil
}

func (a *Adapter) call(ctx context.Context, contract common.Address, method string, args ...interface{}) ([]byte, error) {
	calldata, err := erc20().Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()
	return a.client.CallContract(callCtx, ethereum.CallMsg{To: &contract, Data: calldata}, nil)
}
