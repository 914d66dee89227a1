package port

import (
	"context"
	"errors"
	"math/big"

	"multisend/internal/domain/entity"
)

// Sentinel errors shared by every chain adapter implementation.
var (
	// ErrInsufficientForFee is returned by SendNative when the wallet's
	// balance does not cover the computed fee; nothing was submitted.
	ErrInsufficientForFee = errors.New("balance does not cover the network fee")

	// ErrInvalidDestination is returned when a destination address is not
	// syntactically valid for the adapter's chain family.
	ErrInvalidDestination = errors.New("invalid destination address")

	// ErrEnumerationUnsupported is returned by EnumerateHoldings on chain
	// families without a cheap holdings-enumeration primitive.
	ErrEnumerationUnsupported = errors.New("holdings enumeration not supported on this chain")
)

// ChainReader is the read-only capability surface of one chain family on one
// environment. Implementations wrap the vendor SDK and keep its dynamic
// behavior behind this typed boundary.
type ChainReader interface {
	Kind() entity.ChainKind
	Environment() entity.Environment

	// DeriveAddress decodes the supplied private key in the chain's native
	// secret-key encoding and returns the public address. Malformed keys are
	// a hard error, not a best-effort degradation.
	DeriveAddress(privateKey string) (string, error)

	// ValidateDestination checks that the address is syntactically valid for
	// this chain family. It performs no I/O.
	ValidateDestination(address string) error

	NativeSymbol() string
	NativeDecimals() uint8
	NativeBalance(ctx context.Context, address string) (*big.Int, error)

	// TokenBalance reads the owner's balance of one explicitly requested
	// token. A missing holding account is not an error: Exists is false and
	// the amount is zero. Degraded metadata reads fall back per the adapter's
	// documented policy.
	TokenBalance(ctx context.Context, owner, tokenAddress string) (entity.TokenBalance, error)

	// CanEnumerateHoldings reports whether the chain family supports listing
	// every fungible token an address holds. Contract-model chains cannot.
	CanEnumerateHoldings() bool

	// EnumerateHoldings lists every positive fungible balance the owner
	// holds, merged per token across token-program variants.
	EnumerateHoldings(ctx context.Context, owner string) ([]entity.TokenBalance, error)

	// TokenLabel resolves a human-readable label for the token, falling back
	// to an elided form of the address. It never fails.
	TokenLabel(ctx context.Context, tokenAddress string) string
}

// ChainWriter is the mutating capability surface of one chain family.
type ChainWriter interface {
	// SendNative transfers the fee-safe portion of rawAmount to destination.
	// The adapter computes the fee itself and returns ErrInsufficientForFee
	// without submitting anything when rawAmount does not exceed it.
	SendNative(ctx context.Context, privateKey, destination string, rawAmount *big.Int) (entity.TransferReceipt, error)

	// SendToken transfers the full rawAmount of the given token; the fee is
	// paid from the native balance, never deducted from the token amount.
	SendToken(ctx context.Context, privateKey, destination, tokenAddress string, rawAmount *big.Int) (entity.TransferReceipt, error)
}

// ChainAdapter is the full per-chain-family capability used by the hydrator
// and the batch orchestrator.
type ChainAdapter interface {
	ChainReader
	ChainWriter
}

// AdapterProvider hands out (and may cache) chain adapters per descriptor.
type AdapterProvider interface {
	Adapter(descriptor entity.NetworkDescriptor) (ChainAdapter, error)
}
