package service

import (
	"context"
	"fmt"
	"math/big"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type sentOp struct {
	key         string
	destination string
	token       string
	amount      *big.Int
}

// fakeAdapter is an in-memory port.ChainAdapter for service tests. Addresses
// are derived by prefixing the key, and SendNative honors the fee-reserve
// semantics of the real adapters.
type fakeAdapter struct {
	kind         entity.ChainKind
	env          entity.Environment
	canEnumerate bool
	feeReserve   int64

	nativeBalances map[string]*big.Int                       // address -> balance
	tokenBalances  map[string]map[string]entity.TokenBalance // address -> token -> balance
	holdings       map[string][]entity.TokenBalance
	labels         map[string]string

	deriveErr     error
	nativeErr     error
	enumerateErr  error
	tokenErrs     map[string]error
	destinationOK func(string) bool
	sendNativeErr error
	sendTokenErr  error

	sentNative []sentOp
	sentTokens []sentOp
}

func newFakeAdapter(kind entity.ChainKind) *fakeAdapter {
	return &fakeAdapter{
		kind:           kind,
		env:            entity.EnvMainnet,
		canEnumerate:   kind == entity.ChainAccountModel,
		feeReserve:     10000,
		nativeBalances: make(map[string]*big.Int),
		tokenBalances:  make(map[string]map[string]entity.TokenBalance),
		holdings:       make(map[string][]entity.TokenBalance),
		labels:         make(map[string]string),
		tokenErrs:      make(map[string]error),
	}
}

func fakeAddress(key string) string { return "addr-" + key }

func (f *fakeAdapter) Kind() entity.ChainKind          { return f.kind }
func (f *fakeAdapter) Environment() entity.Environment { return f.env }

func (f *fakeAdapter) NativeSymbol() string {
	if f.kind == entity.ChainContractModel {
		return "BNB"
	}
	return "SOL"
}

func (f *fakeAdapter) NativeDecimals() uint8 {
	if f.kind == entity.ChainContractModel {
		return 18
	}
	return 9
}

func (f *fakeAdapter) DeriveAddress(privateKey string) (string, error) {
	if f.deriveErr != nil {
		return "", f.deriveErr
	}
	return fakeAddress(privateKey), nil
}

func (f *fakeAdapter) ValidateDestination(address string) error {
	if f.destinationOK != nil && !f.destinationOK(address) {
		return port.ErrInvalidDestination
	}
	return nil
}

func (f *fakeAdapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if f.nativeErr != nil {
		return nil, f.nativeErr
	}
	if balance, ok := f.nativeBalances[address]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeAdapter) TokenBalance(ctx context.Context, owner, tokenAddress string) (entity.TokenBalance, error) {
	if err, failed := f.tokenErrs[tokenAddress]; failed {
		return entity.TokenBalance{}, err
	}
	if balance, ok := f.tokenBalances[owner][tokenAddress]; ok {
		return balance, nil
	}
	return entity.TokenBalance{TokenAddress: tokenAddress, Amount: big.NewInt(0)}, nil
}

func (f *fakeAdapter) CanEnumerateHoldings() bool { return f.canEnumerate }

func (f *fakeAdapter) EnumerateHoldings(ctx context.Context, owner string) ([]entity.TokenBalance, error) {
	if !f.canEnumerate {
		return nil, port.ErrEnumerationUnsupported
	}
	if f.enumerateErr != nil {
		return nil, f.enumerateErr
	}
	return f.holdings[owner], nil
}

func (f *fakeAdapter) TokenLabel(ctx context.Context, tokenAddress string) string {
	if label, ok := f.labels[tokenAddress]; ok {
		return label
	}
	return "TOKEN"
}

func (f *fakeAdapter) SendNative(ctx context.Context, privateKey, destination string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	if f.sendNativeErr != nil {
		return entity.TransferReceipt{}, f.sendNativeErr
	}
	amount := new(big.Int).Sub(rawAmount, big.NewInt(f.feeReserve))
	if amount.Sign() <= 0 {
		return entity.TransferReceipt{}, port.ErrInsufficientForFee
	}
	f.sentNative = append(f.sentNative, sentOp{key: privateKey, destination: destination, amount: amount})
	return entity.TransferReceipt{TxID: fmt.Sprintf("native-tx-%d", len(f.sentNative)), AmountSent: amount}, nil
}

func (f *fakeAdapter) SendToken(ctx context.Context, privateKey, destination, tokenAddress string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	if f.sendTokenErr != nil {
		return entity.TransferReceipt{}, f.sendTokenErr
	}
	f.sentTokens = append(f.sentTokens, sentOp{key: privateKey, destination: destination, token: tokenAddress, amount: new(big.Int).Set(rawAmount)})
	return entity.TransferReceipt{TxID: fmt.Sprintf("token-tx-%d", len(f.sentTokens)), AmountSent: rawAmount}, nil
}

type fakeProvider struct {
	adapters map[entity.ChainKind]port.ChainAdapter
	err      error
}

func (p *fakeProvider) Adapter(descriptor entity.NetworkDescriptor) (port.ChainAdapter, error) {
	if p.err != nil {
		return nil, p.err
	}
	adapter, ok := p.adapters[descriptor.Chain]
	if !ok {
		return nil, fmt.Errorf("no adapter for %s", descriptor.Chain)
	}
	return adapter, nil
}

func providerFor(adapters ...*fakeAdapter) *fakeProvider {
	p := &fakeProvider{adapters: make(map[entity.ChainKind]port.ChainAdapter)}
	for _, a := range adapters {
		p.adapters[a.kind] = a
	}
	return p
}
