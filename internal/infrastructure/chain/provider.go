package chain

import (
	"fmt"
	"sync"
	"time"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
	"multisend/internal/infrastructure/chain/evm"
	"multisend/internal/infrastructure/chain/solana"
	"multisend/internal/infrastructure/configloader"
)

// Provider implements port.AdapterProvider. Adapters are built lazily from
// configuration and cached per descriptor, so each (chain, environment) pair
// shares one RPC client and its metadata caches.
type Provider struct {
	cfg      *configloader.Config
	logger   port.Logger
	mu       sync.Mutex
	adapters map[entity.NetworkDescriptor]port.ChainAdapter
}

// NewProvider creates a new Provider.
func NewProvider(cfg *configloader.Config, logger port.Logger) *Provider {
	return &Provider{
		cfg:      cfg,
		logger:   logger,
		adapters: make(map[entity.NetworkDescriptor]port.ChainAdapter),
	}
}

// Adapter returns the cached adapter for the descriptor, building it on the
// first request. An environment without a configured RPC endpoint is an
// error, not a silent mainnet fallback.
func (p *Provider) Adapter(descriptor entity.NetworkDescriptor) (port.ChainAdapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if adapter, exists := p.adapters[descriptor]; exists {
		return adapter, nil
	}

	p.logger.Info("Creating chain adapter", "descriptor", descriptor.String())
	adapter, err := p.build(descriptor)
	if err != nil {
		p.logger.Error("Failed to create chain adapter", "descriptor", descriptor.String(), "error", err)
		return nil, err
	}
	p.adapters[descriptor] = adapter
	return adapter, nil
}

func (p *Provider) build(descriptor entity.NetworkDescriptor) (port.ChainAdapter, error) {
	rpcCallTimeout := time.Duration(p.cfg.Performance.RPCCallTimeoutSeconds) * time.Second
	confirmTimeout := time.Duration(p.cfg.Batch.ConfirmTimeoutSeconds) * time.Second

	switch descriptor.Chain {
	case entity.ChainAccountModel:
		endpoint := p.cfg.Chains.AccountMainnet
		if descriptor.Environment == entity.EnvTestnet {
			endpoint = p.cfg.Chains.AccountTestnet
		}
		if endpoint.RPCURL == "" {
			return nil, fmt.Errorf("no RPC endpoint configured for %s", descriptor.String())
		}
		return solana.NewAdapter(solana.Config{
			RPCURL:         endpoint.RPCURL,
			Environment:    descriptor.Environment,
			RPCCallTimeout: rpcCallTimeout,
			ConfirmTimeout: confirmTimeout,
		}, p.logger), nil

	case entity.ChainContractModel:
		endpoint := p.cfg.Chains.ContractMainnet
		if descriptor.Environment == entity.EnvTestnet {
			endpoint = p.cfg.Chains.ContractTestnet
		}
		if endpoint.RPCURL == "" {
			return nil, fmt.Errorf("no RPC endpoint configured for %s", descriptor.String())
		}
		return evm.NewAdapter(evm.Config{
			RPCURL:         endpoint.RPCURL,
			ChainID:        endpoint.ChainID,
			Environment:    descriptor.Environment,
			RPCCallTimeout: rpcCallTimeout,
			ConfirmTimeout: confirmTimeout,
		}, p.logger)

	default:
		return nil, fmt.Errorf("unsupported chain family %q", descriptor.Chain)
	}
}
