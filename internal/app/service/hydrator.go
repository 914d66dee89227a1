package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
	"multisend/internal/pkg/metrics"
	"multisend/internal/pkg/utils"
)

// WalletHydrator turns wallet candidates into fully-populated WalletInfo
// values by performing every read-only chain query a wallet needs. Wallets
// are paced by a rate limiter so a large import does not hammer the RPC
// endpoint with back-to-back hydrations.
type WalletHydrator struct {
	provider port.AdapterProvider
	logger   port.Logger
	limiter  *rate.Limiter
}

// NewWalletHydrator creates a new WalletHydrator hydrating at most
// opsPerSecond wallets per second.
func NewWalletHydrator(provider port.AdapterProvider, logger port.Logger, opsPerSecond float64) *WalletHydrator {
	if opsPerSecond <= 0 {
		opsPerSecond = 2
	}
	return &WalletHydrator{
		provider: provider,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(opsPerSecond), 1),
	}
}

// Hydrate derives the candidate's address and loads its native plus fungible
// balances. The result is all-or-nothing at the wallet level: either a fully
// populated WalletInfo, or one with Error set and no tokens. Individual
// token-read failures inside a successful hydration are logged to the sink
// and skipped, never escalated.
func (h *WalletHydrator) Hydrate(ctx context.Context, candidate entity.WalletCandidate, logSink port.LogSink) entity.WalletInfo {
	start := time.Now()
	info, err := h.hydrate(ctx, candidate, logSink)
	chain := string(candidate.Chain)
	metrics.HydrationDuration.WithLabelValues(chain).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HydrationsTotal.WithLabelValues(chain, "error").Inc()
		h.logger.Warn("Wallet hydration failed", "candidate", candidate.ID, "error", err)
		if logSink != nil {
			logSink(fmt.Sprintf("Failed to load wallet %s...: %v", utils.ShortAddress(candidate.PrivateKey, 6, 0), err))
		}
		return entity.WalletInfo{
			WalletCandidate: candidate,
			Tokens:          []entity.TokenEntry{},
			Loading:         false,
			Error:           err.Error(),
		}
	}
	metrics.HydrationsTotal.WithLabelValues(chain, "ok").Inc()
	if logSink != nil {
		logSink(fmt.Sprintf("Wallet %s (%s) loaded %d token(s).", info.DisplayAddress, candidate.RawNetworkLabel, len(info.Tokens)))
	}
	return info
}

func (h *WalletHydrator) hydrate(ctx context.Context, candidate entity.WalletCandidate, logSink port.LogSink) (entity.WalletInfo, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return entity.WalletInfo{}, err
	}

	adapter, err := h.provider.Adapter(candidate.Descriptor())
	if err != nil {
		return entity.WalletInfo{}, err
	}

	address, err := adapter.DeriveAddress(candidate.PrivateKey)
	if err != nil {
		return entity.WalletInfo{}, err
	}
	display := utils.ShortAddress(address, 6, 4)

	nativeBalance, err := adapter.NativeBalance(ctx, address)
	if err != nil {
		return entity.WalletInfo{}, fmt.Errorf("native balance query for %s: %w", display, err)
	}

	var tokens []entity.TokenEntry
	if nativeBalance.Sign() > 0 {
		tokens = append(tokens, entity.TokenEntry{
			ID:        candidate.ID + "-NATIVE",
			Kind:      entity.TokenNative,
			Symbol:    adapter.NativeSymbol(),
			RawAmount: nativeBalance,
			Decimals:  adapter.NativeDecimals(),
			Formatted: utils.FormatTokenAmount(nativeBalance, adapter.NativeDecimals()),
			Selected:  true,
		})
	} else if logSink != nil {
		logSink(fmt.Sprintf("Wallet %s has no %s balance.", display, adapter.NativeSymbol()))
	}

	requested := requestedTokensExcludingNative(candidate.RequestedTokens, adapter.NativeSymbol())
	switch {
	case len(requested) > 0:
		tokens = append(tokens, h.hydrateRequested(ctx, adapter, candidate, address, requested, logSink)...)
	case adapter.CanEnumerateHoldings():
		held, err := h.hydrateHeld(ctx, adapter, candidate, address, logSink)
		if err != nil {
			return entity.WalletInfo{}, fmt.Errorf("holdings enumeration for %s: %w", display, err)
		}
		tokens = append(tokens, held...)
	default:
		if logSink != nil {
			logSink(fmt.Sprintf("Wallet %s: no tokens requested and holdings enumeration is unavailable on this chain.", display))
		}
	}

	if tokens == nil {
		tokens = []entity.TokenEntry{}
	}
	return entity.WalletInfo{
		WalletCandidate: candidate,
		Address:         address,
		DisplayAddress:  display,
		Tokens:          tokens,
		Loading:         false,
	}, nil
}

// hydrateRequested reads each explicitly requested token. Unreadable tokens
// are logged and skipped; zero balances are reported as unselectable entries
// so the caller can see what was checked.
func (h *WalletHydrator) hydrateRequested(ctx context.Context, adapter port.ChainAdapter, candidate entity.WalletCandidate, address string, requested []string, logSink port.LogSink) []entity.TokenEntry {
	var out []entity.TokenEntry
	for _, token := range requested {
		balance, err := adapter.TokenBalance(ctx, address, token)
		if err != nil {
			if logSink != nil {
				logSink(fmt.Sprintf("Could not read token %s: %v", token, err))
			}
			continue
		}
		entry := h.buildEntry(ctx, adapter, candidate, balance)
		if !entry.HasBalance() {
			entry.Selected = false
			if balance.Exists {
				entry.Status = "zero balance"
			} else {
				entry.Status = "no token account found"
			}
			if logSink != nil {
				logSink(fmt.Sprintf("Token %s in wallet %s: %s, skipping.", token, utils.ShortAddress(address, 6, 4), entry.Status))
			}
		}
		out = append(out, entry)
	}
	return out
}

// hydrateHeld enumerates every held token with a positive balance. A failed
// enumeration fails the wallet; a failed label lookup never does.
func (h *WalletHydrator) hydrateHeld(ctx context.Context, adapter port.ChainAdapter, candidate entity.WalletCandidate, address string, logSink port.LogSink) ([]entity.TokenEntry, error) {
	holdings, err := adapter.EnumerateHoldings(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 && logSink != nil {
		logSink(fmt.Sprintf("Wallet %s holds no fungible tokens.", utils.ShortAddress(address, 6, 4)))
	}
	var out []entity.TokenEntry
	for _, balance := range holdings {
		if balance.Amount == nil || balance.Amount.Sign() <= 0 {
			continue
		}
		out = append(out, h.buildEntry(ctx, adapter, candidate, balance))
	}
	return out, nil
}

func (h *WalletHydrator) buildEntry(ctx context.Context, adapter port.ChainAdapter, candidate entity.WalletCandidate, balance entity.TokenBalance) entity.TokenEntry {
	symbol := balance.Symbol
	if symbol == "" {
		symbol = adapter.TokenLabel(ctx, balance.TokenAddress)
	}
	amount := balance.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	kind := entity.TokenAccountModel
	if adapter.Kind() == entity.ChainContractModel {
		kind = entity.TokenContractModel
	}
	return entity.TokenEntry{
		ID:           candidate.ID + "-" + balance.TokenAddress,
		Kind:         kind,
		Symbol:       symbol,
		TokenAddress: balance.TokenAddress,
		RawAmount:    amount,
		Decimals:     balance.Decimals,
		Formatted:    utils.FormatTokenAmount(amount, balance.Decimals),
		Selected:     amount.Sign() > 0,
	}
}

func requestedTokensExcludingNative(requested []string, nativeSymbol string) []string {
	var out []string
	for _, t := range requested {
		if strings.EqualFold(strings.TrimSpace(t), nativeSymbol) {
			continue
		}
		out = append(out, t)
	}
	return out
}
