package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
	"multisend/internal/pkg/metrics"
	"multisend/internal/pkg/utils"
)

// Batch-level precondition and lifecycle errors. Anything past the
// preconditions is recovered at token or wallet granularity and reported
// through the log sink and the summary counters instead.
var (
	ErrBatchAlreadyRunning = errors.New("a batch run is already in progress")
	ErrNoDestination       = errors.New("destination address is empty")
	ErrNothingSelected     = errors.New("no selected token with a positive balance")
)

// BatchOrchestrator executes a strictly sequential batch of outbound
// transfers: wallets in order, and within a wallet its selected tokens in
// order. One wallet's failure never aborts the batch, and the sequential
// ordering is what keeps per-address nonce/blockhash lineage correct without
// any cross-wallet coordination.
type BatchOrchestrator struct {
	provider port.AdapterProvider
	logger   port.Logger
	limiter  *rate.Limiter
	running  atomic.Bool
}

// NewBatchOrchestrator creates a new BatchOrchestrator. opsPerSecond paces
// chain operations to stay under RPC rate limits; it is a politeness
// mechanism, not a correctness one.
func NewBatchOrchestrator(provider port.AdapterProvider, logger port.Logger, opsPerSecond float64) *BatchOrchestrator {
	if opsPerSecond <= 0 {
		opsPerSecond = 2
	}
	return &BatchOrchestrator{
		provider: provider,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(opsPerSecond), 1),
	}
}

// Running reports whether a batch run is currently active.
func (o *BatchOrchestrator) Running() bool {
	return o.running.Load()
}

// Run executes the batch against the supplied destination. Preconditions are
// checked before any work starts; afterwards every (wallet, token) operation
// is isolated, logged, and counted. Cancelling ctx suspends further
// submissions before the next wallet/token boundary; transactions already
// broadcast are not rolled back.
func (o *BatchOrchestrator) Run(
	ctx context.Context,
	wallets []entity.WalletInfo,
	destination string,
	logSink port.LogSink,
	updateSink port.BalanceUpdateSink,
) (entity.BatchSummary, error) {
	summary := entity.BatchSummary{}

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return summary, ErrNoDestination
	}
	if totalSelected(wallets) == 0 {
		return summary, ErrNothingSelected
	}
	if !o.running.CompareAndSwap(false, true) {
		return summary, ErrBatchAlreadyRunning
	}
	defer o.running.Store(false)

	summary.RunID = uuid.NewString()
	metrics.BatchRunsTotal.Inc()
	o.logger.Info("Batch run started", "run_id", summary.RunID, "wallets", len(wallets), "destination", destination)
	logSink(fmt.Sprintf("Starting batch to %s (%d selected token(s)).", destination, totalSelected(wallets)))

walletLoop:
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		if !wallet.Usable() {
			continue
		}
		active := wallet.SelectedTokens()
		if len(active) == 0 {
			continue
		}

		adapter, err := o.provider.Adapter(wallet.Descriptor())
		if err != nil {
			logSink(fmt.Sprintf("Wallet %s: no chain adapter available: %v", wallet.DisplayAddress, err))
			summary.Failed += len(active)
			continue
		}
		if err := adapter.ValidateDestination(destination); err != nil {
			logSink(fmt.Sprintf("Destination %s is not valid for %s, skipping wallet %s.", destination, wallet.Chain, wallet.DisplayAddress))
			summary.Skipped += len(active)
			continue
		}

		for _, token := range active {
			if ctx.Err() != nil {
				summary.Cancelled = true
				break walletLoop
			}
			if err := o.limiter.Wait(ctx); err != nil {
				summary.Cancelled = true
				break walletLoop
			}
			summary.Attempted++
			o.sendOne(ctx, adapter, wallet, token, destination, &summary, logSink, updateSink)
		}
	}

	if summary.Cancelled {
		logSink("Batch run paused; remaining operations were not submitted.")
	}
	logSink(fmt.Sprintf("Batch finished: %d sent, %d failed, %d skipped.", summary.Succeeded, summary.Failed, summary.Skipped))
	o.logger.Info("Batch run finished",
		"run_id", summary.RunID,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"cancelled", summary.Cancelled)
	return summary, nil
}

// sendOne submits a single (wallet, token) operation and folds its outcome
// into the summary. Failures are contained here.
func (o *BatchOrchestrator) sendOne(
	ctx context.Context,
	adapter port.ChainAdapter,
	wallet entity.WalletInfo,
	token entity.TokenEntry,
	destination string,
	summary *entity.BatchSummary,
	logSink port.LogSink,
	updateSink port.BalanceUpdateSink,
) {
	chain := string(wallet.Chain)
	kind := string(token.Kind)

	var (
		receipt entity.TransferReceipt
		err     error
	)
	if token.Kind == entity.TokenNative {
		receipt, err = adapter.SendNative(ctx, wallet.PrivateKey, destination, token.RawAmount)
		if errors.Is(err, port.ErrInsufficientForFee) {
			logSink(fmt.Sprintf("Wallet %s: %s balance does not cover the fee, skipping.", wallet.DisplayAddress, token.Symbol))
			summary.Skipped++
			metrics.TransfersTotal.WithLabelValues(chain, kind, "skipped").Inc()
			return
		}
	} else {
		receipt, err = adapter.SendToken(ctx, wallet.PrivateKey, destination, token.TokenAddress, token.RawAmount)
	}

	if err != nil {
		logSink(fmt.Sprintf("Failed to send %s from wallet %s: %v", token.Symbol, wallet.DisplayAddress, err))
		o.logger.Warn("Transfer failed", "wallet", wallet.ID, "token", token.ID, "error", err)
		summary.Failed++
		metrics.TransfersTotal.WithLabelValues(chain, kind, "failed").Inc()
		return
	}

	logSink(fmt.Sprintf("Sent %s %s from %s, tx %s",
		utils.FormatTokenAmount(receipt.AmountSent, token.Decimals), token.Symbol, wallet.DisplayAddress, receipt.TxID))
	updateSink(wallet.ID, token.ID, big.NewInt(0))
	summary.Succeeded++
	metrics.TransfersTotal.WithLabelValues(chain, kind, "success").Inc()
}

func totalSelected(wallets []entity.WalletInfo) int {
	count := 0
	for _, w := range wallets {
		if !w.Usable() {
			continue
		}
		count += len(w.SelectedTokens())
	}
	return count
}
