package port

import "math/big"

// LogSink receives the human-readable progress lines that hydration and batch
// runs stream back to the caller. Sinks are called inline on the
// orchestrator's thread of control and must be cheap.
type LogSink func(entry string)

// BalanceUpdateSink receives post-transfer balance updates so the caller's
// view of a wallet reflects the send without a full re-hydration.
type BalanceUpdateSink func(walletID, tokenID string, rawAmount *big.Int)
