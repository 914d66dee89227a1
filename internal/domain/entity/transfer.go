package entity

import "math/big"

// TransferReceipt is the outcome of one submitted chain operation.
// AmountSent is the amount that actually moved: rawAmount minus the fee
// reserve for native sends, the full rawAmount for token sends.
type TransferReceipt struct {
	TxID       string   `json:"txId"`
	AmountSent *big.Int `json:"amountSent"`
}

// BatchSummary is the final accounting of one batch run. Every selected
// (wallet, token) pair lands in exactly one of the three outcome counters.
type BatchSummary struct {
	RunID     string `json:"runId"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Cancelled bool   `json:"cancelled"`
}
