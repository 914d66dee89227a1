package entity

import "math/big"

// TokenKind distinguishes the native asset from the two fungible token models.
type TokenKind string

const (
	TokenNative        TokenKind = "native"
	TokenAccountModel  TokenKind = "account-model-token"
	TokenContractModel TokenKind = "contract-model-token"
)

// TokenEntry is one balance line under a hydrated wallet. RawAmount is always
// the unsigned integer amount in the smallest denomination; Decimals is fixed
// at hydration time and reused unchanged for every later re-format.
type TokenEntry struct {
	ID           string    `json:"id"`
	Kind         TokenKind `json:"kind"`
	Symbol       string    `json:"symbol"`
	TokenAddress string    `json:"tokenAddress,omitempty"`
	RawAmount    *big.Int  `json:"rawAmount"`
	Decimals     uint8     `json:"decimals"`
	Formatted    string    `json:"formatted"`
	Selected     bool      `json:"selected"`
	Status       string    `json:"status,omitempty"`
}

// HasBalance reports whether the entry holds a positive amount.
func (t TokenEntry) HasBalance() bool {
	return t.RawAmount != nil && t.RawAmount.Sign() > 0
}

// TokenBalance is the result of a single chain-side balance read, before it is
// shaped into a TokenEntry. Exists is false when the owner has no holding
// account (account-model) for the token; Amount is zero in that case.
type TokenBalance struct {
	TokenAddress string
	Symbol       string
	Amount       *big.Int
	Decimals     uint8
	Exists       bool
}
