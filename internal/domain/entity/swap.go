package entity

import "math/big"

// SwapQuoteRequest asks a DEX for the expected output of selling AmountIn of
// the input token. Token addresses use the chain's own format; the native
// asset is requested with an empty InputToken. Wallet is optional: venues
// that build transactions server-side need it to fill in the signer.
type SwapQuoteRequest struct {
	Descriptor  NetworkDescriptor `json:"descriptor"`
	InputToken  string            `json:"inputToken,omitempty"`
	OutputToken string            `json:"outputToken"`
	AmountIn    *big.Int          `json:"amountIn"`
	SlippageBps int               `json:"slippageBps"`
	Wallet      string            `json:"wallet,omitempty"`
}

// SwapQuote is a DEX quote. UnsignedTx carries a server-built transaction
// (base64) for venues that return one; it is empty for on-chain quoters.
type SwapQuote struct {
	AmountOut    *big.Int `json:"amountOut"`
	MinAmountOut *big.Int `json:"minAmountOut"`
	UnsignedTx   string   `json:"unsignedTx,omitempty"`
	Venue        string   `json:"venue"`
}
