package entity

// WalletCandidate is a deduplicated, not-yet-queried wallet identity produced
// by grouping import rows. One candidate exists per unique
// (chain, environment, privateKey) triple; RequestedTokens is the merged,
// deduplicated union of the token cells of every row sharing that triple.
type WalletCandidate struct {
	ID              string      `json:"id"`
	Chain           ChainKind   `json:"chain"`
	Environment     Environment `json:"environment"`
	PrivateKey      string      `json:"-"`
	RawNetworkLabel string      `json:"rawNetworkLabel"`
	RequestedTokens []string    `json:"requestedTokens"`
}

// Descriptor returns the candidate's typed network descriptor.
func (c WalletCandidate) Descriptor() NetworkDescriptor {
	return NetworkDescriptor{Chain: c.Chain, Environment: c.Environment}
}

// WalletInfo is a hydrated candidate. It is created with Loading=true and an
// empty token list as soon as grouping finishes, then replaced atomically once
// hydration succeeds, or marked with Error when the whole wallet is unusable.
// A WalletInfo is only ever mutated by the session that owns it.
type WalletInfo struct {
	WalletCandidate
	Address        string       `json:"address,omitempty"`
	DisplayAddress string       `json:"displayAddress,omitempty"`
	Tokens         []TokenEntry `json:"tokens"`
	Loading        bool         `json:"loading"`
	Error          string       `json:"error,omitempty"`
}

// Usable reports whether the wallet finished hydration without a wallet-level
// error and can participate in a batch run.
func (w WalletInfo) Usable() bool {
	return !w.Loading && w.Error == ""
}

// SelectedTokens returns the entries that are selected and hold a positive
// balance, in display order.
func (w WalletInfo) SelectedTokens() []TokenEntry {
	var out []TokenEntry
	for _, t := range w.Tokens {
		if t.Selected && t.HasBalance() {
			out = append(out, t)
		}
	}
	return out
}
