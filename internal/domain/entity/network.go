package entity

// ChainKind identifies the family a wallet belongs to. Account-model chains
// keep fungible balances in per-owner token accounts; contract-model chains
// keep them in contract storage.
type ChainKind string

const (
	ChainAccountModel  ChainKind = "account-model"
	ChainContractModel ChainKind = "contract-model"
)

// Environment selects the main or test variant of a chain.
type Environment string

const (
	EnvMainnet Environment = "mainnet"
	EnvTestnet Environment = "testnet"
)

// NetworkDescriptor is the typed result of classifying a free-text network
// label. The zero value is not a valid descriptor.
type NetworkDescriptor struct {
	Chain       ChainKind   `json:"chain"`
	Environment Environment `json:"environment"`
}

func (d NetworkDescriptor) String() string {
	return string(d.Chain) + ":" + string(d.Environment)
}
