package service

import (
	"strings"

	"multisend/internal/domain/entity"
)

// ClassifyNetwork maps a free-text network label onto a typed descriptor.
// Matching is substring-based and case-insensitive; the account-model branch
// is checked first, so a label containing both families' markers resolves to
// the account-model chain. That precedence is accepted behavior and covered
// by tests. Unrecognized labels return ok=false and the row is dropped by
// the caller.
func ClassifyNetwork(label string) (entity.NetworkDescriptor, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return entity.NetworkDescriptor{}, false
	}
	if strings.Contains(normalized, "sol") {
		env := entity.EnvMainnet
		if strings.Contains(normalized, "dev") {
			env = entity.EnvTestnet
		}
		return entity.NetworkDescriptor{Chain: entity.ChainAccountModel, Environment: env}, true
	}
	if strings.Contains(normalized, "bsc") || strings.Contains(normalized, "bnb") {
		env := entity.EnvMainnet
		if strings.Contains(normalized, "test") || strings.Contains(normalized, "chapel") {
			env = entity.EnvTestnet
		}
		return entity.NetworkDescriptor{Chain: entity.ChainContractModel, Environment: env}, true
	}
	return entity.NetworkDescriptor{}, false
}
