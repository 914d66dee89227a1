package service

import (
	"fmt"
	"strings"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
	"multisend/internal/pkg/utils"
)

// GroupIntoCandidates merges parsed rows into unique-keypair candidates.
// Rows sharing a classified (chain, environment, trimmed key) triple collapse
// into one candidate whose token set is the deduplicated union of the rows'
// token cells; candidates keep the first-appearance order of their key.
// Unclassifiable rows are logged to the sink and dropped.
func GroupIntoCandidates(rows []entity.ParsedRow, logSink port.LogSink) []entity.WalletCandidate {
	grouped := make(map[string]*entity.WalletCandidate)
	var order []string

	for i, row := range rows {
		descriptor, ok := ClassifyNetwork(row.Network)
		if !ok {
			if logSink != nil {
				logSink(fmt.Sprintf("Skipping row %d: network %q is not supported.", i+1, row.Network))
			}
			continue
		}
		key := fmt.Sprintf("%s:%s:%s", descriptor.Chain, descriptor.Environment, strings.TrimSpace(row.PrivateKey))
		if existing, found := grouped[key]; found {
			if row.Token != "" {
				existing.RequestedTokens = append(existing.RequestedTokens, row.Token)
			}
			continue
		}
		candidate := &entity.WalletCandidate{
			ID:              key,
			Chain:           descriptor.Chain,
			Environment:     descriptor.Environment,
			PrivateKey:      strings.TrimSpace(row.PrivateKey),
			RawNetworkLabel: row.Network,
		}
		if row.Token != "" {
			candidate.RequestedTokens = []string{row.Token}
		}
		grouped[key] = candidate
		order = append(order, key)
	}

	out := make([]entity.WalletCandidate, 0, len(order))
	for _, key := range order {
		candidate := grouped[key]
		candidate.RequestedTokens = utils.UniqueTokens(candidate.RequestedTokens)
		out = append(out, *candidate)
	}
	return out
}
