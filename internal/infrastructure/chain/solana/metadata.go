package solana

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/patrickmn/go-cache"

	"multisend/internal/pkg/utils"
)

// TokenLabel resolves a display label for a mint from its on-chain metadata
// account, preferring the symbol over the name. Lookups never fail: anything
// unresolvable falls back to an elided form of the mint address. Results,
// including the fallback, are cached.
func (a *Adapter) TokenLabel(ctx context.Context, tokenAddress string) string {
	if cached, found := a.labelCache.Get(tokenAddress); found {
		return cached.(string)
	}

	label := a.resolveLabel(ctx, tokenAddress)
	a.labelCache.Set(tokenAddress, label, cache.DefaultExpiration)
	return label
}

func (a *Adapter) resolveLabel(ctx context.Context, tokenAddress string) string {
	fallback := utils.ShortAddress(tokenAddress, 4, 4)

	mint, err := solanago.PublicKeyFromBase58(tokenAddress)
	if err != nil {
		return fallback
	}
	pda, err := metadataAddress(mint)
	if err != nil {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	acc, err := a.client.GetAccountInfo(callCtx, pda)
	if err != nil {
		a.logger.Debug("No metadata account for mint", "mint", tokenAddress, "error", err)
		return fallback
	}

	name, symbol, err := parseMetadataLabel(acc.GetBinary())
	if err != nil {
		a.logger.Debug("Could not parse metadata account", "mint", tokenAddress, "error", err)
		return fallback
	}
	if symbol != "" {
		return symbol
	}
	if name != "" {
		return name
	}
	return fallback
}

// metadataAddress derives the metadata PDA for a mint.
func metadataAddress(mint solanago.PublicKey) (solanago.PublicKey, error) {
	pda, _, err := solanago.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			solanago.TokenMetadataProgramID.Bytes(),
			mint.Bytes(),
		},
		solanago.TokenMetadataProgramID,
	)
	return pda, err
}

// parseMetadataLabel extracts the name and symbol strings from a raw metadata
// account. The layout starts with a one-byte key discriminant followed by the
// update authority and mint public keys; name and symbol are borsh strings
// padded with NUL bytes to their fixed on-chain capacity.
func parseMetadataLabel(data []byte) (name, symbol string, err error) {
	const header = 1 + 32 + 32

	offset := header
	name, offset, err = readBorshString(data, offset)
	if err != nil {
		return "", "", fmt.Errorf("name field: %w", err)
	}
	symbol, _, err = readBorshString(data, offset)
	if err != nil {
		return "", "", fmt.Errorf("symbol field: %w", err)
	}
	return name, symbol, nil
}

func readBorshString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", 0, fmt.Errorf("truncated length prefix at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if length < 0 || offset+length > len(data) {
		return "", 0, fmt.Errorf("string of length %d overruns account data", length)
	}
	value := strings.TrimRight(string(data[offset:offset+length]), "\x00")
	return strings.TrimSpace(value), offset + length, nil
}
