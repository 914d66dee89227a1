package utils

import (
	"math/big"
	"strings"
)

// DisplayPrecision is the number of fractional digits kept when formatting
// token amounts for display. Digits beyond it are truncated, which is a
// documented lossy boundary of the display layer only; raw amounts are never
// rounded.
const DisplayPrecision = 6

// FormatTokenAmount converts an integer amount in the smallest denomination
// into a human-readable decimal string using exact integer math. Trailing
// zeros in the fraction are trimmed and a zero amount is always "0".
func FormatTokenAmount(amount *big.Int, decimals uint8) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	abs := new(big.Int).Abs(amount)
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	integerPart, fractionPart := new(big.Int).QuoRem(abs, base, new(big.Int))

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}
	if fractionPart.Sign() == 0 {
		return sign + integerPart.String()
	}

	fraction := fractionPart.String()
	if pad := int(decimals) - len(fraction); pad > 0 {
		fraction = strings.Repeat("0", pad) + fraction
	}
	if len(fraction) > DisplayPrecision {
		fraction = fraction[:DisplayPrecision]
	}
	fraction = strings.TrimRight(fraction, "0")
	if fraction == "" {
		return sign + integerPart.String()
	}
	return sign + integerPart.String() + "." + fraction
}

// ShortAddress elides the middle of an address for display, keeping head and
// tail characters. Addresses short enough to not benefit are returned as-is.
func ShortAddress(addr string, head, tail int) string {
	if addr == "" {
		return ""
	}
	if len(addr) <= head+tail+3 {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}

// UniqueTokens trims, drops empties, and deduplicates a token identifier
// list, preserving first-appearance order.
func UniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
