package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"zero", big.NewInt(0), 9, "0"},
		{"nil treated as zero", nil, 9, "0"},
		{"zero decimals is plain integer", big.NewInt(100), 0, "100"},
		{"one and a half sol", big.NewInt(1500000000), 9, "1.5"},
		{"whole units trim the point", big.NewInt(3000000000), 9, "3"},
		{"leading fraction zeros kept", big.NewInt(1001), 9, "0.000001"},
		{"beyond display precision truncated", big.NewInt(123456789), 9, "0.123456"},
		{"below display precision dropped", big.NewInt(1), 9, "0"},
		{"eighteen decimals", big.NewInt(1).Mul(big.NewInt(25), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)), 18, "2.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTokenAmount(tc.amount, tc.decimals))
		})
	}
}

func TestFormatTokenAmountRoundTrip(t *testing.T) {
	// Within the display precision the formatted string rescaled by 10^d must
	// reconstruct the raw amount exactly.
	amounts := []int64{0, 1000, 500000, 1500000000, 987654000}
	for _, a := range amounts {
		raw := big.NewInt(a)
		s := FormatTokenAmount(raw, 9)

		intPart, fracPart := s, ""
		if i := indexOf(s, '.'); i >= 0 {
			intPart, fracPart = s[:i], s[i+1:]
		}
		for len(fracPart) < 9 {
			fracPart += "0"
		}
		rebuilt, ok := new(big.Int).SetString(intPart+fracPart, 10)
		require.True(t, ok)
		assert.Equal(t, 0, rebuilt.Cmp(raw), "round-trip mismatch for %d (%q)", a, s)
	}
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "", ShortAddress("", 6, 4))
	assert.Equal(t, "abc", ShortAddress("abc", 6, 4))
	assert.Equal(t, "0x1234...cdef", ShortAddress("0x123456789abcdef0123456789abcdef012345cdef", 6, 4))
}

func TestUniqueTokens(t *testing.T) {
	got := UniqueTokens([]string{" mintA ", "", "mintB", "mintA", "  "})
	assert.Equal(t, []string{"mintA", "mintB"}, got)
}
