package evm

import (
	"fmt"
	"regexp"
	"strings"
)

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// NormalizeKey validates a contract-model private key and returns it without
// the optional 0x prefix. Anything that is not exactly 64 hex characters after
// trimming is rejected here, before the key ever reaches the signing SDK.
func NormalizeKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	key = strings.TrimPrefix(key, "0x")
	key = strings.TrimPrefix(key, "0X")
	if !hexKeyPattern.MatchString(key) {
		return "", fmt.Errorf("private key must be 64 hex characters, got %d", len(key))
	}
	return key, nil
}
