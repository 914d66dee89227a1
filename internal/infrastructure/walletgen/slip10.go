package walletgen

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// SLIP-0010 ed25519 derivation. Only hardened children exist for this curve,
// so every path segment must carry the apostrophe.

const hardenedOffset = uint32(0x80000000)

type slipNode struct {
	key       []byte
	chainCode []byte
}

func masterNode(seed []byte) slipNode {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return slipNode{key: sum[:32], chainCode: sum[32:]}
}

func (n slipNode) child(index uint32) slipNode {
	var data [1 + 32 + 4]byte
	copy(data[1:], n.key)
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, n.chainCode)
	mac.Write(data[:])
	sum := mac.Sum(nil)
	return slipNode{key: sum[:32], chainCode: sum[32:]}
}

// deriveEd25519 walks a hardened BIP-32 style path (e.g. "m/44'/501'/0'/0'")
// over the seed and returns the 32-byte key material at the leaf.
func deriveEd25519(seed []byte, path string) ([]byte, error) {
	segments := strings.Split(strings.TrimSpace(path), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("derivation path %q must start with m/", path)
	}

	node := masterNode(seed)
	for _, segment := range segments[1:] {
		if !strings.HasSuffix(segment, "'") {
			return nil, fmt.Errorf("path segment %q is not hardened; ed25519 only supports hardened derivation", segment)
		}
		index, err := strconv.ParseUint(strings.TrimSuffix(segment, "'"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", segment, err)
		}
		node = node.child(uint32(index) + hardenedOffset)
	}
	return node.key, nil
}
