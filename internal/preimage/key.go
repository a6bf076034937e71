package preimage

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// KeyLength is the size of a preimage key in bytes.
const KeyLength = 32

// Key identifies a preimage by the hash of its content.
type Key [KeyLength]byte

// ParseKey decodes a hex string (no 0x prefix) into a Key.
func ParseKey(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != KeyLength {
		return k, fmt.Errorf("decoded length %d, want %d", len(raw), KeyLength)
	}
	copy(k[:], raw)
	return k, nil
}

// KeyFromFileName decodes the key a preimage file name encodes, ignoring
// its last extension.
func KeyFromFileName(name string) (Key, error) {
	return ParseKey(stem(name))
}

// String returns the lowercase hex form used as the on-disk file stem.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Hash converts the key to a go-ethereum hash.
func (k Key) Hash() common.Hash {
	return common.Hash(k)
}

// Compare orders keys bytewise.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k[:], other[:])
}

// slot returns the table hash for the key. Keys are cryptographic digests
// and already uniformly distributed, so a prefix is as good as a full hash.
func (k Key) slot() uint64 {
	return binary.LittleEndian.Uint64(k[:8])
}
