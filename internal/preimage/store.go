package preimage

import (
	"encoding/binary"
	"encoding/hex"
	"slices"

	"github.com/zeebo/blake3"
)

// Store is an immutable mapping from preimage key to value.
type Store struct {
	tbl         *table
	fingerprint string
}

// Len returns the number of preimages.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.tbl.n
}

// Get returns the value for k. The returned slice must not be modified.
func (s *Store) Get(k Key) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	return s.tbl.get(k)
}

// Has reports whether k is present.
func (s *Store) Has(k Key) bool {
	_, ok := s.Get(k)
	return ok
}

// Keys returns all keys in ascending byte order.
func (s *Store) Keys() []Key {
	if s == nil {
		return nil
	}
	keys := make([]Key, 0, s.tbl.n)
	for _, e := range s.tbl.entries {
		if e.used {
			keys = append(keys, e.key)
		}
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// Range calls fn for every entry in table order until fn returns false.
func (s *Store) Range(fn func(Key, []byte) bool) {
	if s == nil {
		return
	}
	for _, e := range s.tbl.entries {
		if e.used && !fn(e.key, e.value) {
			return
		}
	}
}

// Fingerprint returns a BLAKE3 digest identifying the full preimage set.
// Two stores with the same entries have the same fingerprint regardless of
// the order they were loaded in.
func (s *Store) Fingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

func fingerprint(t *table, keys []Key) string {
	h := blake3.New()
	var lenBuf [8]byte
	for _, k := range keys {
		v, _ := t.get(k)
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(v)))
		_, _ = h.Write(k[:])
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(v)
	}
	return hex.EncodeToString(h.Sum(nil))
}
