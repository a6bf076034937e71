package preimage

// table is an open-addressing hash table with linear probing, keyed by Key.
// It is sized once from the expected entry count and grows only if the
// estimate was short.
type table struct {
	entries []entry
	mask    uint64
	n       int
}

type entry struct {
	key   Key
	value []byte
	used  bool
}

// newTable returns a table that holds hint entries at a load factor of at
// most 3/4 without growing.
func newTable(hint int) *table {
	size := uint64(8)
	for size*3 < uint64(hint)*4 {
		size <<= 1
	}
	return &table{entries: make([]entry, size), mask: size - 1}
}

func (t *table) get(k Key) ([]byte, bool) {
	for i := k.slot() & t.mask; ; i = (i + 1) & t.mask {
		e := &t.entries[i]
		if !e.used {
			return nil, false
		}
		if e.key == k {
			return e.value, true
		}
	}
}

// insert stores k -> v and reports whether k was newly added.
func (t *table) insert(k Key, v []byte) bool {
	if uint64(t.n+1)*4 > uint64(len(t.entries))*3 {
		t.grow()
	}
	for i := k.slot() & t.mask; ; i = (i + 1) & t.mask {
		e := &t.entries[i]
		if !e.used {
			*e = entry{key: k, value: v, used: true}
			t.n++
			return true
		}
		if e.key == k {
			e.value = v
			return false
		}
	}
}

func (t *table) grow() {
	old := t.entries
	t.entries = make([]entry, len(old)*2)
	t.mask = uint64(len(t.entries)) - 1
	t.n = 0
	for _, e := range old {
		if e.used {
			t.insert(e.key, e.value)
		}
	}
}
