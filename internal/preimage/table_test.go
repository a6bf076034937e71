package preimage

import (
	"encoding/binary"
	"testing"
)

func TestTable_CollidingPrefixes(t *testing.T) {
	tbl := newTable(4)

	// Same 8-byte prefix forces every key into one collision chain.
	var keys []Key
	for i := 0; i < 40; i++ {
		var k Key
		binary.LittleEndian.PutUint64(k[:8], 42)
		k[31] = byte(i)
		keys = append(keys, k)
		if !tbl.insert(k, []byte{byte(i)}) {
			t.Fatalf("insert %d reported existing key", i)
		}
	}
	if tbl.n != len(keys) {
		t.Fatalf("n = %d, want %d", tbl.n, len(keys))
	}
	for i, k := range keys {
		v, ok := tbl.get(k)
		if !ok || len(v) != 1 || v[0] != byte(i) {
			t.Fatalf("get %d = %v, %v", i, v, ok)
		}
	}
}

func TestTable_InsertExisting(t *testing.T) {
	tbl := newTable(1)
	var k Key
	k[0] = 1

	if !tbl.insert(k, []byte("a")) {
		t.Fatal("first insert should add")
	}
	if tbl.insert(k, []byte("b")) {
		t.Fatal("second insert should replace")
	}
	if v, _ := tbl.get(k); string(v) != "b" {
		t.Fatalf("value = %q, want b", v)
	}
	if tbl.n != 1 {
		t.Fatalf("n = %d, want 1", tbl.n)
	}
}

func TestNewTable_PresizedForHint(t *testing.T) {
	tbl := newTable(1000)
	size := len(tbl.entries)
	for i := 0; i < 1000; i++ {
		var k Key
		binary.LittleEndian.PutUint64(k[:8], uint64(i)*0x9e3779b97f4a7c15)
		tbl.insert(k, nil)
	}
	if len(tbl.entries) != size {
		t.Fatalf("table grew from %d to %d despite size hint", size, len(tbl.entries))
	}
	if size&(size-1) != 0 {
		t.Fatalf("size %d is not a power of two", size)
	}
}

func TestParseKey(t *testing.T) {
	hexKey := "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	k, err := ParseKey(hexKey)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if k.String() != hexKey {
		t.Fatalf("String() = %s", k.String())
	}
	if k.Hash().Hex() != "0x"+hexKey {
		t.Fatalf("Hash() = %s", k.Hash().Hex())
	}

	for _, bad := range []string{"", "zz", "0x" + hexKey, hexKey[:62]} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("ParseKey(%q) should fail", bad)
		}
	}
}
