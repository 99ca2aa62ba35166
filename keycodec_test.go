package ledb

import (
	"bytes"
	"math"
	"sort"
	"testing"
)

func encodeOrPanic(t *testing.T, keyType KeyType, n Node) []byte {
	t.Helper()
	buf, ok := EncodeKey(nil, keyType, n)
	if !ok {
		t.Fatalf("EncodeKey(%v, %+v) failed", keyType, n)
	}
	return buf
}

func TestKeyCodecIntOrdering(t *testing.T) {
	vals := []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64}
	var keys [][]byte
	for _, v := range vals {
		keys = append(keys, encodeOrPanic(t, KeyTypeInt, IntNode(v)))
	}
	assertSortedAndDistinct(t, keys)
}

func TestKeyCodecFloatOrdering(t *testing.T) {
	vals := []float64{math.Inf(-1), -1e300, -1.5, -0.0001, 0, 0.0001, 1.5, 1e300, math.Inf(1)}
	var keys [][]byte
	for _, v := range vals {
		keys = append(keys, encodeOrPanic(t, KeyTypeFloat, FloatNode(v)))
	}
	assertSortedAndDistinct(t, keys)
}

func TestKeyCodecFloatNaNRejected(t *testing.T) {
	if _, ok := EncodeKey(nil, KeyTypeFloat, FloatNode(math.NaN())); ok {
		t.Fatalf("EncodeKey should reject NaN")
	}
}

func TestKeyCodecBoolOrdering(t *testing.T) {
	f := encodeOrPanic(t, KeyTypeBool, BoolNode(false))
	tr := encodeOrPanic(t, KeyTypeBool, BoolNode(true))
	if bytes.Compare(f, tr) >= 0 {
		t.Fatalf("false should sort before true")
	}
}

func TestKeyCodecStringOrdering(t *testing.T) {
	vals := []string{"", "a", "aa", "ab", "b", "\x00"}
	var keys [][]byte
	for _, v := range vals {
		keys = append(keys, encodeOrPanic(t, KeyTypeString, StringNode(v)))
	}
	// "" < "\x00" < "a" < "aa" < "ab" < "b" lexicographically; re-sort input
	// to what byte order actually gives and compare positions are stable.
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return bytes.Compare(keys[idx[i]], keys[idx[j]]) < 0 })
	for i := 1; i < len(idx); i++ {
		if bytes.Compare(keys[idx[i-1]], keys[idx[i]]) >= 0 {
			t.Fatalf("keys not strictly increasing after sort")
		}
	}
}

func TestKeyCodecRoundTripFixed(t *testing.T) {
	cases := []struct {
		kt KeyType
		n  Node
	}{
		{KeyTypeBool, BoolNode(true)},
		{KeyTypeBool, BoolNode(false)},
		{KeyTypeInt, IntNode(-42)},
		{KeyTypeInt, IntNode(42)},
		{KeyTypeFloat, FloatNode(-3.25)},
		{KeyTypeFloat, FloatNode(3.25)},
	}
	for _, c := range cases {
		buf := encodeOrPanic(t, c.kt, c.n)
		got, rest, ok := DecodeFixedKey(c.kt, buf)
		if !ok {
			t.Fatalf("DecodeFixedKey(%v) failed", c.kt)
		}
		if len(rest) != 0 {
			t.Fatalf("expected no remaining bytes, got %d", len(rest))
		}
		switch c.kt {
		case KeyTypeBool:
			if got.Bool != c.n.Bool {
				t.Fatalf("bool round trip: got %v want %v", got.Bool, c.n.Bool)
			}
		case KeyTypeInt:
			if got.Int != c.n.Int {
				t.Fatalf("int round trip: got %v want %v", got.Int, c.n.Int)
			}
		case KeyTypeFloat:
			if got.Float != c.n.Float {
				t.Fatalf("float round trip: got %v want %v", got.Float, c.n.Float)
			}
		}
	}
}

func TestKeyCodecMismatchedTypeFails(t *testing.T) {
	if _, ok := EncodeKey(nil, KeyTypeInt, StringNode("x")); ok {
		t.Fatalf("EncodeKey should fail on kind mismatch")
	}
}

func TestEncodeDecodePrimary(t *testing.T) {
	buf := EncodePrimary(nil, 123456)
	got, ok := DecodePrimary(buf)
	if !ok || got != 123456 {
		t.Fatalf("DecodePrimary = %v, %v", got, ok)
	}
}

func assertSortedAndDistinct(t *testing.T, keys [][]byte) {
	t.Helper()
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			t.Fatalf("keys[%d] >= keys[%d]: %x >= %x", i-1, i, keys[i-1], keys[i])
		}
	}
}
