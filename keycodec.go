package ledb

import (
	"encoding/binary"
	"math"
)

// KeyType names one of the fixed palette of types a secondary index can be
// declared over. A document field whose extracted value doesn't match the
// index's declared KeyType contributes no key for that document (not an
// error — see EncodeKey and indexStore.extractKeys).
type KeyType int

const (
	KeyTypeBool KeyType = iota
	KeyTypeInt
	KeyTypeFloat
	KeyTypeString
	KeyTypeBinary
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeBool:
		return "bool"
	case KeyTypeInt:
		return "int"
	case KeyTypeFloat:
		return "float"
	case KeyTypeString:
		return "string"
	case KeyTypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// NodeKeyType reports the KeyType a node's runtime kind corresponds to, and
// whether the node has one at all (arrays, objects, and null never do).
func NodeKeyType(n Node) (KeyType, bool) {
	switch n.Kind {
	case KindBool:
		return KeyTypeBool, true
	case KindInt:
		return KeyTypeInt, true
	case KindFloat:
		return KeyTypeFloat, true
	case KindString:
		return KeyTypeString, true
	case KindBinary:
		return KeyTypeBinary, true
	default:
		return 0, false
	}
}

// EncodeKey appends the order-preserving encoding of n to buf, returning the
// grown slice. The encoding's byte-lexicographic order matches n's logical
// order among values of the same KeyType. Reports false (leaving buf
// untouched) if n's kind doesn't match keyType, or n is a NaN float.
func EncodeKey(buf []byte, keyType KeyType, n Node) ([]byte, bool) {
	switch keyType {
	case KeyTypeBool:
		if n.Kind != KindBool {
			return buf, false
		}
		if n.Bool {
			return append(buf, 1), true
		}
		return append(buf, 0), true

	case KeyTypeInt:
		if n.Kind != KindInt {
			return buf, false
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(n.Int)^signBit)
		return append(buf, b[:]...), true

	case KeyTypeFloat:
		if n.Kind != KindFloat {
			return buf, false
		}
		if math.IsNaN(n.Float) {
			return buf, false
		}
		bits := math.Float64bits(n.Float)
		if n.Float >= 0 {
			bits ^= signBit
		} else {
			bits = ^bits
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], bits)
		return append(buf, b[:]...), true

	case KeyTypeString:
		if n.Kind != KindString {
			return buf, false
		}
		return append(buf, n.String...), true

	case KeyTypeBinary:
		if n.Kind != KindBinary {
			return buf, false
		}
		return append(buf, n.Binary...), true

	default:
		return buf, false
	}
}

// signBit is the uint64 with only the most significant bit set: XOR-ing it
// into a two's-complement integer (or a non-negative float's bit pattern)
// flips the sign bit, which is the classic trick for making signed values
// sort correctly as unsigned big-endian bytes.
const signBit = uint64(1) << 63

// DecodeFixedKey decodes a fixed-width key (bool/int/float) from the front
// of buf, returning the remaining bytes. String/binary keys have no
// self-delimiting width: callers decode them by taking the whole remaining
// span (they are always the last component of a physical key, aside from
// the trailing primary on a Duplicated index, whose width is fixed at 8).
func DecodeFixedKey(keyType KeyType, buf []byte) (Node, []byte, bool) {
	switch keyType {
	case KeyTypeBool:
		if len(buf) < 1 {
			return Node{}, buf, false
		}
		return BoolNode(buf[0] != 0), buf[1:], true

	case KeyTypeInt:
		if len(buf) < 8 {
			return Node{}, buf, false
		}
		v := int64(binary.BigEndian.Uint64(buf[:8]) ^ signBit)
		return IntNode(v), buf[8:], true

	case KeyTypeFloat:
		if len(buf) < 8 {
			return Node{}, buf, false
		}
		bits := binary.BigEndian.Uint64(buf[:8])
		if bits&signBit != 0 {
			bits ^= signBit
		} else {
			bits = ^bits
		}
		return FloatNode(math.Float64frombits(bits)), buf[8:], true

	default:
		return Node{}, buf, false
	}
}

// DecodeVarKey decodes a string or binary key that occupies the rest of
// buf (after any trailing primary suffix has already been split off by the
// caller, for Duplicated indexes).
func DecodeVarKey(keyType KeyType, buf []byte) Node {
	switch keyType {
	case KeyTypeString:
		return StringNode(string(buf))
	case KeyTypeBinary:
		return BinaryNode(append([]byte(nil), buf...))
	default:
		return Node{}
	}
}

// FixedWidth reports the encoded width of a fixed-width KeyType, or 0 for
// string/binary (variable width).
func FixedWidth(keyType KeyType) int {
	switch keyType {
	case KeyTypeBool:
		return 1
	case KeyTypeInt, KeyTypeFloat:
		return 8
	default:
		return 0
	}
}

// primaryWidth is the fixed width of an encoded primary key, used as the
// suffix on Duplicated-index physical keys.
const primaryWidth = 8

// EncodePrimary encodes a primary key as 8 bytes big-endian, matching the
// counter cell stored in a collection's meta bucket.
func EncodePrimary(buf []byte, primary uint64) []byte {
	var b [primaryWidth]byte
	binary.BigEndian.PutUint64(b[:], primary)
	return append(buf, b[:]...)
}

// DecodePrimary reads the trailing 8-byte primary off a Duplicated-index
// physical key.
func DecodePrimary(buf []byte) (uint64, bool) {
	if len(buf) < primaryWidth {
		return 0, false
	}
	return binary.BigEndian.Uint64(buf[len(buf)-primaryWidth:]), true
}
