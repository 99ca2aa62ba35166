package ledb

import (
	"encoding/hex"
	"log/slog"
)

// inc increments b in place, treating it as a big-endian unsigned integer.
// Returns false if the increment overflows (all bytes were 0xFF).
func inc(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xFF {
			b[i]++
			return true
		}
		b[i] = 0x00
	}
	return false
}

// dec decrements b in place, treating it as a big-endian unsigned integer.
// Returns false if the decrement underflows (all bytes were 0x00).
func dec(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] > 0x00 {
			b[i]--
			return true
		}
		b[i] = 0xFF
	}
	return false
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}
