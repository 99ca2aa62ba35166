package ledb

import (
	"bytes"
	"testing"
)

func TestAppendRawGrows(t *testing.T) {
	var buf []byte
	buf = appendRaw(buf, []byte("abc"))
	buf = appendRaw(buf, []byte("def"))
	if !bytes.Equal(buf, []byte("abcdef")) {
		t.Fatalf("appendRaw = %q, wanted \"abcdef\"", buf)
	}
}

func TestBytesBuilderWrite(t *testing.T) {
	var bb bytesBuilder
	if _, err := bb.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bb.WriteByte('!'); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if _, err := bb.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(bb.Buf) != "hello !world" {
		t.Fatalf("bytesBuilder.Buf = %q, wanted \"hello !world\"", bb.Buf)
	}
}

func TestEnsureCapacityPreservesContent(t *testing.T) {
	buf := []byte("abc")
	grown := ensureCapacity(buf, 100)
	if !bytes.Equal(grown, []byte("abc")) {
		t.Fatalf("ensureCapacity corrupted content: %q", grown)
	}
	if cap(grown) < 100 {
		t.Fatalf("ensureCapacity cap = %d, wanted >= 100", cap(grown))
	}
}
