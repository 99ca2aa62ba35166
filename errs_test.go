package ledb

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("boom")
	e := schemaErrf("post", "title", base, "unique violation for key %x", []byte{1, 2})
	msg := e.Error()
	if !strings.Contains(msg, "schema:post.title") {
		t.Fatalf("Error() = %q, wanted collection/index prefix", msg)
	}
	if !strings.Contains(msg, "boom") {
		t.Fatalf("Error() = %q, wanted wrapped cause", msg)
	}
	if !errors.Is(e, base) {
		t.Fatalf("errors.Is should see through Unwrap")
	}
}

func TestDataErrorTruncation(t *testing.T) {
	data := make([]byte, 200)
	err := dataErrf(data, 10, nil, "bad header")
	if !strings.Contains(err.Error(), "...") {
		t.Fatalf("Error() on long data should truncate, got %q", err.Error())
	}

	short := dataErrf([]byte{1, 2, 3}, 0, nil, "bad header")
	if strings.Contains(short.Error(), "...") {
		t.Fatalf("Error() on short data should not truncate, got %q", short.Error())
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindStorage:  "storage",
		KindSchema:   "schema",
		KindQuery:    "query",
		KindInternal: "internal",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, wanted %q", k, got, want)
		}
	}
}
