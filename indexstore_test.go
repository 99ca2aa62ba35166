package ledb

import "testing"

func newTestBucket(t *testing.T) storageBucket {
	t.Helper()
	st := newMemStorage()
	tx, err := st.BeginTx(true)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	b, err := tx.CreateBucket("ix", "")
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	return b
}

func docWithField(key string, v Node) Document {
	return Document{Root: ObjectNode(Fld(key, v))}
}

func TestIndexStoreUniqueInsertAndLookup(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "slug", Kind: IndexUnique, KeyType: KeyTypeString}, newTestBucket(t))

	doc := docWithField("slug", StringNode("hello"))
	if err := ix.insert(1, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("hello")}, false)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("scanPrimaries(eq hello) = %v, wanted [1]", got)
	}
}

func TestIndexStoreUniqueViolation(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "slug", Kind: IndexUnique, KeyType: KeyTypeString}, newTestBucket(t))

	if err := ix.insert(1, docWithField("slug", StringNode("dup"))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := ix.insert(2, docWithField("slug", StringNode("dup")))
	if err == nil {
		t.Fatalf("expected unique index violation")
	}
	ledbErr, ok := err.(*Error)
	if !ok || ledbErr.Kind != KindSchema {
		t.Fatalf("expected KindSchema error, got %v", err)
	}
}

func TestIndexStoreDuplicatedMultiplePrimaries(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "tag", Kind: IndexDuplicated, KeyType: KeyTypeString}, newTestBucket(t))

	if err := ix.insert(1, docWithField("tag", StringNode("go"))); err != nil {
		t.Fatalf("insert(1): %v", err)
	}
	if err := ix.insert(2, docWithField("tag", StringNode("go"))); err != nil {
		t.Fatalf("insert(2): %v", err)
	}
	if err := ix.insert(3, docWithField("tag", StringNode("rust"))); err != nil {
		t.Fatalf("insert(3): %v", err)
	}

	got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("go")}, false)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("scanPrimaries(eq go) = %v, wanted [1 2]", got)
	}
}

func TestIndexStoreRemove(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "tag", Kind: IndexDuplicated, KeyType: KeyTypeString}, newTestBucket(t))
	doc := docWithField("tag", StringNode("go"))
	if err := ix.insert(1, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ix.remove(1, doc); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("go")}, false)
	if len(got) != 0 {
		t.Fatalf("scanPrimaries after remove = %v, wanted empty", got)
	}
}

func TestIndexStoreUpdateDiffsMultiset(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "tag", Kind: IndexUnique, KeyType: KeyTypeString}, newTestBucket(t))
	oldDoc := docWithField("tag", StringNode("a"))
	if err := ix.insert(1, oldDoc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Updating to the same value must not trip the unique check against
	// the document's own entry.
	if err := ix.update(1, oldDoc, oldDoc); err != nil {
		t.Fatalf("update (no-op): %v", err)
	}
	got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("a")}, false)
	if len(got) != 1 {
		t.Fatalf("scanPrimaries after no-op update = %v, wanted [1]", got)
	}

	newDoc := docWithField("tag", StringNode("b"))
	if err := ix.update(1, oldDoc, newDoc); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("a")}, false); len(got) != 0 {
		t.Fatalf("scanPrimaries(a) after update = %v, wanted empty", got)
	}
	if got := ix.scanPrimaries(rangeCond{kind: cmpEq, value: StringNode("b")}, false); len(got) != 1 || got[0] != 1 {
		t.Fatalf("scanPrimaries(b) after update = %v, wanted [1]", got)
	}
}

func TestIndexStoreScanRangesLtGtBw(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "n", Kind: IndexDuplicated, KeyType: KeyTypeInt}, newTestBucket(t))
	for i, v := range []int64{1, 2, 3, 4, 5} {
		if err := ix.insert(uint64(i+1), docWithField("n", IntNode(v))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	lt := ix.scanPrimaries(rangeCond{kind: cmpLt, value: IntNode(3)}, false)
	if len(lt) != 2 {
		t.Fatalf("scanPrimaries(lt 3) = %v, wanted 2 entries", lt)
	}
	ge := ix.scanPrimaries(rangeCond{kind: cmpGe, value: IntNode(3)}, false)
	if len(ge) != 3 {
		t.Fatalf("scanPrimaries(ge 3) = %v, wanted 3 entries", ge)
	}
	gt := ix.scanPrimaries(rangeCond{kind: cmpGt, value: IntNode(3)}, false)
	if len(gt) != 2 {
		t.Fatalf("scanPrimaries(gt 3) = %v, wanted 2 entries", gt)
	}
	bw := ix.scanPrimaries(rangeCond{kind: cmpBw, lo: IntNode(2), hi: IntNode(4), loIncl: true, hiIncl: true}, false)
	if len(bw) != 3 {
		t.Fatalf("scanPrimaries(bw [2,4]) = %v, wanted 3 entries", bw)
	}
}

func TestIndexStoreScanReverse(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "n", Kind: IndexDuplicated, KeyType: KeyTypeInt}, newTestBucket(t))
	for i, v := range []int64{1, 2, 3} {
		if err := ix.insert(uint64(i+1), docWithField("n", IntNode(v))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	got := ix.scanPrimaries(rangeCond{kind: cmpHas}, true)
	if len(got) != 3 || got[0] != 3 || got[2] != 1 {
		t.Fatalf("scanPrimaries(has, reverse) = %v, wanted [3 2 1]", got)
	}
}

func TestIndexStoreMismatchedTypeContributesNoKey(t *testing.T) {
	ix := newIndexStore(IndexDef{Path: "n", Kind: IndexDuplicated, KeyType: KeyTypeInt}, newTestBucket(t))
	doc := docWithField("n", StringNode("not a number"))
	if err := ix.insert(1, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := ix.scanPrimaries(rangeCond{kind: cmpHas}, false)
	if len(got) != 0 {
		t.Fatalf("scanPrimaries(has) = %v, wanted empty (type mismatch)", got)
	}
}
