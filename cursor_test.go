package ledb

import "testing"

func u64s(vs ...uint64) []uint64 { return vs }

func TestIntersectSorted(t *testing.T) {
	got := intersectSorted([][]uint64{u64s(1, 2, 3, 4), u64s(2, 4, 6)}, false)
	want := u64s(2, 4)
	if len(got) != len(want) {
		t.Fatalf("intersectSorted = %v, wanted %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("intersectSorted = %v, wanted %v", got, want)
		}
	}
}

func TestIntersectSortedReverse(t *testing.T) {
	got := intersectSorted([][]uint64{u64s(4, 3, 2, 1), u64s(4, 2)}, true)
	want := u64s(4, 2)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("intersectSorted (reverse) = %v, wanted %v", got, want)
	}
}

func TestUnionSorted(t *testing.T) {
	got := unionSorted([][]uint64{u64s(1, 3, 5), u64s(2, 3, 4)}, false)
	want := u64s(1, 2, 3, 4, 5)
	if len(got) != len(want) {
		t.Fatalf("unionSorted = %v, wanted %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unionSorted = %v, wanted %v", got, want)
		}
	}
}

func TestDifferenceSorted(t *testing.T) {
	got := differenceSorted(u64s(1, 2, 3, 4), u64s(2, 4))
	want := u64s(1, 3)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("differenceSorted = %v, wanted %v", got, want)
	}
}

func TestCursorSkipTakeClampToBounds(t *testing.T) {
	entries := []resultEntry{
		{primary: 1, doc: Document{Root: ObjectNode()}},
		{primary: 2, doc: Document{Root: ObjectNode()}},
		{primary: 3, doc: Document{Root: ObjectNode()}},
	}
	st := newMemStorage()
	tx, _ := st.BeginTx(false)
	cur := newCursor(tx, nil, entries)

	if n := cur.Skip(10).Count(); n != 0 {
		t.Fatalf("Skip beyond length then Count = %d, wanted 0", n)
	}
	cur.Close()

	tx2, _ := st.BeginTx(false)
	cur2 := newCursor(tx2, nil, entries)
	if n := cur2.Take(10).Count(); n != 3 {
		t.Fatalf("Take beyond length then Count = %d, wanted 3", n)
	}
	cur2.Close()
}

func TestCursorTakeZero(t *testing.T) {
	entries := []resultEntry{
		{primary: 1, doc: Document{Root: ObjectNode()}},
		{primary: 2, doc: Document{Root: ObjectNode()}},
	}
	st := newMemStorage()
	tx, _ := st.BeginTx(false)
	cur := newCursor(tx, nil, entries)
	if n := cur.Take(0).Count(); n != 0 {
		t.Fatalf("Take(0).Count() = %d, wanted 0", n)
	}
	cur.Close()
}

func TestCursorCloseIsIdempotent(t *testing.T) {
	st := newMemStorage()
	tx, _ := st.BeginTx(false)
	cur := newCursor(tx, nil, nil)
	if err := cur.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSortByFieldOrdersAscAndDescWithMissingLast(t *testing.T) {
	entries := []resultEntry{
		{primary: 1, orderKey: []Node{IntNode(5)}},
		{primary: 2, orderKey: nil},
		{primary: 3, orderKey: []Node{IntNode(1)}},
	}
	sortByField(entries, false)
	if entries[0].primary != 3 || entries[1].primary != 1 || entries[2].primary != 2 {
		t.Fatalf("sortByField asc order = %+v, wanted [3 1 2]", entries)
	}
	sortByField(entries, true)
	if entries[0].primary != 1 || entries[1].primary != 3 || entries[2].primary != 2 {
		t.Fatalf("sortByField desc order = %+v, wanted [1 3 2]", entries)
	}
}
