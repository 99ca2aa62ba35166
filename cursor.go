package ledb

import "sort"

// materializePlan executes plan against tx, returning the primaries it
// selects in primary order (ascending, or descending when reverse is
// true). Set-operator nodes (Intersect/Union/Difference) merge their
// children's already-ordered slices; Filter re-checks each candidate
// document against its residual predicate. This trades true page-by-page
// streaming for a simpler, still memory-bounded-per-query implementation:
// each node's selected primaries are materialized once, not the documents
// themselves.
func materializePlan(tx storageTx, primaryBucket storageBucket, plan *Plan, reverse bool) ([]uint64, error) {
	switch plan.Kind {
	case PlanFullScan:
		return scanAllPrimaries(primaryBucket, reverse), nil

	case PlanIndexScan:
		return plan.Index.scanPrimaries(plan.Cond, reverse), nil

	case PlanIntersect:
		sets := make([][]uint64, len(plan.Children))
		for i, child := range plan.Children {
			s, err := materializePlan(tx, primaryBucket, child, reverse)
			if err != nil {
				return nil, err
			}
			sets[i] = s
		}
		return intersectSorted(sets, reverse), nil

	case PlanUnion:
		sets := make([][]uint64, len(plan.Children))
		for i, child := range plan.Children {
			s, err := materializePlan(tx, primaryBucket, child, reverse)
			if err != nil {
				return nil, err
			}
			sets[i] = s
		}
		return unionSorted(sets, reverse), nil

	case PlanDifference:
		all, err := materializePlan(tx, primaryBucket, plan.All, reverse)
		if err != nil {
			return nil, err
		}
		sub, err := materializePlan(tx, primaryBucket, plan.Sub, reverse)
		if err != nil {
			return nil, err
		}
		return differenceSorted(all, sub), nil

	case PlanFilter:
		inner, err := materializePlan(tx, primaryBucket, plan.Inner, reverse)
		if err != nil {
			return nil, err
		}
		out := inner[:0]
		for _, p := range inner {
			blob := primaryBucket.Get(primaryKeyBytes(p))
			if blob == nil {
				continue
			}
			doc, err := DecodeDocument(blob)
			if err != nil {
				return nil, err
			}
			if evalFilter(doc, plan.Predicate) {
				out = append(out, p)
			}
		}
		return out, nil

	default:
		return nil, internalErrf(nil, "unknown plan kind %d", plan.Kind)
	}
}

func scanAllPrimaries(primaryBucket storageBucket, reverse bool) []uint64 {
	rng := RawOO()
	if reverse {
		rng = rng.Reversed()
	}
	c := rng.newCursor(primaryBucket.Cursor())
	var out []uint64
	for c.Next() {
		if p, ok := DecodePrimary(c.Key()); ok {
			out = append(out, p)
		}
	}
	return out
}

func less(reverse bool) func(a, b uint64) bool {
	if reverse {
		return func(a, b uint64) bool { return a > b }
	}
	return func(a, b uint64) bool { return a < b }
}

// intersectSorted computes the n-way intersection of sorted slices, all
// ordered consistently by reverse.
func intersectSorted(sets [][]uint64, reverse bool) []uint64 {
	if len(sets) == 0 {
		return nil
	}
	lt := less(reverse)
	result := sets[0]
	for _, s := range sets[1:] {
		result = intersectTwo(result, s, lt)
		if len(result) == 0 {
			break
		}
	}
	return result
}

func intersectTwo(a, b []uint64, lt func(x, y uint64) bool) []uint64 {
	var out []uint64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case lt(a[i], b[j]):
			i++
		default:
			j++
		}
	}
	return out
}

// unionSorted computes the n-way union of sorted slices, de-duplicated,
// preserving order.
func unionSorted(sets [][]uint64, reverse bool) []uint64 {
	lt := less(reverse)
	result := []uint64{}
	for _, s := range sets {
		result = unionTwo(result, s, lt)
	}
	return result
}

func unionTwo(a, b []uint64, lt func(x, y uint64) bool) []uint64 {
	var out []uint64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case lt(a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// differenceSorted returns the elements of all that don't appear in sub;
// both must be sorted in the same direction. Order follows all.
func differenceSorted(all, sub []uint64) []uint64 {
	subSet := make(map[uint64]struct{}, len(sub))
	for _, p := range sub {
		subSet[p] = struct{}{}
	}
	out := all[:0:0]
	for _, p := range all {
		if _, excluded := subSet[p]; !excluded {
			out = append(out, p)
		}
	}
	return out
}

// Cursor is a transaction-scoped sequence of documents: the result of
// executing a Plan and an Order against a Collection, with skip/take
// bounds applied on top. Find fetches and decodes every result document
// before it returns the Cursor; the Cursor holds them in memory and keeps
// the read transaction open until Close.
type Cursor struct {
	tx            storageTx
	primaryBucket storageBucket

	entries []resultEntry

	closed bool
}

func newCursor(tx storageTx, primaryBucket storageBucket, entries []resultEntry) *Cursor {
	return &Cursor{tx: tx, primaryBucket: primaryBucket, entries: entries}
}

// Skip discards up to n items from the front of the remaining sequence,
// applied immediately against whatever the sequence is at the time of the
// call — so a later Take narrows what Skip already dropped, and a Skip
// after a Take narrows what Take already capped.
func (c *Cursor) Skip(n int) *Cursor {
	if n <= 0 {
		return c
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	c.entries = c.entries[n:]
	return c
}

// Take caps the remaining sequence to at most n items, applied immediately
// (see Skip).
func (c *Cursor) Take(n int) *Cursor {
	if n < 0 {
		n = 0
	}
	if n < len(c.entries) {
		c.entries = c.entries[:n]
	}
	return c
}

// Next advances the cursor, returning the next document and whether one
// was available.
func (c *Cursor) Next() (Document, bool) {
	if len(c.entries) == 0 {
		return Document{}, false
	}
	e := c.entries[0]
	c.entries = c.entries[1:]
	return e.doc, true
}

// Count consumes the remaining sequence and returns how many items it
// held — equivalent to draining via Next and counting.
func (c *Cursor) Count() int {
	n := 0
	for {
		if _, ok := c.Next(); !ok {
			break
		}
		n++
	}
	return n
}

// Collect drains the cursor into a slice of documents.
func (c *Cursor) Collect() []Document {
	var out []Document
	for {
		d, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, d)
	}
	return out
}

// Close aborts the cursor's read transaction. Idempotent.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.tx.Rollback()
}

// Find compiles filter into a Plan, executes it inside a fresh read
// transaction, orders the results per order, and returns a Cursor that
// owns that transaction until Close or full drain+Close.
func (c *Collection) Find(filter *Filter, order Order) (*Cursor, error) {
	tx, err := c.env.st.BeginTx(false)
	if err != nil {
		return nil, storageErrf(err, "beginning read transaction for find")
	}

	primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
	if primaryBucket == nil {
		_ = tx.Rollback()
		return nil, internalErrf(nil, "collection %q not initialized", c.name)
	}

	stores, err := c.openIndexStores(tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	byPath := make(map[string]*indexStore, len(stores))
	for _, ix := range stores {
		byPath[ix.def.Path] = ix
	}

	plan := compileFilter(filter, byPath)

	entries, err := c.execute(tx, primaryBucket, plan, order)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return newCursor(tx, primaryBucket, entries), nil
}

func (c *Collection) execute(tx storageTx, primaryBucket storageBucket, plan *Plan, order Order) ([]resultEntry, error) {
	switch order.Kind {
	case OrderPrimary:
		primaries, err := materializePlan(tx, primaryBucket, plan, order.Desc)
		if err != nil {
			return nil, err
		}
		return c.fetchEntries(primaryBucket, primaries, nil)

	case OrderField:
		if order.usesIndexWalk(plan) {
			primaries, err := materializePlan(tx, primaryBucket, plan, order.Desc)
			if err != nil {
				return nil, err
			}
			return c.fetchEntries(primaryBucket, primaries, nil)
		}
		primaries, err := materializePlan(tx, primaryBucket, plan, false)
		if err != nil {
			return nil, err
		}
		entries, err := c.fetchEntries(primaryBucket, primaries, func(doc Document) []Node {
			return ExtractPath(doc, order.Field)
		})
		if err != nil {
			return nil, err
		}
		sortByField(entries, order.Desc)
		return entries, nil

	default:
		return nil, internalErrf(nil, "unknown order kind %d", order.Kind)
	}
}

func (c *Collection) fetchEntries(primaryBucket storageBucket, primaries []uint64, orderKeyFn func(Document) []Node) ([]resultEntry, error) {
	entries := make([]resultEntry, 0, len(primaries))
	for _, p := range primaries {
		blob := primaryBucket.Get(primaryKeyBytes(p))
		if blob == nil {
			continue
		}
		doc, err := DecodeDocument(blob)
		if err != nil {
			return nil, err
		}
		e := resultEntry{primary: p, doc: doc}
		if orderKeyFn != nil {
			e.orderKey = orderKeyFn(doc)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// sortByField performs a stable sort by the first extracted ordering
// value (matching scalar comparison semantics), ties broken by primary in
// the requested direction. Entries with no extracted value sort last.
func sortByField(entries []resultEntry, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		av, aok := firstKeyable(a.orderKey)
		bv, bok := firstKeyable(b.orderKey)
		switch {
		case aok && bok:
			if cmp, ok := nodeCompare(av, bv); ok && cmp != 0 {
				if desc {
					return cmp > 0
				}
				return cmp < 0
			}
		case aok && !bok:
			return true
		case !aok && bok:
			return false
		}
		if desc {
			return a.primary > b.primary
		}
		return a.primary < b.primary
	})
}

func firstKeyable(nodes []Node) (Node, bool) {
	for _, n := range nodes {
		if _, ok := NodeKeyType(n); ok {
			return n, true
		}
	}
	return Node{}, false
}
