package ledb

import (
	"bytes"
	"sort"
)

// maxPrimarySuffix is the largest possible encoded-primary suffix, used to
// build a Duplicated-index bound that spans every primary sharing one
// encoded field value.
var maxPrimarySuffix = bytes.Repeat([]byte{0xFF}, primaryWidth)

// indexStore is one logical secondary index over a collection: a def plus
// the storage bucket holding its encoded-key -> primary mapping. For a
// Duplicated index the physical key is encoded_key||primary (see
// keycodec.go) so that multiple primaries sharing one key sort by primary
// within the shared prefix; for a Unique index the physical key is just
// encoded_key and the value holds the 8-byte primary.
type indexStore struct {
	def    IndexDef
	bucket storageBucket
}

func newIndexStore(def IndexDef, bucket storageBucket) *indexStore {
	return &indexStore{def: def, bucket: bucket}
}

// extractKeys returns the distinct encoded keys this document contributes
// at the index's field path — values whose runtime kind doesn't match the
// declared KeyType contribute nothing, per keycodec.go's EncodeKey.
func (ix *indexStore) extractKeys(doc Document) [][]byte {
	nodes := ExtractPath(doc, ix.def.Path)
	var keys [][]byte
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if k, ok := EncodeKey(nil, ix.def.KeyType, n); ok {
			if _, dup := seen[string(k)]; dup {
				continue
			}
			seen[string(k)] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// insert adds every key this document contributes, mapping to primary.
// For a Unique index, a key already mapped to a different primary is a
// schema error and the caller must abort the whole operation.
func (ix *indexStore) insert(primary uint64, doc Document) error {
	for _, key := range ix.extractKeys(doc) {
		if err := ix.insertKey(primary, key); err != nil {
			return err
		}
	}
	return nil
}

func (ix *indexStore) insertKey(primary uint64, key []byte) error {
	switch ix.def.Kind {
	case IndexUnique:
		if existing := ix.bucket.Get(key); existing != nil {
			return schemaErrf("", ix.def.Path, nil, "unique index violation for key %x", key)
		}
		var buf [8]byte
		EncodePrimary(buf[:0], primary)
		return ix.bucket.Put(key, buf[:])
	case IndexDuplicated:
		physical := EncodePrimary(append([]byte(nil), key...), primary)
		return ix.bucket.Put(physical, nil)
	default:
		return internalErrf(nil, "unknown index kind %v", ix.def.Kind)
	}
}

// remove deletes exactly the entries this document contributed.
func (ix *indexStore) remove(primary uint64, doc Document) error {
	for _, key := range ix.extractKeys(doc) {
		if err := ix.removeKey(primary, key); err != nil {
			return err
		}
	}
	return nil
}

func (ix *indexStore) removeKey(primary uint64, key []byte) error {
	switch ix.def.Kind {
	case IndexUnique:
		return ix.bucket.Delete(key)
	case IndexDuplicated:
		physical := EncodePrimary(append([]byte(nil), key...), primary)
		return ix.bucket.Delete(physical)
	default:
		return internalErrf(nil, "unknown index kind %v", ix.def.Kind)
	}
}

// update recomputes the key multisets for oldDoc and newDoc and applies
// only the difference: keys present in both are left untouched (so a
// Unique index survives a no-op edit to its own indexed field without ever
// tripping its own uniqueness check), keys only in old are removed, keys
// only in new are inserted.
func (ix *indexStore) update(primary uint64, oldDoc, newDoc Document) error {
	oldKeys := ix.extractKeys(oldDoc)
	newKeys := ix.extractKeys(newDoc)

	oldSet := getStringSet()
	defer releaseStringSet(oldSet)
	for _, k := range oldKeys {
		oldSet[string(k)] = struct{}{}
	}
	newSet := getStringSet()
	defer releaseStringSet(newSet)
	for _, k := range newKeys {
		newSet[string(k)] = struct{}{}
	}

	for _, k := range oldKeys {
		if _, stillPresent := newSet[string(k)]; !stillPresent {
			if err := ix.removeKey(primary, k); err != nil {
				return err
			}
		}
	}
	for _, k := range newKeys {
		if _, wasPresent := oldSet[string(k)]; !wasPresent {
			if err := ix.insertKey(primary, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// cmpKind tags which kind of comparison range drives an index scan.
type cmpKind int

const (
	cmpEq cmpKind = iota
	cmpIn
	cmpLt
	cmpLe
	cmpGt
	cmpGe
	cmpBw
	cmpHas
)

// rangeCond is a single comparison against this index's declared field,
// already reduced to typed Node bounds by the filter compiler.
type rangeCond struct {
	kind     cmpKind
	value    Node   // Eq, Lt, Le, Gt, Ge
	values   []Node // In
	lo, hi   Node   // Bw
	loIncl   bool
	hiIncl   bool
}

// physicalLen reports the length of a physical bucket key encoding the
// given encoded-field-value length: for a Duplicated index the value is
// always followed by an 8-byte primary suffix, for a Unique index the
// physical key is the encoded value alone.
func (ix *indexStore) physicalLen(encodedLen int) int {
	if ix.def.Kind == IndexDuplicated {
		return encodedLen + primaryWidth
	}
	return encodedLen
}

// exclusiveLowerBound returns a byte string that sorts strictly after
// every physical key this index stores for the value encoded in key, for
// use as an inclusive RawRange.Lower (i.e. the exclusivity is baked into
// the bound itself rather than left to LowerInc, which match() only
// enforces in reverse-scan direction). Reports false if key is already
// the maximum representable key of its type (Unique only — a Duplicated
// bound can always be extended with an 0xFF suffix).
func (ix *indexStore) exclusiveLowerBound(key []byte) ([]byte, bool) {
	if ix.def.Kind == IndexDuplicated {
		return append(append([]byte(nil), key...), maxPrimarySuffix...), true
	}
	bound := append([]byte(nil), key...)
	if !inc(bound) {
		return nil, false
	}
	return bound, true
}

// inclusiveUpperBound returns a byte string that is an inclusive upper
// bound covering every physical key this index stores for the value
// encoded in key. For a Unique index that's the key itself; for a
// Duplicated index the physical key carries an extra 8-byte primary
// suffix that sorts after the bare key, so the bound needs the same
// suffix at its maximum value to include every primary sharing the
// value.
func (ix *indexStore) inclusiveUpperBound(key []byte) []byte {
	if ix.def.Kind == IndexDuplicated {
		return append(append([]byte(nil), key...), maxPrimarySuffix...)
	}
	return key
}

// rawRangesFor translates a comparison into the RawRange(s) needed to walk
// this index. In emits one range per value (the caller must merge-sort and
// de-duplicate primaries across them); every other kind needs exactly one.
func (ix *indexStore) rawRangesFor(cond rangeCond) []RawRange {
	switch cond.kind {
	case cmpHas:
		return []RawRange{RawOO()}
	case cmpEq:
		key, ok := EncodeKey(nil, ix.def.KeyType, cond.value)
		if !ok {
			return nil
		}
		rg := RawPrefix(key)
		rg.ExactLen = ix.physicalLen(len(key))
		return []RawRange{rg}
	case cmpIn:
		var ranges []RawRange
		for _, v := range cond.values {
			key, ok := EncodeKey(nil, ix.def.KeyType, v)
			if !ok {
				continue
			}
			rg := RawPrefix(key)
			rg.ExactLen = ix.physicalLen(len(key))
			ranges = append(ranges, rg)
		}
		return ranges
	case cmpLt:
		// No suffix adjustment needed: every physical key for cond.value
		// is either the bare encoded key itself (Unique) or the bare key
		// plus an 8-byte primary suffix (Duplicated), so it sorts at or
		// after the bare key and a plain exclusive upper bound already
		// excludes all of them.
		key, ok := EncodeKey(nil, ix.def.KeyType, cond.value)
		if !ok {
			return nil
		}
		return []RawRange{RawOE(key)}
	case cmpLe:
		key, ok := EncodeKey(nil, ix.def.KeyType, cond.value)
		if !ok {
			return nil
		}
		return []RawRange{RawOI(ix.inclusiveUpperBound(key))}
	case cmpGt:
		key, ok := EncodeKey(nil, ix.def.KeyType, cond.value)
		if !ok {
			return nil
		}
		lower, ok := ix.exclusiveLowerBound(key)
		if !ok {
			return nil
		}
		return []RawRange{RawIO(lower)}
	case cmpGe:
		// No suffix adjustment needed: the bare encoded key is already
		// <= every physical key for cond.value (same reasoning as Lt),
		// so Seek(key) lands on the first of them.
		key, ok := EncodeKey(nil, ix.def.KeyType, cond.value)
		if !ok {
			return nil
		}
		return []RawRange{RawIO(key)}
	case cmpBw:
		lo, loOK := EncodeKey(nil, ix.def.KeyType, cond.lo)
		hi, hiOK := EncodeKey(nil, ix.def.KeyType, cond.hi)
		if !loOK || !hiOK {
			return nil
		}
		switch {
		case cond.loIncl && cond.hiIncl:
			return []RawRange{RawII(lo, ix.inclusiveUpperBound(hi))}
		case cond.loIncl && !cond.hiIncl:
			return []RawRange{RawIE(lo, hi)}
		case !cond.loIncl && cond.hiIncl:
			lower, ok := ix.exclusiveLowerBound(lo)
			if !ok {
				return nil
			}
			return []RawRange{RawII(lower, ix.inclusiveUpperBound(hi))}
		default:
			lower, ok := ix.exclusiveLowerBound(lo)
			if !ok {
				return nil
			}
			return []RawRange{RawIE(lower, hi)}
		}
	default:
		return nil
	}
}

// primaryOf extracts the primary key for one physical key/value pair
// yielded while walking this index's bucket.
func (ix *indexStore) primaryOf(key, value []byte) (uint64, bool) {
	switch ix.def.Kind {
	case IndexUnique:
		return DecodePrimary(value)
	case IndexDuplicated:
		return DecodePrimary(key)
	default:
		return 0, false
	}
}

// scanPrimaries walks every RawRange for cond forward in key order,
// de-duplicating so a document is emitted once even when several of its
// keys match (a multi-valued field under a range or Has, or overlapping
// In values), then returns the primaries sorted ascending, or descending
// when reverse is true.
func (ix *indexStore) scanPrimaries(cond rangeCond, reverse bool) []uint64 {
	ranges := ix.rawRangesFor(cond)
	var out []uint64
	seen := make(map[uint64]struct{})
	for _, rg := range ranges {
		c := rg.newCursor(ix.bucket.Cursor())
		for c.Next() {
			primary, ok := ix.primaryOf(c.Key(), c.Value())
			if !ok {
				continue
			}
			if _, dup := seen[primary]; dup {
				continue
			}
			seen[primary] = struct{}{}
			out = append(out, primary)
		}
	}
	if reverse {
		sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	}
	return out
}
