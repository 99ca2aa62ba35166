package ledb

import "sort"

// IndexKind selects whether an index enforces at most one primary per key
// (Unique) or allows many (Duplicated).
type IndexKind int

const (
	IndexUnique IndexKind = iota
	IndexDuplicated
)

func (k IndexKind) String() string {
	if k == IndexUnique {
		return "uni"
	}
	return "dup"
}

func ParseIndexKind(s string) (IndexKind, bool) {
	switch s {
	case "uni":
		return IndexUnique, true
	case "dup":
		return IndexDuplicated, true
	default:
		return 0, false
	}
}

func ParseKeyType(s string) (KeyType, bool) {
	switch s {
	case "int":
		return KeyTypeInt, true
	case "float":
		return KeyTypeFloat, true
	case "bool":
		return KeyTypeBool, true
	case "string":
		return KeyTypeString, true
	case "binary":
		return KeyTypeBinary, true
	default:
		return 0, false
	}
}

// IndexDef names one secondary index: the dotted field path it's built
// over, its kind, and its declared key type.
type IndexDef struct {
	Path    string
	Kind    IndexKind
	KeyType KeyType
}

func (d IndexDef) equal(o IndexDef) bool {
	return d.Path == o.Path && d.Kind == o.Kind && d.KeyType == o.KeyType
}

// primaryCounterKey is the key, within a collection's meta bucket, under
// which the last allocated primary key (0 before the first insert) is
// stored as 8 bytes big-endian.
var primaryCounterKey = []byte("$counter")

// indexDefsKey is the key, within a collection's meta bucket, under which
// the encoded list of IndexDef is stored.
var indexDefsKey = []byte("$indexes")

// encodeIndexDefs serializes a list of index definitions as a document, so
// it can reuse the same msgpack machinery as document bodies.
func encodeIndexDefs(defs []IndexDef) []byte {
	sorted := append([]IndexDef(nil), defs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Kind < sorted[j].Kind
	})

	arr := make([]Node, len(sorted))
	for i, d := range sorted {
		arr[i] = ObjectNode(
			Fld("path", StringNode(d.Path)),
			Fld("kind", StringNode(d.Kind.String())),
			Fld("type", StringNode(d.KeyType.String())),
		)
	}
	return EncodeDocument(Document{Root: ArrayNode(arr...)})
}

func decodeIndexDefs(buf []byte) ([]IndexDef, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	doc, err := DecodeDocument(buf)
	if err != nil {
		return nil, internalErrf(err, "decoding index definitions")
	}
	if doc.Root.Kind != KindArray {
		return nil, internalErrf(nil, "index definitions document is not an array")
	}
	defs := make([]IndexDef, 0, len(doc.Root.Array))
	for _, n := range doc.Root.Array {
		pathNode, _ := n.Get("path")
		kindNode, _ := n.Get("kind")
		typeNode, _ := n.Get("type")
		kind, ok := ParseIndexKind(kindNode.String)
		if !ok {
			return nil, internalErrf(nil, "unrecognized index kind %q", kindNode.String)
		}
		kt, ok := ParseKeyType(typeNode.String)
		if !ok {
			return nil, internalErrf(nil, "unrecognized key type %q", typeNode.String)
		}
		defs = append(defs, IndexDef{Path: pathNode.String, Kind: kind, KeyType: kt})
	}
	return defs, nil
}
