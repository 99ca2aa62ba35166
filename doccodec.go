package ledb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeDocument serializes a document to its on-disk form: msgpack of the
// node tree, object keys sorted for a stable byte representation. There is
// no value header, no schema version and no stored index-key section —
// index maintenance always re-extracts values from the freshly decoded
// document rather than diffing a recorded list of index keys.
func EncodeDocument(doc Document) []byte {
	bb := bytesBuilder{}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(nodeToAny(doc.Root)); err != nil {
		panic(fmt.Errorf("ledb: failed to encode document: %w", err))
	}
	msgpack.PutEncoder(enc)
	return bb.Buf
}

// DecodeDocument parses a document from its on-disk form.
func DecodeDocument(buf []byte) (Document, error) {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	var v any
	err := dec.Decode(&v)
	msgpack.PutDecoder(dec)
	if err != nil {
		return Document{}, internalErrf(dataErrf(buf, 0, err, "failed to decode document"), "decoding document")
	}
	return Document{Root: anyToNode(v)}, nil
}

// MarshalJSON renders a document as plain JSON, used by ledbctl's dump
// and get output rather than by anything on the storage path — the wire
// codec (see wire.go) parses JSON into Filter/Order/ModAction, and this is
// its counterpart for rendering stored documents back out.
func MarshalJSON(doc Document) ([]byte, error) {
	b, err := json.Marshal(nodeToAny(doc.Root))
	if err != nil {
		return nil, internalErrf(err, "marshaling document to JSON")
	}
	return b, nil
}

func nodeToAny(n Node) any {
	switch n.Kind {
	case KindNull:
		return nil
	case KindBool:
		return n.Bool
	case KindInt:
		return n.Int
	case KindFloat:
		return n.Float
	case KindString:
		return n.String
	case KindBinary:
		return n.Binary
	case KindArray:
		out := make([]any, len(n.Array))
		for i, e := range n.Array {
			out[i] = nodeToAny(e)
		}
		return out
	case KindObject:
		fields := append([]Field(nil), n.Object...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
		m := make(map[string]any, len(fields))
		for _, f := range fields {
			m[f.Key] = nodeToAny(f.Value)
		}
		return m
	default:
		return nil
	}
}

func anyToNode(v any) Node {
	switch val := v.(type) {
	case nil:
		return NullNode()
	case bool:
		return BoolNode(val)
	case int8:
		return IntNode(int64(val))
	case int16:
		return IntNode(int64(val))
	case int32:
		return IntNode(int64(val))
	case int64:
		return IntNode(val)
	case int:
		return IntNode(int64(val))
	case uint8:
		return IntNode(int64(val))
	case uint16:
		return IntNode(int64(val))
	case uint32:
		return IntNode(int64(val))
	case uint64:
		return IntNode(int64(val))
	case float32:
		return FloatNode(float64(val))
	case float64:
		return FloatNode(val)
	case string:
		return StringNode(val)
	case []byte:
		return BinaryNode(val)
	case []any:
		arr := make([]Node, len(val))
		for i, e := range val {
			arr[i] = anyToNode(e)
		}
		return ArrayNode(arr...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Fld(k, anyToNode(val[k])))
		}
		return ObjectNode(fields...)
	default:
		return NullNode()
	}
}

// ExtractPath walks a dotted field path (e.g. "author.name", "tags") over a
// document and returns every Node reached. A path component matches an
// Object field by key; when the walk passes through an Array, it fans out
// over every element, so a single path can yield zero, one, or many
// results. This mirrors go-leia's recursive per-path-segment matcher, with
// array fan-out instead of go-leia's requirement that callers address each
// array element by its own indexer.
func ExtractPath(doc Document, path string) []Node {
	segments := strings.Split(path, ".")
	return flattenArrays(extractSegments([]Node{doc.Root}, segments))
}

// flattenArrays expands any Array node in nodes into its elements,
// recursively, so a path landing on an array field (rather than passing
// through one on its way to a deeper field) still yields that array's
// scalar/object elements rather than the array itself.
func flattenArrays(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Kind == KindArray {
			out = append(out, flattenArrays(n.Array)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func extractSegments(nodes []Node, segments []string) []Node {
	if len(segments) == 0 {
		return nodes
	}
	seg := segments[0]
	rest := segments[1:]

	var next []Node
	for _, n := range nodes {
		next = append(next, stepInto(n, seg)...)
	}
	return extractSegments(next, rest)
}

// stepInto resolves one path segment against a node, fanning out across
// arrays: an Array node is descended into every one of its elements before
// the segment is applied to each.
func stepInto(n Node, seg string) []Node {
	switch n.Kind {
	case KindObject:
		if v, ok := n.Get(seg); ok {
			return []Node{v}
		}
		return nil
	case KindArray:
		var out []Node
		for _, elem := range n.Array {
			out = append(out, stepInto(elem, seg)...)
		}
		return out
	default:
		return nil
	}
}
