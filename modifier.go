package ledb

import "regexp"

// ModActionKind names one modifier action.
type ModActionKind int

const (
	ModSet ModActionKind = iota
	ModDelete
	ModAdd
	ModSub
	ModMul
	ModDiv
	ModToggle
	ModReplace
	ModSplice
	ModMerge
)

// ModAction is one (field path, action) edit in a Modify list.
type ModAction struct {
	Path   string
	Kind   ModActionKind
	Value  Node   // Set, Add, Sub, Mul, Div
	Pat    string // Replace
	Sub    string // Replace
	Off    int    // Splice
	Del    int    // Splice
	Insert []Node // Splice
	Merge  Node   // Merge (object)
}

func SetAction(path string, v Node) ModAction    { return ModAction{Path: path, Kind: ModSet, Value: v} }
func DeleteAction(path string) ModAction         { return ModAction{Path: path, Kind: ModDelete} }
func AddAction(path string, v Node) ModAction    { return ModAction{Path: path, Kind: ModAdd, Value: v} }
func SubAction(path string, v Node) ModAction    { return ModAction{Path: path, Kind: ModSub, Value: v} }
func MulAction(path string, v Node) ModAction    { return ModAction{Path: path, Kind: ModMul, Value: v} }
func DivAction(path string, v Node) ModAction    { return ModAction{Path: path, Kind: ModDiv, Value: v} }
func ToggleAction(path string) ModAction         { return ModAction{Path: path, Kind: ModToggle} }
func ReplaceAction(path, pat, sub string) ModAction {
	return ModAction{Path: path, Kind: ModReplace, Pat: pat, Sub: sub}
}
func SpliceAction(path string, off, del int, ins ...Node) ModAction {
	return ModAction{Path: path, Kind: ModSplice, Off: off, Del: del, Insert: ins}
}
func MergeAction(path string, obj Node) ModAction { return ModAction{Path: path, Kind: ModMerge, Merge: obj} }

// ApplyModify applies every action in order to doc, all-or-nothing: if any
// action fails (type mismatch, divide by zero, bad regex, out-of-range
// splice), the original document is returned unchanged alongside the
// error. An action that doesn't auto-create its path and finds it missing
// is not a failure: it leaves the document as it is. Actions that succeed
// earlier in the list are not
// rolled back individually — instead, the whole operation runs against a
// working copy that is only returned to the caller once every action has
// succeeded.
func ApplyModify(doc Document, actions []ModAction) (Document, error) {
	working := doc
	for _, a := range actions {
		segments := splitPath(a.Path)
		var newRoot Node
		var err error
		if a.Kind == ModDelete {
			if len(segments) == 0 {
				return doc, queryErrf("delete: empty path")
			}
			newRoot, err = deleteAtPath(working.Root, segments)
		} else {
			newRoot, err = applyAction(working.Root, segments, a)
		}
		if err != nil {
			return doc, err
		}
		working.Root = newRoot
	}
	return working, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	out = append(out, path[start:])
	return out
}

// applyAction recursively walks segments of a's path within root, applying
// a at the leaf. Set and Merge auto-create missing intermediate objects;
// every other action leaves the document untouched (no error) when the
// path misses an intermediate object.
func applyAction(root Node, segments []string, a ModAction) (Node, error) {
	if len(segments) == 0 {
		return applyLeaf(root, a)
	}
	seg := segments[0]
	rest := segments[1:]

	if root.Kind != KindObject {
		if autoCreates(a.Kind) {
			root = Node{Kind: KindObject}
		} else {
			return root, nil
		}
	}

	child, ok := root.Get(seg)
	if !ok {
		if !autoCreates(a.Kind) {
			return root, nil
		}
		child = Node{Kind: KindObject}
	}

	newChild, err := applyAction(child, rest, a)
	if err != nil {
		return root, err
	}
	return root.Set(seg, newChild), nil
}

func autoCreates(kind ModActionKind) bool {
	return kind == ModSet || kind == ModMerge
}

func applyLeaf(n Node, a ModAction) (Node, error) {
	switch a.Kind {
	case ModSet:
		return a.Value, nil

	case ModAdd, ModSub, ModMul, ModDiv:
		return applyArith(n, a)

	case ModToggle:
		if n.Kind != KindBool {
			return n, queryErrf("toggle: target at %q is not a bool", a.Path)
		}
		return BoolNode(!n.Bool), nil

	case ModReplace:
		if n.Kind != KindString {
			return n, queryErrf("replace: target at %q is not a string", a.Path)
		}
		re, err := regexp.Compile(a.Pat)
		if err != nil {
			return n, queryErrf("replace: invalid regex %q: %v", a.Pat, err)
		}
		return StringNode(re.ReplaceAllString(n.String, a.Sub)), nil

	case ModSplice:
		if n.Kind != KindArray {
			return n, queryErrf("splice: target at %q is not an array", a.Path)
		}
		return applySplice(n, a)

	case ModMerge:
		if n.Kind != KindObject && n.Kind != KindNull {
			return n, queryErrf("merge: target at %q is not an object", a.Path)
		}
		return deepMerge(n, a.Merge), nil

	default:
		return n, internalErrf(nil, "unknown modifier action kind %d", a.Kind)
	}
}

// deleteAtPath removes the field or array element named by the path's
// final segment from its parent, closing the gap for arrays. Delete is
// special-cased at the parent level (rather than flowing through the
// generic Set-and-recurse path applyAction uses for every other action)
// because removing a field is not expressible as replacing its value.
func deleteAtPath(root Node, segments []string) (Node, error) {
	seg := segments[0]
	rest := segments[1:]

	switch root.Kind {
	case KindObject:
		if len(rest) == 0 {
			return root.Without(seg), nil
		}
		child, ok := root.Get(seg)
		if !ok {
			return root, nil
		}
		newChild, err := deleteAtPath(child, rest)
		if err != nil {
			return root, err
		}
		return root.Set(seg, newChild), nil
	case KindArray:
		idx, ok := parseArrayIndex(seg)
		if !ok || idx < 0 || idx >= len(root.Array) {
			return root, nil
		}
		if len(rest) == 0 {
			out := append([]Node(nil), root.Array[:idx]...)
			out = append(out, root.Array[idx+1:]...)
			root.Array = out
			return root, nil
		}
		newChild, err := deleteAtPath(root.Array[idx], rest)
		if err != nil {
			return root, err
		}
		out := append([]Node(nil), root.Array...)
		out[idx] = newChild
		root.Array = out
		return root, nil
	default:
		return root, nil
	}
}

func parseArrayIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n := 0
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func applyArith(n Node, a ModAction) (Node, error) {
	if !n.IsNumeric() {
		return n, queryErrf("arithmetic: target at %q is not numeric", a.Path)
	}
	if !a.Value.IsNumeric() {
		return n, queryErrf("arithmetic: operand for %q is not numeric", a.Path)
	}

	bothInt := n.Kind == KindInt && a.Value.Kind == KindInt

	switch a.Kind {
	case ModAdd:
		if bothInt {
			return IntNode(n.Int + a.Value.Int), nil
		}
		return FloatNode(n.AsFloat() + a.Value.AsFloat()), nil
	case ModSub:
		if bothInt {
			return IntNode(n.Int - a.Value.Int), nil
		}
		return FloatNode(n.AsFloat() - a.Value.AsFloat()), nil
	case ModMul:
		if bothInt {
			return IntNode(n.Int * a.Value.Int), nil
		}
		return FloatNode(n.AsFloat() * a.Value.AsFloat()), nil
	case ModDiv:
		if bothInt {
			if a.Value.Int == 0 {
				return n, queryErrf("divide by zero at %q", a.Path)
			}
			// Integer division promotes to float: never silently truncate.
			return FloatNode(float64(n.Int) / float64(a.Value.Int)), nil
		}
		if a.Value.AsFloat() == 0 {
			return n, queryErrf("divide by zero at %q", a.Path)
		}
		return FloatNode(n.AsFloat() / a.Value.AsFloat()), nil
	default:
		return n, internalErrf(nil, "unreachable arithmetic kind %d", a.Kind)
	}
}

func applySplice(n Node, a ModAction) (Node, error) {
	if a.Off < 0 || a.Off > len(n.Array) {
		return n, queryErrf("splice: offset %d out of range for length %d", a.Off, len(n.Array))
	}
	del := a.Del
	if del < 0 {
		del = 0
	}
	end := a.Off + del
	if end > len(n.Array) {
		end = len(n.Array)
	}
	out := append([]Node(nil), n.Array[:a.Off]...)
	out = append(out, a.Insert...)
	out = append(out, n.Array[end:]...)
	n.Array = out
	return n, nil
}

// deepMerge merges src into dst: object fields in src overwrite dst
// recursively when both sides hold objects at the same key, otherwise src
// simply replaces dst's value for that key.
func deepMerge(dst, src Node) Node {
	if src.Kind != KindObject {
		return src
	}
	if dst.Kind != KindObject {
		dst = Node{Kind: KindObject}
	}
	for _, f := range src.Object {
		if existing, ok := dst.Get(f.Key); ok && existing.Kind == KindObject && f.Value.Kind == KindObject {
			dst = dst.Set(f.Key, deepMerge(existing, f.Value))
		} else {
			dst = dst.Set(f.Key, f.Value)
		}
	}
	return dst
}
