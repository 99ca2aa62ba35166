package ledb

// CompOp names one comparison operator usable in a filter leaf.
type CompOp int

const (
	OpEq CompOp = iota
	OpIn
	OpLt
	OpLe
	OpGt
	OpGe
	OpBw
	OpHas
)

// Comparison is the right-hand side of a filter leaf {field: comparison}.
type Comparison struct {
	Op     CompOp
	Value  Node   // Eq, Lt, Le, Gt, Ge
	Values []Node // In
	Lo, Hi Node   // Bw
	LoIncl bool
	HiIncl bool
}

func Eq(v Node) Comparison   { return Comparison{Op: OpEq, Value: v} }
func In(vs ...Node) Comparison { return Comparison{Op: OpIn, Values: vs} }
func Lt(v Node) Comparison   { return Comparison{Op: OpLt, Value: v} }
func Le(v Node) Comparison   { return Comparison{Op: OpLe, Value: v} }
func Gt(v Node) Comparison   { return Comparison{Op: OpGt, Value: v} }
func Ge(v Node) Comparison   { return Comparison{Op: OpGe, Value: v} }
func Bw(lo Node, loIncl bool, hi Node, hiIncl bool) Comparison {
	return Comparison{Op: OpBw, Lo: lo, Hi: hi, LoIncl: loIncl, HiIncl: hiIncl}
}
func Has() Comparison { return Comparison{Op: OpHas} }

// FilterKind tags the shape of a Filter node: a tagged union rather than a
// virtual hierarchy, matching the index-key-type dispatch elsewhere in
// this package.
type FilterKind int

const (
	FilterLeaf FilterKind = iota
	FilterNot
	FilterAnd
	FilterOr
)

// Filter is a filter AST node. A nil *Filter means "match everything".
type Filter struct {
	Kind     FilterKind
	Field    string     // FilterLeaf
	Cmp      Comparison // FilterLeaf
	Children []*Filter  // FilterNot (len 1), FilterAnd, FilterOr
}

func Where(field string, cmp Comparison) *Filter {
	return &Filter{Kind: FilterLeaf, Field: field, Cmp: cmp}
}

func NotF(f *Filter) *Filter { return &Filter{Kind: FilterNot, Children: []*Filter{f}} }
func AndF(fs ...*Filter) *Filter { return &Filter{Kind: FilterAnd, Children: fs} }
func OrF(fs ...*Filter) *Filter  { return &Filter{Kind: FilterOr, Children: fs} }

// matchesComparison evaluates cmp against the multiset of values extracted
// at a leaf's field path. Type-mismatched values never match: a value
// whose kind doesn't correspond to any KeyType is simply skipped.
func matchesComparison(values []Node, cmp Comparison) bool {
	switch cmp.Op {
	case OpHas:
		for _, v := range values {
			if _, ok := NodeKeyType(v); ok {
				return true
			}
		}
		return false
	case OpEq:
		for _, v := range values {
			if nodeEqual(v, cmp.Value) {
				return true
			}
		}
		return false
	case OpIn:
		for _, v := range values {
			for _, want := range cmp.Values {
				if nodeEqual(v, want) {
					return true
				}
			}
		}
		return false
	case OpLt, OpLe, OpGt, OpGe:
		for _, v := range values {
			if cmp2, ok := nodeCompare(v, cmp.Value); ok {
				switch cmp.Op {
				case OpLt:
					if cmp2 < 0 {
						return true
					}
				case OpLe:
					if cmp2 <= 0 {
						return true
					}
				case OpGt:
					if cmp2 > 0 {
						return true
					}
				case OpGe:
					if cmp2 >= 0 {
						return true
					}
				}
			}
		}
		return false
	case OpBw:
		for _, v := range values {
			loCmp, ok1 := nodeCompare(v, cmp.Lo)
			hiCmp, ok2 := nodeCompare(v, cmp.Hi)
			if !ok1 || !ok2 {
				continue
			}
			loOK := loCmp > 0 || (loCmp == 0 && cmp.LoIncl)
			hiOK := hiCmp < 0 || (hiCmp == 0 && cmp.HiIncl)
			if loOK && hiOK {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// nodeEqual compares two scalar nodes of the same kind. Nodes of differing
// kind are never equal (a type-mismatched comparison never matches).
func nodeEqual(a, b Node) bool {
	cmp, ok := nodeCompare(a, b)
	return ok && cmp == 0
}

// nodeCompare orders two scalar nodes of the same kind, reporting false if
// their kinds differ or either has no KeyType (arrays/objects/null).
func nodeCompare(a, b Node) (int, bool) {
	at, aok := NodeKeyType(a)
	bt, bok := NodeKeyType(b)
	if !aok || !bok || at != bt {
		return 0, false
	}
	switch at {
	case KeyTypeBool:
		if a.Bool == b.Bool {
			return 0, true
		}
		if !a.Bool {
			return -1, true
		}
		return 1, true
	case KeyTypeInt:
		switch {
		case a.Int < b.Int:
			return -1, true
		case a.Int > b.Int:
			return 1, true
		default:
			return 0, true
		}
	case KeyTypeFloat:
		switch {
		case a.Float < b.Float:
			return -1, true
		case a.Float > b.Float:
			return 1, true
		default:
			return 0, true
		}
	case KeyTypeString:
		switch {
		case a.String < b.String:
			return -1, true
		case a.String > b.String:
			return 1, true
		default:
			return 0, true
		}
	case KeyTypeBinary:
		n := len(a.Binary)
		if len(b.Binary) < n {
			n = len(b.Binary)
		}
		for i := 0; i < n; i++ {
			if a.Binary[i] != b.Binary[i] {
				if a.Binary[i] < b.Binary[i] {
					return -1, true
				}
				return 1, true
			}
		}
		switch {
		case len(a.Binary) < len(b.Binary):
			return -1, true
		case len(a.Binary) > len(b.Binary):
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

// evalFilter is the reference "scan all, keep those where F matches"
// semantics: the residual predicate applied to a fetched document when a
// leaf has no matching index, and the only semantics used for Not/And/Or.
func evalFilter(doc Document, f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Kind {
	case FilterLeaf:
		return matchesComparison(ExtractPath(doc, f.Field), f.Cmp)
	case FilterNot:
		return !evalFilter(doc, f.Children[0])
	case FilterAnd:
		for _, c := range f.Children {
			if !evalFilter(doc, c) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, c := range f.Children {
			if evalFilter(doc, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compOpToCmpKind maps a filter comparison operator to the index-scan
// cmpKind it lowers to when the leaf's field has a compatible index.
func compOpToCmpKind(op CompOp) cmpKind {
	switch op {
	case OpEq:
		return cmpEq
	case OpIn:
		return cmpIn
	case OpLt:
		return cmpLt
	case OpLe:
		return cmpLe
	case OpGt:
		return cmpGt
	case OpGe:
		return cmpGe
	case OpBw:
		return cmpBw
	case OpHas:
		return cmpHas
	default:
		return cmpHas
	}
}

// PlanKind tags the shape of a compiled Plan node.
type PlanKind int

const (
	PlanIndexScan PlanKind = iota
	PlanFullScan
	PlanIntersect
	PlanUnion
	PlanDifference
	PlanFilter
)

// Plan is the compiled representation of a Filter: a tree of index range
// scans and set operators, with a residual in-memory Filter attached where
// no index could serve a leaf.
type Plan struct {
	Kind PlanKind

	// PlanIndexScan
	Index *indexStore
	Cond  rangeCond

	// PlanIntersect, PlanUnion
	Children []*Plan

	// PlanDifference: All minus Sub.
	All *Plan
	Sub *Plan

	// PlanFilter: residual predicate evaluated against each document
	// produced by Inner.
	Inner     *Plan
	Predicate *Filter
}

// compileFilter lowers a Filter into a Plan, given the indexes currently
// defined on the collection (keyed by field path; a path may have at most
// one live index definition at a time per EnsureIndex's replace rule).
func compileFilter(f *Filter, indexes map[string]*indexStore) *Plan {
	if f == nil {
		return &Plan{Kind: PlanFullScan}
	}
	switch f.Kind {
	case FilterLeaf:
		ix, ok := indexes[f.Field]
		if ok {
			operands := []Node{f.Cmp.Value}
			switch f.Cmp.Op {
			case OpHas:
				operands = nil
			case OpIn:
				operands = f.Cmp.Values
			case OpBw:
				operands = []Node{f.Cmp.Lo, f.Cmp.Hi}
			}
			for _, v := range operands {
				if kt, keyed := NodeKeyType(v); !keyed || kt != ix.def.KeyType {
					ok = false
				}
			}
		}
		if !ok {
			return &Plan{Kind: PlanFilter, Inner: &Plan{Kind: PlanFullScan}, Predicate: f}
		}
		cond := rangeCond{
			kind:   compOpToCmpKind(f.Cmp.Op),
			value:  f.Cmp.Value,
			values: f.Cmp.Values,
			lo:     f.Cmp.Lo,
			hi:     f.Cmp.Hi,
			loIncl: f.Cmp.LoIncl,
			hiIncl: f.Cmp.HiIncl,
		}
		return &Plan{Kind: PlanIndexScan, Index: ix, Cond: cond}
	case FilterNot:
		return &Plan{Kind: PlanDifference, All: &Plan{Kind: PlanFullScan}, Sub: compileFilter(f.Children[0], indexes)}
	case FilterAnd:
		children := make([]*Plan, len(f.Children))
		for i, c := range f.Children {
			children[i] = compileFilter(c, indexes)
		}
		return &Plan{Kind: PlanIntersect, Children: children}
	case FilterOr:
		children := make([]*Plan, len(f.Children))
		for i, c := range f.Children {
			children[i] = compileFilter(c, indexes)
		}
		return &Plan{Kind: PlanUnion, Children: children}
	default:
		return &Plan{Kind: PlanFullScan}
	}
}
