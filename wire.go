package ledb

import (
	"bytes"
	"encoding/json"
)

// ParseFilter parses the wire filter format into a Filter AST:
//
//	null | {field: comparison} | {"$and": [f...]} | {"$or": [f...]} | {"$not": f}
//
// where comparison is one of {"$eq": v}, {"$in": [v...]}, {"$lt": v},
// {"$le": v}, {"$gt": v}, {"$ge": v}, {"$bw": [a, incl_a, b, incl_b]}, or
// the bare string "$has".
func ParseFilter(raw []byte) (*Filter, error) {
	v, err := wireDecode(raw)
	if err != nil {
		return nil, queryErrf("malformed filter: %v", err)
	}
	return filterFromAny(v)
}

func filterFromAny(v any) (*Filter, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, queryErrf("filter: expected object or null, got %T", v)
	}
	if len(obj) != 1 {
		return nil, queryErrf("filter: expected exactly one key, got %d", len(obj))
	}
	for key, val := range obj {
		switch key {
		case "$and":
			children, err := filterList(val)
			if err != nil {
				return nil, err
			}
			return &Filter{Kind: FilterAnd, Children: children}, nil
		case "$or":
			children, err := filterList(val)
			if err != nil {
				return nil, err
			}
			return &Filter{Kind: FilterOr, Children: children}, nil
		case "$not":
			child, err := filterFromAny(val)
			if err != nil {
				return nil, err
			}
			return &Filter{Kind: FilterNot, Children: []*Filter{child}}, nil
		default:
			cmp, err := comparisonFromAny(val)
			if err != nil {
				return nil, err
			}
			return &Filter{Kind: FilterLeaf, Field: key, Cmp: cmp}, nil
		}
	}
	panic("unreachable")
}

func filterList(v any) ([]*Filter, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, queryErrf("filter: expected array, got %T", v)
	}
	out := make([]*Filter, len(arr))
	for i, el := range arr {
		f, err := filterFromAny(el)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func comparisonFromAny(v any) (Comparison, error) {
	if s, ok := v.(string); ok && s == "$has" {
		return Has(), nil
	}
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return Comparison{}, queryErrf("comparison: expected single-key object or \"$has\"")
	}
	for key, val := range obj {
		switch key {
		case "$eq":
			return Eq(wireValueToNode(val)), nil
		case "$in":
			arr, ok := val.([]any)
			if !ok {
				return Comparison{}, queryErrf("$in: expected array")
			}
			nodes := make([]Node, len(arr))
			for i, el := range arr {
				nodes[i] = wireValueToNode(el)
			}
			return In(nodes...), nil
		case "$lt":
			return Lt(wireValueToNode(val)), nil
		case "$le":
			return Le(wireValueToNode(val)), nil
		case "$gt":
			return Gt(wireValueToNode(val)), nil
		case "$ge":
			return Ge(wireValueToNode(val)), nil
		case "$bw":
			arr, ok := val.([]any)
			if !ok || len(arr) != 4 {
				return Comparison{}, queryErrf("$bw: expected [a, incl_a, b, incl_b]")
			}
			loIncl, ok1 := arr[1].(bool)
			hiIncl, ok2 := arr[3].(bool)
			if !ok1 || !ok2 {
				return Comparison{}, queryErrf("$bw: inclusivity flags must be bool")
			}
			return Bw(wireValueToNode(arr[0]), loIncl, wireValueToNode(arr[2]), hiIncl), nil
		default:
			return Comparison{}, queryErrf("comparison: unrecognized operator %q", key)
		}
	}
	panic("unreachable")
}

// ParseOrder parses the wire order format: "$asc", "$desc", or
// {field: "$asc"|"$desc"}. An absent/empty order means OrderPrimaryAsc.
func ParseOrder(raw []byte) (Order, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return OrderPrimaryAsc, nil
	}
	v, err := wireDecode(raw)
	if err != nil {
		return Order{}, queryErrf("malformed order: %v", err)
	}
	switch val := v.(type) {
	case nil:
		return OrderPrimaryAsc, nil
	case string:
		switch val {
		case "$asc":
			return OrderPrimaryAsc, nil
		case "$desc":
			return OrderPrimaryDesc, nil
		default:
			return Order{}, queryErrf("order: unrecognized value %q", val)
		}
	case map[string]any:
		if len(val) != 1 {
			return Order{}, queryErrf("order: expected exactly one field")
		}
		for field, dir := range val {
			dirStr, ok := dir.(string)
			if !ok {
				return Order{}, queryErrf("order: direction must be a string")
			}
			switch dirStr {
			case "$asc":
				return OrderByField(field, false), nil
			case "$desc":
				return OrderByField(field, true), nil
			default:
				return Order{}, queryErrf("order: unrecognized direction %q", dirStr)
			}
		}
	}
	return Order{}, queryErrf("order: unrecognized shape %T", v)
}

// ParseModify parses the wire modify format: a list of [field, action]
// pairs. Object-shaped modify inputs (e.g. a single {"$set": ...} without
// the enclosing [field, action] pair) are rejected — see the design notes
// on the modify-input ambiguity in the original surface.
func ParseModify(raw []byte) ([]ModAction, error) {
	v, err := wireDecode(raw)
	if err != nil {
		return nil, queryErrf("malformed modify: %v", err)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, queryErrf("modify: expected a list of [field, action] pairs, got %T", v)
	}
	actions := make([]ModAction, 0, len(arr))
	for _, el := range arr {
		pair, ok := el.([]any)
		if !ok || len(pair) != 2 {
			return nil, queryErrf("modify: expected [field, action], got %v", el)
		}
		field, ok := pair[0].(string)
		if !ok {
			return nil, queryErrf("modify: field must be a string")
		}
		action, err := modActionFromAny(field, pair[1])
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func modActionFromAny(field string, v any) (ModAction, error) {
	if s, ok := v.(string); ok {
		switch s {
		case "$delete":
			return DeleteAction(field), nil
		case "$toggle":
			return ToggleAction(field), nil
		default:
			return ModAction{}, queryErrf("modify: unrecognized bare action %q", s)
		}
	}
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return ModAction{}, queryErrf("modify: expected single-key object or bare action string")
	}
	for key, val := range obj {
		switch key {
		case "$set":
			return SetAction(field, wireValueToNode(val)), nil
		case "$add":
			return AddAction(field, wireValueToNode(val)), nil
		case "$sub":
			return SubAction(field, wireValueToNode(val)), nil
		case "$mul":
			return MulAction(field, wireValueToNode(val)), nil
		case "$div":
			return DivAction(field, wireValueToNode(val)), nil
		case "$replace":
			arr, ok := val.([]any)
			if !ok || len(arr) != 2 {
				return ModAction{}, queryErrf("$replace: expected [pattern, substitution]")
			}
			pat, ok1 := arr[0].(string)
			sub, ok2 := arr[1].(string)
			if !ok1 || !ok2 {
				return ModAction{}, queryErrf("$replace: pattern and substitution must be strings")
			}
			return ReplaceAction(field, pat, sub), nil
		case "$splice":
			arr, ok := val.([]any)
			if !ok || len(arr) < 2 {
				return ModAction{}, queryErrf("$splice: expected [off, del, ins...]")
			}
			off, ok1 := wireValueToNode(arr[0]), true
			del, ok2 := wireValueToNode(arr[1]), true
			if off.Kind != KindInt || del.Kind != KindInt {
				ok1, ok2 = false, false
			}
			if !ok1 || !ok2 {
				return ModAction{}, queryErrf("$splice: off and del must be integers")
			}
			ins := make([]Node, 0, len(arr)-2)
			for _, el := range arr[2:] {
				ins = append(ins, wireValueToNode(el))
			}
			return SpliceAction(field, int(off.Int), int(del.Int), ins...), nil
		case "$merge":
			return MergeAction(field, wireValueToNode(val)), nil
		default:
			return ModAction{}, queryErrf("modify: unrecognized operator %q", key)
		}
	}
	panic("unreachable")
}

// wireDecode parses raw JSON, preferring json.Number over float64 so
// wireValueToNode can tell an integer literal from a fractional one.
func wireDecode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// wireValueToNode converts one decoded JSON value into a Node. Integral
// json.Number values become KindInt; fractional or unparseable-as-int64
// ones become KindFloat.
func wireValueToNode(v any) Node {
	switch val := v.(type) {
	case nil:
		return NullNode()
	case bool:
		return BoolNode(val)
	case string:
		return StringNode(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return IntNode(i)
		}
		f, _ := val.Float64()
		return FloatNode(f)
	case []any:
		arr := make([]Node, len(val))
		for i, el := range val {
			arr[i] = wireValueToNode(el)
		}
		return ArrayNode(arr...)
	case map[string]any:
		fields := make([]Field, 0, len(val))
		for k, el := range val {
			fields = append(fields, Fld(k, wireValueToNode(el)))
		}
		return ObjectNode(fields...)
	default:
		return NullNode()
	}
}
