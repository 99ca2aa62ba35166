package ledb

import "testing"

func TestParseFilterNull(t *testing.T) {
	f, err := ParseFilter([]byte(`null`))
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil filter, got %+v", f)
	}
}

func TestParseFilterLeafEq(t *testing.T) {
	f, err := ParseFilter([]byte(`{"status": {"$eq": "open"}}`))
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.Kind != FilterLeaf || f.Field != "status" || f.Cmp.Op != OpEq {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f.Cmp.Value.Kind != KindString || f.Cmp.Value.String != "open" {
		t.Fatalf("unexpected comparison value: %+v", f.Cmp.Value)
	}
}

func TestParseFilterHasBareString(t *testing.T) {
	f, err := ParseFilter([]byte(`{"tags": "$has"}`))
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.Cmp.Op != OpHas {
		t.Fatalf("expected $has, got %+v", f.Cmp)
	}
}

func TestParseFilterAndOr(t *testing.T) {
	f, err := ParseFilter([]byte(`{"$and": [{"a": {"$eq": 1}}, {"$or": [{"b": {"$gt": 2}}, {"b": {"$lt": 0}}]}]}`))
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.Kind != FilterAnd || len(f.Children) != 2 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f.Children[0].Cmp.Value.Kind != KindInt || f.Children[0].Cmp.Value.Int != 1 {
		t.Fatalf("expected integral literal, got %+v", f.Children[0].Cmp.Value)
	}
}

func TestParseFilterBetween(t *testing.T) {
	f, err := ParseFilter([]byte(`{"age": {"$bw": [18, true, 65, false]}}`))
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.Cmp.Op != OpBw || !f.Cmp.LoIncl || f.Cmp.HiIncl {
		t.Fatalf("unexpected bw comparison: %+v", f.Cmp)
	}
}

func TestParseFilterRejectsMultiKeyObject(t *testing.T) {
	if _, err := ParseFilter([]byte(`{"a": {"$eq": 1}, "b": {"$eq": 2}}`)); err == nil {
		t.Fatal("expected error for multi-key filter object")
	}
}

func TestParseOrderVariants(t *testing.T) {
	o, err := ParseOrder([]byte(`"$asc"`))
	if err != nil || o != OrderPrimaryAsc {
		t.Fatalf("expected OrderPrimaryAsc, got %+v, %v", o, err)
	}
	o, err = ParseOrder([]byte(`"$desc"`))
	if err != nil || o != OrderPrimaryDesc {
		t.Fatalf("expected OrderPrimaryDesc, got %+v, %v", o, err)
	}
	o, err = ParseOrder([]byte(`{"name": "$desc"}`))
	if err != nil {
		t.Fatalf("ParseOrder: %v", err)
	}
	if o.Kind != OrderField || o.Field != "name" || !o.Desc {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestParseOrderEmptyDefaultsToPrimaryAsc(t *testing.T) {
	o, err := ParseOrder(nil)
	if err != nil || o != OrderPrimaryAsc {
		t.Fatalf("expected OrderPrimaryAsc for empty input, got %+v, %v", o, err)
	}
}

func TestParseModifyPairs(t *testing.T) {
	actions, err := ParseModify([]byte(`[["views", {"$add": 1}], ["draft", "$delete"], ["flag", "$toggle"]]`))
	if err != nil {
		t.Fatalf("ParseModify: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	if actions[0].Kind != ModAdd || actions[0].Path != "views" {
		t.Fatalf("unexpected action 0: %+v", actions[0])
	}
	if actions[1].Kind != ModDelete || actions[1].Path != "draft" {
		t.Fatalf("unexpected action 1: %+v", actions[1])
	}
	if actions[2].Kind != ModToggle || actions[2].Path != "flag" {
		t.Fatalf("unexpected action 2: %+v", actions[2])
	}
}

func TestParseModifyRejectsObjectShape(t *testing.T) {
	if _, err := ParseModify([]byte(`{"views": {"$add": 1}}`)); err == nil {
		t.Fatal("expected error for object-shaped modify input")
	}
}

func TestParseModifyReplaceAndSplice(t *testing.T) {
	actions, err := ParseModify([]byte(`[
		["title", {"$replace": ["foo", "bar"]}],
		["tags", {"$splice": [1, 2, "x", "y"]}]
	]`))
	if err != nil {
		t.Fatalf("ParseModify: %v", err)
	}
	if actions[0].Kind != ModReplace || actions[0].Pat != "foo" || actions[0].Sub != "bar" {
		t.Fatalf("unexpected replace action: %+v", actions[0])
	}
	if actions[1].Kind != ModSplice || actions[1].Off != 1 || actions[1].Del != 2 || len(actions[1].Insert) != 2 {
		t.Fatalf("unexpected splice action: %+v", actions[1])
	}
}
