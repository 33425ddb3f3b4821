package typemap

import (
	"encoding/json"
	"testing"

	"depyler/internal/pyast"
	"depyler/internal/types"
)

func node(t *testing.T, raw string) *pyast.Node {
	t.Helper()
	var n pyast.Node
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return &n
}

func TestMapPrimitives(t *testing.T) {
	cases := []struct {
		raw  string
		want *types.Type
	}{
		{`{"_type":"Name","id":"int"}`, types.Int},
		{`{"_type":"Name","id":"float"}`, types.Float},
		{`{"_type":"Name","id":"str"}`, types.Str},
		{`{"_type":"Name","id":"bool"}`, types.Bool},
		{`{"_type":"Name","id":"bytes"}`, types.Bytes},
		{`{"_type":"Constant","value":null}`, types.None},
		{`{"_type":"Name","id":"Any"}`, types.Unknown},
		{`{"_type":"Name","id":"Point"}`, types.Custom("Point")},
	}
	for _, tc := range cases {
		if got := Map(node(t, tc.raw)); !types.Equal(got, tc.want) {
			t.Errorf("Map(%s) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestMapGenerics(t *testing.T) {
	listInt := `{"_type":"Subscript",
		"value":{"_type":"Name","id":"list"},
		"slice":{"_type":"Name","id":"int"}}`
	if got := Map(node(t, listInt)); !types.Equal(got, types.List(types.Int)) {
		t.Errorf("list[int] = %s", got)
	}

	dictStrFloat := `{"_type":"Subscript",
		"value":{"_type":"Name","id":"dict"},
		"slice":{"_type":"Tuple","elts":[
			{"_type":"Name","id":"str"},
			{"_type":"Name","id":"float"}]}}`
	if got := Map(node(t, dictStrFloat)); !types.Equal(got, types.Dict(types.Str, types.Float)) {
		t.Errorf("dict[str, float] = %s", got)
	}

	optInt := `{"_type":"Subscript",
		"value":{"_type":"Name","id":"Optional"},
		"slice":{"_type":"Name","id":"int"}}`
	if got := Map(node(t, optInt)); !types.Equal(got, types.Optional(types.Int)) {
		t.Errorf("Optional[int] = %s", got)
	}
}

func TestMapUnionFolding(t *testing.T) {
	// Union[int, None] folds to Optional[int].
	u := `{"_type":"Subscript",
		"value":{"_type":"Name","id":"Union"},
		"slice":{"_type":"Tuple","elts":[
			{"_type":"Name","id":"int"},
			{"_type":"Constant","value":null}]}}`
	if got := Map(node(t, u)); !types.Equal(got, types.Optional(types.Int)) {
		t.Errorf("Union[int, None] = %s", got)
	}

	// PEP 604 int | str.
	pep := `{"_type":"BinOp",
		"left":{"_type":"Name","id":"int"},
		"op":{"_type":"BitOr"},
		"right":{"_type":"Name","id":"str"}}`
	if got := Map(node(t, pep)); !types.Equal(got, types.Union(types.Int, types.Str)) {
		t.Errorf("int | str = %s", got)
	}
}

func TestMapNilAndUnrecognized(t *testing.T) {
	if got := Map(nil); got.Kind != types.KindUnknown {
		t.Errorf("Map(nil) = %s", got)
	}
	if got := Map(node(t, `{"_type":"Lambda"}`)); got.Kind != types.KindUnknown {
		t.Errorf("Map(lambda) = %s", got)
	}
}
