package pyast

import (
	"encoding/json"
	"testing"
)

const addModule = `{
  "_type": "Module",
  "body": [
    {
      "_type": "FunctionDef",
      "name": "add",
      "lineno": 1, "col_offset": 0,
      "args": {
        "_type": "arguments",
        "args": [
          {"_type": "arg", "arg": "a", "annotation": {"_type": "Name", "id": "int"}},
          {"_type": "arg", "arg": "b", "annotation": {"_type": "Name", "id": "int"}}
        ],
        "defaults": []
      },
      "returns": {"_type": "Name", "id": "int"},
      "body": [
        {
          "_type": "Return",
          "lineno": 2, "col_offset": 4,
          "value": {
            "_type": "BinOp",
            "left": {"_type": "Name", "id": "a"},
            "op": {"_type": "Add"},
            "right": {"_type": "Name", "id": "b"}
          }
        }
      ],
      "decorator_list": []
    }
  ]
}`

func TestParseModule(t *testing.T) {
	mod, err := Parse([]byte(addModule))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 item, got %d", len(mod.Body))
	}
	fn := mod.Body[0]
	if fn.Type != "FunctionDef" || fn.Name != "add" {
		t.Fatalf("unexpected item: %s %s", fn.Type, fn.Name)
	}
	args := fn.Arguments()
	if args == nil {
		t.Fatal("arguments not decoded")
	}
	params := args.ArgList()
	if len(params) != 2 || params[0].Arg != "a" || params[1].Arg != "b" {
		t.Fatalf("unexpected params: %+v", params)
	}
	ret := fn.Body[0]
	if ret.Type != "Return" {
		t.Fatalf("expected Return, got %s", ret.Type)
	}
	bin := ret.ValueNode()
	if bin == nil || bin.Type != "BinOp" || bin.Op.Type != "Add" {
		t.Fatalf("unexpected return value: %+v", bin)
	}
}

func TestParseRejectsNonModule(t *testing.T) {
	if _, err := Parse([]byte(`{"_type": "Expression"}`)); err == nil {
		t.Fatal("expected error for non-Module root")
	}
}

func TestConstantKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind ConstKind
	}{
		{`{"_type":"Constant","value":1}`, ConstInt},
		{`{"_type":"Constant","value":3.14}`, ConstFloat},
		{`{"_type":"Constant","value":1e3}`, ConstFloat},
		{`{"_type":"Constant","value":"x"}`, ConstStr},
		{`{"_type":"Constant","value":true}`, ConstBool},
		{`{"_type":"Constant","value":null}`, ConstNone},
	}
	for _, tc := range cases {
		mod := &Node{}
		if err := json.Unmarshal([]byte(tc.raw), mod); err != nil {
			t.Fatalf("decode %s: %v", tc.raw, err)
		}
		c, err := mod.Constant()
		if err != nil {
			t.Fatalf("constant %s: %v", tc.raw, err)
		}
		if c.Kind != tc.kind {
			t.Errorf("%s: kind %d, want %d", tc.raw, c.Kind, tc.kind)
		}
	}
}

func TestWalkVisitsAll(t *testing.T) {
	mod, err := Parse([]byte(addModule))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var names []string
	Walk(mod, func(n *Node) bool {
		if n.Type == "Name" {
			names = append(names, n.ID)
		}
		return true
	})
	// int, int (annotations), int (returns), a, b
	if len(names) != 5 {
		t.Errorf("expected 5 Name nodes, got %d: %v", len(names), names)
	}
}
