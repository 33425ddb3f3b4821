package infer

import (
	"testing"

	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/hir"
	"depyler/internal/pyast"
	"depyler/internal/source"
	"depyler/internal/types"
)

func lowerAndInfer(t *testing.T, src string) (*hir.Module, *diag.Bag) {
	t.Helper()
	root, err := pyast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.py", []byte("pass\n"))
	m, bag, err := hir.Lower(root, "test", id, fs, directive.NewRegistry(), 64)
	if err != nil {
		t.Fatalf("lower: %v; diagnostics: %v", err, bag.Items())
	}
	return m, Run(m, 64)
}

func TestInferThroughCallSite(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"add",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"a"},{"_type":"arg","arg":"b"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"BinOp",
	     "left":{"_type":"Name","id":"a"},
	     "op":{"_type":"Add"},
	     "right":{"_type":"Name","id":"b"}}}]},
	  {"_type":"FunctionDef","name":"use",
	   "args":{"_type":"arguments","posonlyargs":[],"args":[],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Name","id":"add"},
	     "args":[{"_type":"Constant","value":1},{"_type":"Constant","value":2}],
	     "keywords":[]}}]}]}`)

	add := m.Func("add")
	for _, p := range add.Params {
		if !types.Equal(p.Type, types.Int) {
			t.Errorf("param %s = %s, want int", p.Name, p.Type)
		}
	}
	if !types.Equal(add.Ret, types.Int) {
		t.Errorf("add returns %s, want int", add.Ret)
	}
	if use := m.Func("use"); !types.Equal(use.Ret, types.Int) {
		t.Errorf("use returns %s, want int", use.Ret)
	}
}

func TestInferListElementFromAppend(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"build",
	   "args":{"_type":"arguments","posonlyargs":[],"args":[],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Assign","targets":[{"_type":"Name","id":"xs"}],
	      "value":{"_type":"List","elts":[]}},
	     {"_type":"Expr","value":{"_type":"Call",
	       "func":{"_type":"Attribute","value":{"_type":"Name","id":"xs"},"attr":"append"},
	       "args":[{"_type":"Constant","value":1}],"keywords":[]}},
	     {"_type":"Return","value":{"_type":"Name","id":"xs"}}]}]}`)

	fn := m.Func("build")
	want := types.List(types.Int)
	if !types.Equal(fn.Ret, want) {
		t.Errorf("build returns %s, want %s", fn.Ret, want)
	}
}

func TestInferDictGetIsOptional(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"price",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"table",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"dict"},
	         "slice":{"_type":"Tuple","elts":[
	           {"_type":"Name","id":"str"},{"_type":"Name","id":"float"}]}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Attribute","value":{"_type":"Name","id":"table"},"attr":"get"},
	     "args":[{"_type":"Constant","value":"milk"}],"keywords":[]}}]}]}`)

	fn := m.Func("price")
	want := types.Optional(types.Float)
	if !types.Equal(fn.Ret, want) {
		t.Errorf("price returns %s, want %s", fn.Ret, want)
	}
}

func TestInferForLoopElement(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"first_long",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"names",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"str"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"For","target":{"_type":"Name","id":"n"},
	      "iter":{"_type":"Name","id":"names"},
	      "body":[{"_type":"Return","value":{"_type":"Name","id":"n"}}],
	      "orelse":[]},
	     {"_type":"Return","value":{"_type":"Constant","value":""}}]}]}`)

	fn := m.Func("first_long")
	if !types.Equal(fn.Ret, types.Str) {
		t.Errorf("first_long returns %s, want str", fn.Ret)
	}
}

func TestInferGeneratorYieldsListShape(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"squares",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"n","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Expr","value":{"_type":"Yield",
	       "value":{"_type":"BinOp",
	         "left":{"_type":"Name","id":"n"},
	         "op":{"_type":"Mult"},
	         "right":{"_type":"Name","id":"n"}}}}]}]}`)

	fn := m.Func("squares")
	want := types.List(types.Int)
	if !types.Equal(fn.Ret, want) {
		t.Errorf("squares returns %s, want %s", fn.Ret, want)
	}
}

func TestInferUnresolvedDegradesWithDiagnostic(t *testing.T) {
	m, bag := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"mystery",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"x"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Attribute","value":{"_type":"Name","id":"x"},"attr":"frobnicate"},
	     "args":[],"keywords":[]}}]}]}`)

	fn := m.Func("mystery")
	if fn.Ret.IsResolved() {
		t.Errorf("mystery return resolved to %s, want dynamic fallback", fn.Ret)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.InferUnresolvedType {
			found = true
		}
	}
	if !found {
		t.Errorf("missing unresolved-type diagnostic; got %v", bag.Items())
	}
}

func TestInferSelfFieldTypes(t *testing.T) {
	m, _ := lowerAndInfer(t, `{"_type":"Module","body":[
	  {"_type":"ClassDef","name":"Point","bases":[],"keywords":[],
	   "decorator_list":[],
	   "body":[
	     {"_type":"AnnAssign",
	      "target":{"_type":"Name","id":"x"},
	      "annotation":{"_type":"Name","id":"float"}},
	     {"_type":"FunctionDef","name":"shifted",
	      "args":{"_type":"arguments","posonlyargs":[],
	        "args":[{"_type":"arg","arg":"self"},{"_type":"arg","arg":"dx"}],
	        "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	      "decorator_list":[],
	      "body":[{"_type":"Return","value":{"_type":"BinOp",
	        "left":{"_type":"Attribute","value":{"_type":"Name","id":"self"},"attr":"x"},
	        "op":{"_type":"Add"},
	        "right":{"_type":"Name","id":"dx"}}}]}]}]}`)

	cls := m.Class("Point")
	shifted := cls.Method("shifted")
	if !types.Equal(shifted.Ret, types.Float) {
		t.Errorf("shifted returns %s, want float", shifted.Ret)
	}
}
