package hir_test

import (
	"testing"

	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/hir"
	"depyler/internal/infer"
	"depyler/internal/pyast"
	"depyler/internal/source"
)

func analyze(t *testing.T, src string) (*hir.Module, map[*hir.Func]*hir.OwnershipPlan, *diag.Bag) {
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
	infer.Run(m, 64)
	plans, obag := hir.AnalyzeOwnership(m, 64)
	return m, plans, obag
}

// readModes collects the annotation of every read of name, in order.
func readModes(plan *hir.OwnershipPlan, fn *hir.Func, name string) []hir.UseMode {
	var modes []hir.UseMode
	hir.WalkFunc(fn, hir.Visitor{
		PostExpr: func(e *hir.Expr) {
			if v, ok := e.Data.(hir.VarData); ok && v.Name == name {
				modes = append(modes, plan.Mode(e.ID))
			}
		},
	})
	return modes
}

func TestParamModes(t *testing.T) {
	m, plans, _ := analyze(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"total",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"xs",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"int"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Name","id":"len"},
	     "args":[{"_type":"Name","id":"xs"}],"keywords":[]}}]},
	  {"_type":"FunctionDef","name":"grow",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"xs",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"int"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Expr","value":{"_type":"Call",
	     "func":{"_type":"Attribute","value":{"_type":"Name","id":"xs"},"attr":"append"},
	     "args":[{"_type":"Constant","value":1}],"keywords":[]}}]},
	  {"_type":"FunctionDef","name":"keep",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"xs",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"int"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Name","id":"xs"}}]}]}`)

	cases := []struct {
		fn   string
		want hir.ParamMode
	}{
		{"total", hir.ParamBorrowed},
		{"grow", hir.ParamBorrowedMut},
		{"keep", hir.ParamOwned},
	}
	for _, tc := range cases {
		fn := m.Func(tc.fn)
		got := plans[fn].ParamModeOf("xs")
		if got != tc.want {
			t.Errorf("%s: xs passed as %s, want %s", tc.fn, got, tc.want)
		}
	}
}

func TestEscapingLocalMovesOnLastUse(t *testing.T) {
	m, plans, _ := analyze(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"build",
	   "args":{"_type":"arguments","posonlyargs":[],"args":[],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Assign","targets":[{"_type":"Name","id":"out"}],
	      "value":{"_type":"List","elts":[{"_type":"Constant","value":"a"}]}},
	     {"_type":"Expr","value":{"_type":"Call",
	       "func":{"_type":"Name","id":"print"},
	       "args":[{"_type":"Name","id":"out"}],"keywords":[]}},
	     {"_type":"Return","value":{"_type":"Name","id":"out"}}]}]}`)

	fn := m.Func("build")
	modes := readModes(plans[fn], fn, "out")
	if len(modes) != 2 {
		t.Fatalf("reads of out = %d, want 2", len(modes))
	}
	if modes[0] != hir.UseSharedBorrow {
		t.Errorf("first read = %s, want shared borrow", modes[0])
	}
	if modes[1] != hir.UseMove {
		t.Errorf("final read = %s, want move", modes[1])
	}
}

func TestTupleDuplicateClones(t *testing.T) {
	m, plans, _ := analyze(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"twice",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"s","annotation":{"_type":"Name","id":"str"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Tuple","elts":[
	     {"_type":"Name","id":"s"},{"_type":"Name","id":"s"}]}}]}]}`)

	fn := m.Func("twice")
	modes := readModes(plans[fn], fn, "s")
	if len(modes) != 2 {
		t.Fatalf("reads of s = %d, want 2", len(modes))
	}
	if modes[1] != hir.UseCloneOnUse {
		t.Errorf("duplicate tuple element = %s, want clone", modes[1])
	}
}

func TestCallSiteCloneFallback(t *testing.T) {
	m, plans, bag := analyze(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"sink",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"v",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"int"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Name","id":"v"}}]},
	  {"_type":"FunctionDef","name":"caller",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"xs",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Name","id":"int"}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Expr","value":{"_type":"Call",
	       "func":{"_type":"Name","id":"sink"},
	       "args":[{"_type":"Name","id":"xs"}],"keywords":[]}},
	     {"_type":"Return","value":{"_type":"Name","id":"xs"}}]}]}`)

	fn := m.Func("caller")
	modes := readModes(plans[fn], fn, "xs")
	if len(modes) != 2 {
		t.Fatalf("reads of xs = %d, want 2", len(modes))
	}
	if modes[0] != hir.UseCloneOnUse {
		t.Errorf("argument to sink = %s, want clone fallback", modes[0])
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.OwnParamConflict {
			found = true
		}
	}
	if !found {
		t.Errorf("missing param-conflict diagnostic; got %v", bag.Items())
	}
}

func TestMutationWindowOverlapClones(t *testing.T) {
	m, plans, bag := analyze(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"dup_head",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"xs",
	       "annotation":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"list"},
	         "slice":{"_type":"Subscript",
	           "value":{"_type":"Name","id":"list"},
	           "slice":{"_type":"Name","id":"int"}}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Expr","value":{"_type":"Call",
	     "func":{"_type":"Attribute","value":{"_type":"Name","id":"xs"},"attr":"append"},
	     "args":[{"_type":"Subscript",
	       "value":{"_type":"Name","id":"xs"},
	       "slice":{"_type":"Constant","value":0}}],"keywords":[]}}]}]}`)

	fn := m.Func("dup_head")
	modes := readModes(plans[fn], fn, "xs")
	// receiver then the overlapping read inside the arguments
	if len(modes) != 2 {
		t.Fatalf("reads of xs = %d, want 2", len(modes))
	}
	if modes[0] != hir.UseUniqueBorrow {
		t.Errorf("receiver = %s, want unique borrow", modes[0])
	}
	if modes[1] != hir.UseCloneOnUse {
		t.Errorf("overlapping read = %s, want clone", modes[1])
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.OwnCloneFallback {
			found = true
		}
	}
	if !found {
		t.Errorf("missing clone-fallback diagnostic")
	}
}
