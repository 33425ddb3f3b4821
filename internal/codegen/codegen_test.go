package codegen

import (
	"strings"
	"testing"

	"depyler/internal/config"
	"depyler/internal/directive"
	"depyler/internal/hir"
	"depyler/internal/infer"
	"depyler/internal/pyast"
	"depyler/internal/source"
)

func transpile(t *testing.T, src string, cfg config.Config) *Output {
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
	plans, _ := hir.AnalyzeOwnership(m, 64)
	return EmitModule(m, plans, cfg)
}

func itemSrc(t *testing.T, out *Output, name string) string {
	t.Helper()
	for _, it := range out.Items {
		if it.Name == name {
			return it.Src
		}
	}
	t.Fatalf("no item named %q; have %d items", name, len(out.Items))
	return ""
}

func wantContains(t *testing.T, src, sub string) {
	t.Helper()
	if !strings.Contains(src, sub) {
		t.Errorf("missing %q in:\n%s", sub, src)
	}
}

func wantNotContains(t *testing.T, src, sub string) {
	t.Helper()
	if strings.Contains(src, sub) {
		t.Errorf("unexpected %q in:\n%s", sub, src)
	}
}

const intArgs = `"args":{"_type":"arguments","posonlyargs":[],
  "args":[
    {"_type":"arg","arg":"a","annotation":{"_type":"Name","id":"int"}},
    {"_type":"arg","arg":"b","annotation":{"_type":"Name","id":"int"}}],
  "defaults":[],"kwonlyargs":[],"kw_defaults":[]}`

func TestEmitAddFunction(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"add",`+intArgs+`,
	   "returns":{"_type":"Name","id":"int"},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"BinOp",
	     "left":{"_type":"Name","id":"a"},
	     "op":{"_type":"Add"},
	     "right":{"_type":"Name","id":"b"}}}]}]}`, config.Default())

	src := itemSrc(t, out, "add")
	wantContains(t, src, "pub fn add(a: i64, b: i64) -> i64 {")
	wantContains(t, src, "return a + b;")
	wantNotContains(t, src, "Result<")
	if out.Ctx.Needs.DepylerValue {
		t.Error("plain integer arithmetic should not need the dynamic carrier")
	}
}

func TestIntLiteralWidensInFloatContext(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"f",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"x","annotation":{"_type":"Name","id":"float"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "returns":{"_type":"Name","id":"float"},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"BinOp",
	     "left":{"_type":"Constant","value":1},
	     "op":{"_type":"Sub"},
	     "right":{"_type":"Name","id":"x"}}}]}]}`, config.Default())

	src := itemSrc(t, out, "f")
	wantContains(t, src, "-> f64")
	wantContains(t, src, "1.0 - x")
}

func TestHeterogeneousListUsesCarrier(t *testing.T) {
	cfg := config.Default()
	cfg.NasaMode = true
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"mixed",
	   "args":{"_type":"arguments","posonlyargs":[],"args":[],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Assign",
	     "targets":[{"_type":"Name","id":"xs"}],
	     "value":{"_type":"List","elts":[
	       {"_type":"Constant","value":1},
	       {"_type":"Constant","value":"x"},
	       {"_type":"Constant","value":3.14}]}}]}]}`, cfg)

	src := itemSrc(t, out, "mixed")
	wantContains(t, src, "DepylerValue::Int(1)")
	wantContains(t, src, `DepylerValue::Str("x".to_string())`)
	wantContains(t, src, "DepylerValue::Float(3.14)")
	if !out.Ctx.Needs.DepylerValue {
		t.Error("heterogeneous list must fire the carrier need")
	}
	if out.Items[0].Kind != ItemSupport {
		t.Errorf("carrier definition should lead the item list, got kind %d", out.Items[0].Kind)
	}
}

func TestRangeLoopAppend(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"squares",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"n","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Assign","targets":[{"_type":"Name","id":"result"}],
	      "value":{"_type":"List","elts":[]}},
	     {"_type":"For","target":{"_type":"Name","id":"i"},
	      "iter":{"_type":"Call","func":{"_type":"Name","id":"range"},
	        "args":[{"_type":"Name","id":"n"}],"keywords":[]},
	      "body":[{"_type":"Expr","value":{"_type":"Call",
	        "func":{"_type":"Attribute","value":{"_type":"Name","id":"result"},"attr":"append"},
	        "args":[{"_type":"BinOp",
	          "left":{"_type":"Name","id":"i"},
	          "op":{"_type":"Mult"},
	          "right":{"_type":"Name","id":"i"}}],"keywords":[]}}],
	      "orelse":[]},
	     {"_type":"Return","value":{"_type":"Name","id":"result"}}]}]}`, config.Default())

	src := itemSrc(t, out, "squares")
	wantContains(t, src, "let mut result = vec![];")
	wantContains(t, src, "for i in 0..n {")
	wantContains(t, src, "result.push(i * i);")
	wantContains(t, src, "return result;")
}

func TestTryWithDefaultStaysPlain(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"parse",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"s","annotation":{"_type":"Name","id":"str"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "returns":{"_type":"Name","id":"int"},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Try",
	      "body":[{"_type":"Assign","targets":[{"_type":"Name","id":"x"}],
	        "value":{"_type":"Call","func":{"_type":"Name","id":"int"},
	          "args":[{"_type":"Name","id":"s"}],"keywords":[]}}],
	      "handlers":[{"_type":"ExceptHandler",
	        "type":{"_type":"Name","id":"ValueError"},
	        "body":[{"_type":"Assign","targets":[{"_type":"Name","id":"x"}],
	          "value":{"_type":"Constant","value":0}}]}],
	      "orelse":[],"finalbody":[]},
	     {"_type":"Return","value":{"_type":"Name","id":"x"}}]}]}`, config.Default())

	src := itemSrc(t, out, "parse")
	wantContains(t, src, "-> i64")
	wantNotContains(t, src, "-> Result<")
	wantContains(t, src, ".unwrap_or(0)")
	wantContains(t, src, "parse::<i64>()?")
	wantContains(t, src, "return x;")
}

func TestRaiseLiftsToResult(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"check",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"x","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "returns":{"_type":"Name","id":"int"},
	   "decorator_list":[],
	   "body":[
	     {"_type":"If","test":{"_type":"Compare",
	        "left":{"_type":"Name","id":"x"},
	        "ops":[{"_type":"Lt"}],
	        "comparators":[{"_type":"Constant","value":0}]},
	      "body":[{"_type":"Raise","exc":{"_type":"Call",
	        "func":{"_type":"Name","id":"ValueError"},
	        "args":[{"_type":"Constant","value":"negative"}],"keywords":[]}}],
	      "orelse":[]},
	     {"_type":"Return","value":{"_type":"Name","id":"x"}}]},
	  {"_type":"FunctionDef","name":"caller",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"x","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Name","id":"check"},
	     "args":[{"_type":"Name","id":"x"}],"keywords":[]}}]}]}`, config.Default())

	check := itemSrc(t, out, "check")
	wantContains(t, check, "-> Result<i64, Box<dyn std::error::Error>>")
	wantContains(t, check, `return Err("negative".to_string().into());`)
	wantContains(t, check, "return Ok(x);")

	caller := itemSrc(t, out, "caller")
	wantContains(t, caller, "-> Result<i64, Box<dyn std::error::Error>>")
	wantContains(t, caller, "check(x)?")
}

func TestModuleDispatchFiresNeeds(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"Import","names":[{"_type":"alias","name":"json"}]},
	  {"_type":"FunctionDef","name":"encode",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"x","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "returns":{"_type":"Name","id":"str"},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Attribute","value":{"_type":"Name","id":"json"},"attr":"dumps"},
	     "args":[{"_type":"Name","id":"x"}],"keywords":[]}}]}]}`, config.Default())

	src := itemSrc(t, out, "encode")
	wantContains(t, src, "serde_json::to_string(&x)")
	if !out.Ctx.Needs.SerdeJSON {
		t.Error("json.dumps must fire the serde_json need")
	}
	var names []string
	for _, dep := range out.Ctx.CrateDeps() {
		names = append(names, dep.Name)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "serde_json") || !strings.Contains(joined, "serde") {
		t.Errorf("manifest deps = %v, want serde_json and serde", names)
	}
}

func TestDataclassEmitsStructAndLiteral(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"ClassDef","name":"Point",
	   "bases":[],"decorator_list":[{"_type":"Name","id":"dataclass"}],
	   "body":[
	     {"_type":"AnnAssign","target":{"_type":"Name","id":"x"},
	      "annotation":{"_type":"Name","id":"int"}},
	     {"_type":"AnnAssign","target":{"_type":"Name","id":"y"},
	      "annotation":{"_type":"Name","id":"int"}}]},
	  {"_type":"FunctionDef","name":"origin",
	   "args":{"_type":"arguments","posonlyargs":[],"args":[],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return","value":{"_type":"Call",
	     "func":{"_type":"Name","id":"Point"},
	     "args":[{"_type":"Constant","value":0},{"_type":"Constant","value":0}],
	     "keywords":[]}}]}]}`, config.Default())

	st := itemSrc(t, out, "Point")
	wantContains(t, st, "#[derive(Debug, Clone, PartialEq)]")
	wantContains(t, st, "pub struct Point {")
	wantContains(t, st, "pub x: i64,")

	fn := itemSrc(t, out, "origin")
	wantContains(t, fn, "Point { x: 0, y: 0 }")
}

func TestGeneratorAccumulates(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"firsts",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"n","annotation":{"_type":"Name","id":"int"}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"For","target":{"_type":"Name","id":"i"},
	     "iter":{"_type":"Call","func":{"_type":"Name","id":"range"},
	       "args":[{"_type":"Name","id":"n"}],"keywords":[]},
	     "body":[{"_type":"Expr","value":{"_type":"Yield",
	       "value":{"_type":"Name","id":"i"}}}],
	     "orelse":[]}]}]}`, config.Default())

	src := itemSrc(t, out, "firsts")
	wantContains(t, src, "impl Iterator<Item = i64>")
	wantContains(t, src, "let mut __yields: Vec<i64> = Vec::new();")
	wantContains(t, src, "__yields.push(i);")
	wantContains(t, src, "__yields.into_iter()")
}

func TestIsNotNoneGuardUnwraps(t *testing.T) {
	out := transpile(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"first_or_zero",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"m","annotation":{"_type":"Subscript",
	       "value":{"_type":"Name","id":"dict"},
	       "slice":{"_type":"Tuple","elts":[
	         {"_type":"Name","id":"str"},{"_type":"Name","id":"int"}]}}}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "returns":{"_type":"Name","id":"int"},
	   "decorator_list":[],
	   "body":[
	     {"_type":"Assign","targets":[{"_type":"Name","id":"v"}],
	      "value":{"_type":"Call",
	        "func":{"_type":"Attribute","value":{"_type":"Name","id":"m"},"attr":"get"},
	        "args":[{"_type":"Constant","value":"k"}],"keywords":[]}},
	     {"_type":"If","test":{"_type":"Compare",
	        "left":{"_type":"Name","id":"v"},
	        "ops":[{"_type":"IsNot"}],
	        "comparators":[{"_type":"Constant","value":null}]},
	      "body":[{"_type":"Return","value":{"_type":"Name","id":"v"}}],
	      "orelse":[]},
	     {"_type":"Return","value":{"_type":"Constant","value":0}}]}]}`, config.Default())

	src := itemSrc(t, out, "first_or_zero")
	wantContains(t, src, "if v.is_some() {")
	wantContains(t, src, "return v.unwrap();")
	wantContains(t, src, `m.get("k").cloned()`)
}
