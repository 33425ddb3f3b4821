package driver

import (
	"errors"
	"strings"
	"testing"

	"depyler/internal/config"
	"depyler/internal/diag"
	"depyler/internal/source"
)

const addAST = `{"_type":"Module","body":[
  {"_type":"FunctionDef","name":"add",
   "args":{"_type":"arguments","posonlyargs":[],
     "args":[
       {"_type":"arg","arg":"a","annotation":{"_type":"Name","id":"int"}},
       {"_type":"arg","arg":"b","annotation":{"_type":"Name","id":"int"}}],
     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
   "returns":{"_type":"Name","id":"int"},
   "decorator_list":[],
   "body":[{"_type":"Return","value":{"_type":"BinOp",
     "left":{"_type":"Name","id":"a"},
     "op":{"_type":"Add"},
     "right":{"_type":"Name","id":"b"}}}]}]}`

const addPy = "def add(a: int, b: int) -> int:\n    return a + b\n"

func TestTranspileProducesArtifact(t *testing.T) {
	art, err := Transpile("calc.py", []byte(addPy), []byte(addAST), config.Default())
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	if art.ModuleName != "calc" {
		t.Errorf("ModuleName = %q, want calc", art.ModuleName)
	}
	if !strings.Contains(art.Rust, "pub fn add(a: i64, b: i64) -> i64 {") {
		t.Errorf("missing add signature in:\n%s", art.Rust)
	}
	if !strings.Contains(art.Rust, "// Transpiled from calc.py by depyler.") {
		t.Errorf("missing header in:\n%s", art.Rust)
	}
	if !strings.Contains(art.Manifest, "[package]") {
		t.Errorf("missing package section in manifest:\n%s", art.Manifest)
	}
	if !strings.Contains(art.Manifest, `name = "calc"`) {
		t.Errorf("manifest name not derived from source:\n%s", art.Manifest)
	}
	if !strings.Contains(art.Report, "depyler report for calc.py") {
		t.Errorf("missing report header:\n%s", art.Report)
	}
	if art.HasErrors() {
		t.Errorf("unexpected error diagnostics: %v", art.Diags)
	}
}

func TestTranspileTimingsDiagnostic(t *testing.T) {
	var seen []string
	opts := Options{
		Timings: true,
		Observer: func(ev PhaseEvent) {
			if ev.Status == PhaseEnd {
				seen = append(seen, ev.Name)
			}
		},
	}
	art, err := TranspileWithOptions("calc.py", []byte(addPy), []byte(addAST), config.Default(), opts)
	if err != nil {
		t.Fatalf("TranspileWithOptions: %v", err)
	}

	want := []string{"parse", "lower", "infer", "ownership", "emit", "fixup", "assemble"}
	if len(seen) != len(want) {
		t.Fatalf("phases = %v, want %v", seen, want)
	}
	for i, name := range want {
		if seen[i] != name {
			t.Errorf("phase[%d] = %q, want %q", i, seen[i], name)
		}
	}

	found := false
	for _, d := range art.Diags {
		if d.Code == diag.DrvInfo && strings.HasPrefix(d.Message, "timings:") {
			found = true
		}
	}
	if !found {
		t.Errorf("no timings diagnostic in %v", art.Diags)
	}
}

func TestTranspileWarnsOnUnknownDirectiveKey(t *testing.T) {
	src := "# depyler: frobnicate = yes\n" + addPy
	art, err := Transpile("calc.py", []byte(src), []byte(addAST), config.Default())
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	found := false
	for _, d := range art.Diags {
		if d.Code == diag.DrvBadDirective && strings.Contains(d.Message, "frobnicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("no bad-directive warning in %v", art.Diags)
	}
}

func TestTranspileBadASTIsUserInputError(t *testing.T) {
	_, err := Transpile("bad.py", []byte("oops\n"), []byte(`{"_type":"Expr"}`), config.Default())
	if err == nil {
		t.Fatal("expected error for non-Module root")
	}
	if !errors.Is(err, ErrUserInput) {
		t.Errorf("err = %v, want ErrUserInput", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrUserInput, 1},
		{ErrVerification, 3},
		{errors.New("boom"), 2},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestVerifyArtifactLevels(t *testing.T) {
	good := &Artifact{
		Rust:     "pub fn f() -> i64 {\n    return 1;\n}\n",
		Manifest: "[package]\nname = \"f\"\nversion = \"0.1.0\"\n",
	}
	if failures := VerifyArtifact(config.VerifyStrict, good); len(failures) != 0 {
		t.Errorf("clean artifact failed strict verify: %v", failures)
	}

	unbalanced := &Artifact{
		Rust:     "pub fn f() -> i64 {\n    return 1;\n",
		Manifest: good.Manifest,
	}
	if failures := VerifyArtifact(config.VerifyBasic, unbalanced); len(failures) == 0 {
		t.Error("unbalanced braces passed basic verify")
	}
	if failures := VerifyArtifact(config.VerifyNone, unbalanced); len(failures) != 0 {
		t.Errorf("level none must not verify, got %v", failures)
	}

	badManifest := &Artifact{Rust: good.Rust, Manifest: "[package\n"}
	if failures := VerifyArtifact(config.VerifyBasic, badManifest); len(failures) != 0 {
		t.Errorf("basic level must not check the manifest, got %v", failures)
	}
	if failures := VerifyArtifact(config.VerifyFull, badManifest); len(failures) == 0 {
		t.Error("invalid manifest passed full verify")
	}

	withErrors := &Artifact{
		Rust:     good.Rust,
		Manifest: good.Manifest,
		Diags:    []diag.Diagnostic{diag.NewError(diag.GenDynamicCarrier, source.Span{}, "unresolved")},
	}
	if failures := VerifyArtifact(config.VerifyFull, withErrors); len(failures) != 0 {
		t.Errorf("full level must not check diagnostics, got %v", failures)
	}
	if failures := VerifyArtifact(config.VerifyStrict, withErrors); len(failures) == 0 {
		t.Error("error diagnostics passed strict verify")
	}
}

func TestDelimiterCheckIgnoresLiteralsAndComments(t *testing.T) {
	src := "pub fn f() -> String {\n" +
		"    // unmatched { in comment\n" +
		"    let s = \"brace { and paren (\".to_string();\n" +
		"    let c = '{';\n" +
		"    return s;\n" +
		"}\n"
	if msg := delimiterCheck(src); msg != "" {
		t.Errorf("delimiterCheck = %q, want clean", msg)
	}
	if msg := delimiterCheck("fn f() {\n"); msg == "" {
		t.Error("missing close brace not detected")
	}
}
