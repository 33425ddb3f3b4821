package hints

import (
	"testing"

	"depyler/internal/hir"
	"depyler/internal/types"
)

func variable(name string) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprVar, Type: types.Unknown, Data: hir.VarData{Name: name}}
}

func intLit(text string) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Type: types.Int, Data: hir.LiteralData{Kind: hir.LitInt, Text: text}}
}

func exprStmt(x *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Value: x}}
}

func TestMethodEvidenceRanksContainer(t *testing.T) {
	fn := &hir.Func{
		Name: "process",
		Params: []hir.Param{
			{Name: "items", Type: types.Unknown},
		},
		Body: []*hir.Stmt{
			exprStmt(&hir.Expr{Kind: hir.ExprMethodCall, Type: types.Unknown, Data: hir.MethodCallData{
				Receiver: variable("items"),
				Method:   "append",
				Args:     []*hir.Expr{intLit("1")},
			}}),
			exprStmt(&hir.Expr{Kind: hir.ExprIndex, Type: types.Unknown, Data: hir.IndexData{
				Object: variable("items"),
				Index:  intLit("0"),
			}}),
		},
	}
	m := &hir.Module{Funcs: []*hir.Func{fn}}

	suggestions := Analyze(m)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	s := suggestions[0]
	if s.Func != "process" || s.Name != "items" {
		t.Fatalf("suggestion for %s.%s, want process.items", s.Func, s.Name)
	}
	if len(s.Candidates) == 0 || s.Candidates[0].Type != "Vec<_>" {
		t.Fatalf("top candidate = %+v, want Vec<_>", s.Candidates)
	}
	if s.Candidates[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for unanimous evidence", s.Candidates[0].Confidence)
	}
}

func TestMixedEvidenceIsNormalized(t *testing.T) {
	// name is concatenated with a string once and upper-cased once,
	// then also used as a numeric addend once: String must win.
	strLit := &hir.Expr{Kind: hir.ExprLiteral, Type: types.Str, Data: hir.LiteralData{Kind: hir.LitStr, Str: "x"}}
	fn := &hir.Func{
		Name: "label",
		Params: []hir.Param{
			{Name: "name", Type: types.Unknown},
		},
		Body: []*hir.Stmt{
			exprStmt(&hir.Expr{Kind: hir.ExprBinary, Type: types.Unknown, Data: hir.BinaryData{
				Op: hir.OpAdd, Left: variable("name"), Right: strLit,
			}}),
			exprStmt(&hir.Expr{Kind: hir.ExprMethodCall, Type: types.Unknown, Data: hir.MethodCallData{
				Receiver: variable("name"), Method: "upper",
			}}),
			exprStmt(&hir.Expr{Kind: hir.ExprBinary, Type: types.Unknown, Data: hir.BinaryData{
				Op: hir.OpAdd, Left: variable("name"), Right: intLit("1"),
			}}),
		},
	}
	m := &hir.Module{Funcs: []*hir.Func{fn}}

	suggestions := Analyze(m)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	cands := suggestions[0].Candidates
	if cands[0].Type != "String" {
		t.Fatalf("top candidate = %+v, want String", cands)
	}
	total := 0.0
	for _, c := range cands {
		total += c.Confidence
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("confidences sum to %v, want 1", total)
	}
}

func TestDefaultValueEvidence(t *testing.T) {
	fn := &hir.Func{
		Name: "scale",
		Params: []hir.Param{
			{Name: "ratio", Type: types.Unknown, Default: &hir.Expr{
				Kind: hir.ExprLiteral, Type: types.Float,
				Data: hir.LiteralData{Kind: hir.LitFloat, Text: "1.5"},
			}},
		},
	}
	m := &hir.Module{Funcs: []*hir.Func{fn}}

	suggestions := Analyze(m)
	if len(suggestions) != 1 || suggestions[0].Candidates[0].Type != "f64" {
		t.Fatalf("suggestions = %+v, want f64 for ratio", suggestions)
	}
}

func TestResolvedParamsAndSelfSkipped(t *testing.T) {
	fn := &hir.Func{
		Name: "add",
		Params: []hir.Param{
			{Name: "self", Type: types.Unknown},
			{Name: "a", Type: types.Int},
		},
		Body: []*hir.Stmt{
			exprStmt(&hir.Expr{Kind: hir.ExprBinary, Type: types.Int, Data: hir.BinaryData{
				Op: hir.OpAdd, Left: variable("a"), Right: intLit("1"),
			}}),
		},
	}
	m := &hir.Module{Funcs: []*hir.Func{fn}}
	if got := Analyze(m); len(got) != 0 {
		t.Errorf("suggestions for resolved params: %+v", got)
	}
}

func TestReportLines(t *testing.T) {
	lines := Lines([]Suggestion{{
		Func: "process",
		Name: "items",
		Candidates: []Candidate{
			{Type: "Vec<_>", Confidence: 0.75, Rationale: "receiver of .append()"},
		},
	}})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	want := "process.items: Vec<_> (75%, receiver of .append())"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}
