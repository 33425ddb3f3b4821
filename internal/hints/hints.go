// Package hints ranks candidate types for parameters inference left
// unresolved. It re-walks the HIR after inference, gathers evidence
// from how each value is used, and produces scored suggestions for
// diagnostics and the companion report. Nothing here mutates the HIR.
package hints

import (
	"fmt"
	"sort"

	"depyler/internal/hir"
	"depyler/internal/source"
	"depyler/internal/types"
)

// Candidate is one suggested type with the evidence behind it.
type Candidate struct {
	// Type is the Rust-facing spelling: i64, f64, String, Vec<_>, ...
	Type       string
	Confidence float64
	Rationale  string
}

// Suggestion collects the ranked candidates for one unresolved name.
type Suggestion struct {
	Func       string
	Name       string
	Span       source.Span
	Candidates []Candidate
}

// Analyze inspects every function and method whose parameters stayed
// unresolved and returns suggestions ordered by function, then name.
func Analyze(m *hir.Module) []Suggestion {
	var out []Suggestion
	forEachFunc(m, func(fn *hir.Func) {
		for _, p := range fn.Params {
			if p.Name == "self" || p.Name == "cls" || p.Type.IsResolved() {
				continue
			}
			ev := gather(fn, p)
			if len(ev) == 0 {
				continue
			}
			out = append(out, Suggestion{
				Func:       fn.Name,
				Name:       p.Name,
				Span:       fn.Span,
				Candidates: rank(ev),
			})
		}
	})
	return out
}

func forEachFunc(m *hir.Module, f func(*hir.Func)) {
	for _, fn := range m.Funcs {
		f(fn)
	}
	for _, c := range m.Classes {
		for _, meth := range c.Methods {
			f(meth)
		}
	}
}

// evidence accumulates weight and the first rationale per candidate.
type evidence map[string]*struct {
	weight float64
	why    string
}

func (ev evidence) add(typ string, weight float64, why string) {
	e := ev[typ]
	if e == nil {
		e = &struct {
			weight float64
			why    string
		}{}
		ev[typ] = e
	}
	e.weight += weight
	if e.why == "" {
		e.why = why
	}
}

func gather(fn *hir.Func, p hir.Param) evidence {
	ev := make(evidence)
	if p.Default != nil {
		if lit, ok := p.Default.Data.(hir.LiteralData); ok {
			switch lit.Kind {
			case hir.LitInt:
				ev.add("i64", 2, "integer default value")
			case hir.LitFloat:
				ev.add("f64", 2, "float default value")
			case hir.LitStr:
				ev.add("String", 2, "string default value")
			case hir.LitBool:
				ev.add("bool", 2, "boolean default value")
			case hir.LitNone:
				ev.add("Option<_>", 1, "None default value")
			}
		}
	}
	hir.WalkStmts(fn.Body, hir.Visitor{
		PreStmt: func(s *hir.Stmt) bool {
			if d, ok := s.Data.(hir.ForData); ok && isVar(d.Iter, p.Name) {
				ev.add("Vec<_>", 1, "iterated in a for loop")
			}
			return true
		},
		PreExpr: func(x *hir.Expr) bool {
			switch d := x.Data.(type) {
			case hir.BinaryData:
				gatherBinary(ev, d, p.Name)
			case hir.MethodCallData:
				if isVar(d.Receiver, p.Name) {
					gatherMethod(ev, d.Method)
				}
			case hir.IndexData:
				if isVar(d.Object, p.Name) {
					if typeKind(d.Index.Type) == types.KindStr {
						ev.add("HashMap<String, _>", 2, "indexed with a string key")
					} else {
						ev.add("Vec<_>", 2, "indexed with a numeric position")
					}
				}
			}
			return true
		},
	})
	return ev
}

func gatherBinary(ev evidence, d hir.BinaryData, name string) {
	var other *hir.Expr
	switch {
	case isVar(d.Left, name):
		other = d.Right
	case isVar(d.Right, name):
		other = d.Left
	default:
		return
	}
	if d.Op.IsComparison() {
		if typeKind(other.Type) == types.KindStr {
			ev.add("String", 2, fmt.Sprintf("compared with a string using %s", d.Op))
		}
		return
	}
	switch d.Op {
	case hir.OpAdd:
		if typeKind(other.Type) == types.KindStr {
			ev.add("String", 3, "concatenated with a string")
			return
		}
		numericEvidence(ev, other, "added to")
	case hir.OpSub, hir.OpMul, hir.OpMod, hir.OpFloorDiv, hir.OpPow:
		numericEvidence(ev, other, fmt.Sprintf("used with %s on", d.Op))
	case hir.OpDiv:
		ev.add("f64", 3, "used in true division")
	}
}

func numericEvidence(ev evidence, other *hir.Expr, verb string) {
	if typeKind(other.Type) == types.KindFloat {
		ev.add("f64", 3, verb+" a float operand")
		return
	}
	ev.add("i64", 2, verb+" an integer operand")
}

// methodCandidates maps a method name to the receiver type it implies.
var methodCandidates = map[string]struct {
	typ    string
	weight float64
}{
	"append": {"Vec<_>", 3}, "extend": {"Vec<_>", 3}, "insert": {"Vec<_>", 2},
	"sort": {"Vec<_>", 3}, "reverse": {"Vec<_>", 3}, "pop": {"Vec<_>", 2},
	"get": {"HashMap<String, _>", 2}, "keys": {"HashMap<String, _>", 3},
	"values": {"HashMap<String, _>", 3}, "items": {"HashMap<String, _>", 3},
	"setdefault": {"HashMap<String, _>", 3}, "update": {"HashMap<String, _>", 2},
	"add": {"HashSet<_>", 3}, "discard": {"HashSet<_>", 3},
	"union": {"HashSet<_>", 3}, "intersection": {"HashSet<_>", 3},
	"upper": {"String", 3}, "lower": {"String", 3}, "strip": {"String", 3},
	"split": {"String", 3}, "join": {"String", 3}, "replace": {"String", 3},
	"startswith": {"String", 3}, "endswith": {"String", 3}, "find": {"String", 2},
}

func gatherMethod(ev evidence, method string) {
	if c, ok := methodCandidates[method]; ok {
		ev.add(c.typ, c.weight, fmt.Sprintf("receiver of .%s()", method))
	}
}

// rank normalizes the evidence weights into confidences summing to one
// and orders candidates best first, with a stable name tie-break.
func rank(ev evidence) []Candidate {
	total := 0.0
	for _, e := range ev {
		total += e.weight
	}
	out := make([]Candidate, 0, len(ev))
	for typ, e := range ev {
		out = append(out, Candidate{
			Type:       typ,
			Confidence: e.weight / total,
			Rationale:  e.why,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func isVar(x *hir.Expr, name string) bool {
	if x == nil {
		return false
	}
	v, ok := x.Data.(hir.VarData)
	return ok && v.Name == name
}

func typeKind(t *types.Type) types.Kind {
	if t == nil {
		return types.KindUnknown
	}
	return t.Kind
}

// Lines formats suggestions for the companion report.
func Lines(suggestions []Suggestion) []string {
	var out []string
	for _, s := range suggestions {
		for _, c := range s.Candidates {
			out = append(out, fmt.Sprintf("%s.%s: %s (%.0f%%, %s)",
				s.Func, s.Name, c.Type, c.Confidence*100, c.Rationale))
		}
	}
	return out
}
