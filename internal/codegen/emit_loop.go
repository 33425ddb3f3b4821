package codegen

import (
	"fmt"
	"strings"

	"depyler/internal/hir"
	"depyler/internal/types"
)

func (fe *funcEmitter) emitFor(s *hir.Stmt, d hir.ForData) {
	pattern, iterSrc := fe.forHeader(d.Target, d.Iter)
	fe.flushLets()
	flag := fe.beginLoop(d.Orelse)
	fe.e.open("for %s in %s {", pattern, iterSrc)
	for _, st := range d.Body {
		fe.emitStmt(st)
	}
	fe.e.close("")
	fe.endLoop(flag, d.Orelse)
}

// forHeader renders the loop pattern and the iterable for one for-clause,
// picking the iteration shape from the iterable expression.
func (fe *funcEmitter) forHeader(target *hir.Target, iter *hir.Expr) (string, string) {
	pattern := fe.loopPattern(target)
	switch d := iter.Data.(type) {
	case hir.CallData:
		if d.Module == "" && d.Func == nil {
			if src, ok := fe.rangeIter(d); ok {
				return pattern, src
			}
			switch d.Name {
			case "enumerate":
				if len(d.Args) == 1 {
					return pattern, fe.iterOf(d.Args[0]) + ".enumerate()"
				}
			case "zip":
				if len(d.Args) == 2 {
					return pattern, fe.iterOf(d.Args[0]) + ".zip(" + fe.iterOf(d.Args[1]) + ")"
				}
			case "reversed":
				if len(d.Args) == 1 {
					return pattern, fe.iterOf(d.Args[0]) + ".rev()"
				}
			case "sorted":
				if len(d.Args) == 1 {
					return pattern, fmt.Sprintf("{ let mut _v = %s.clone(); _v.sort(); _v }", fe.render(d.Args[0]))
				}
			}
		}
	case hir.MethodCallData:
		if d.Receiver.Type != nil && d.Receiver.Type.Kind == types.KindDict && len(d.Args) == 0 {
			recv := fe.render(d.Receiver)
			switch d.Method {
			case "items":
				return pattern, recv + ".iter()"
			case "keys":
				return pattern, recv + ".keys()"
			case "values":
				return pattern, recv + ".values()"
			}
		}
	}
	return pattern, fe.plainIter(target, iter)
}

// plainIter is the default shape: borrowed iteration, or an owned clone
// when the body mutates the loop variable.
func (fe *funcEmitter) plainIter(target *hir.Target, iter *hir.Expr) string {
	switch typeKind(iter.Type) {
	case types.KindStr:
		return fe.render(iter) + ".chars()"
	case types.KindDict:
		return fe.render(iter) + ".keys()"
	}
	if target.Kind == hir.TargetName && fe.fn != nil {
		if fe.needsMut(target.Name) {
			fe.e.ctx.Fallback("loop body mutates " + target.Name + "; iterating an owned clone")
			return fe.render(iter) + ".clone()"
		}
	}
	s := fe.render(iter)
	if _, ok := iter.Data.(hir.VarData); ok {
		return "&" + s
	}
	return s
}

// iterOf renders the argument of an iterator adapter as an .iter() chain.
func (fe *funcEmitter) iterOf(x *hir.Expr) string {
	if typeKind(x.Type) == types.KindStr {
		return fe.render(x) + ".chars()"
	}
	return fe.render(x) + ".iter()"
}

// rangeIter renders range(...) calls as integer ranges.
func (fe *funcEmitter) rangeIter(d hir.CallData) (string, bool) {
	if d.Name != "range" {
		return "", false
	}
	switch len(d.Args) {
	case 1:
		return "0.." + fe.parenRender(d.Args[0]), true
	case 2:
		return fe.parenRender(d.Args[0]) + ".." + fe.parenRender(d.Args[1]), true
	case 3:
		start := fe.parenRender(d.Args[0])
		stop := fe.parenRender(d.Args[1])
		if isNegOne(d.Args[2]) {
			return fmt.Sprintf("((%s + 1)..=%s).rev()", stop, start), true
		}
		step := fe.render(d.Args[2])
		return fmt.Sprintf("(%s..%s).step_by((%s) as usize)", start, stop, step), true
	}
	return "", false
}

func isNegOne(x *hir.Expr) bool {
	u, ok := x.Data.(hir.UnaryData)
	if !ok || u.Op != hir.UnaryNeg {
		return false
	}
	lit, ok := u.Operand.Data.(hir.LiteralData)
	return ok && lit.Kind == hir.LitInt && lit.Text == "1"
}

// loopPattern renders a for-loop binding pattern and marks its names as
// declared for the body.
func (fe *funcEmitter) loopPattern(t *hir.Target) string {
	switch t.Kind {
	case hir.TargetName:
		fe.declared[t.Name] = true
		if fe.fn != nil {
			if fe.needsMut(t.Name) {
				return "mut " + t.Name
			}
		}
		return t.Name
	case hir.TargetTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = fe.loopPattern(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "_"
	}
}
