package codegen

import (
	"fmt"
	"strings"

	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/hir"
	"depyler/internal/types"
)

func (fe *funcEmitter) emitStmt(s *hir.Stmt) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		fe.emitAssign(s, d)
	case hir.AugAssignData:
		fe.emitAugAssign(d)
	case hir.ExprStmtData:
		v := fe.render(d.Value)
		fe.flushLets()
		fe.e.line("%s;", v)
	case hir.ReturnData:
		fe.emitReturn(d)
	case hir.IfStmtData:
		fe.emitIf(d)
	case hir.WhileData:
		fe.emitWhile(d)
	case hir.ForData:
		fe.emitFor(s, d)
	case hir.WithData:
		fe.emitWith(d)
	case hir.TryData:
		fe.emitTry(d)
	case hir.RaiseData:
		fe.emitRaise(s, d)
	case hir.AssertData:
		cond := fe.renderCond(d.Cond)
		if d.Msg != nil {
			fe.e.line("assert!(%s, \"{}\", %s);", cond, fe.render(d.Msg))
		} else {
			fe.e.line("assert!(%s);", cond)
		}
	case hir.YieldData:
		fe.emitYield(d)
	case hir.DelData:
		fe.emitDel(d)
	case hir.ScopeNamesData:
		// global/nonlocal have no Rust counterpart; scoping was
		// already resolved by the bridge.
	case hir.FuncDefData:
		fe.emitNestedFunc(s, d.Func)
	case hir.ClassDefData:
		fe.errorf(diag.GenConstraintViolation, s.Span, "nested class %s cannot be emitted", d.Class.Name)
	default:
		switch s.Kind {
		case hir.StmtPass:
			// nothing
		case hir.StmtBreak:
			if fe.loopFlag > 0 {
				fe.e.line("_completed_%d = false;", fe.loopFlag)
			}
			fe.e.line("break;")
		case hir.StmtContinue:
			fe.e.line("continue;")
		}
	}
}

func (fe *funcEmitter) emitAssign(s *hir.Stmt, d hir.AssignData) {
	switch d.Target.Kind {
	case hir.TargetName:
		name := d.Target.Name
		value := fe.coerce(d.Value, fe.bindingTypeOf(name, d))
		fe.flushLets()
		if fe.declared[name] {
			fe.e.line("%s = %s;", name, value)
			return
		}
		fe.declared[name] = true
		kw := "let"
		if fe.needsMut(name) {
			kw = "let mut"
		}
		if d.Ann != nil {
			fe.e.line("%s %s: %s = %s;", kw, name, fe.e.ctx.rustType(d.Ann), value)
		} else {
			fe.e.line("%s %s = %s;", kw, name, value)
		}
	case hir.TargetTuple:
		value := fe.render(d.Value)
		fe.flushLets()
		pattern, fresh := fe.tuplePattern(d.Target)
		if fresh {
			fe.e.line("let %s = %s;", pattern, value)
		} else {
			fe.e.line("%s = %s;", pattern, value)
		}
	case hir.TargetAttr:
		value := fe.renderOwned(d.Value)
		fe.flushLets()
		fe.e.line("%s.%s = %s;", fe.render(d.Target.Object), d.Target.Attr, value)
	case hir.TargetIndex:
		fe.emitIndexStore(d.Target, fe.renderOwned(d.Value))
	}
}

// bindingTypeOf picks the coercion target for an assignment value.
func (fe *funcEmitter) bindingTypeOf(name string, d hir.AssignData) *types.Type {
	if d.Ann != nil {
		return d.Ann
	}
	return d.Value.Type
}

// tuplePattern renders a destructuring pattern and reports whether every
// bound name is fresh (so the pattern can appear after let).
func (fe *funcEmitter) tuplePattern(t *hir.Target) (string, bool) {
	fresh := true
	for _, n := range t.Names() {
		if fe.declared[n] {
			fresh = false
		}
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		switch e.Kind {
		case hir.TargetName:
			name := e.Name
			if fresh && fe.needsMut(name) {
				name = "mut " + name
			}
			fe.declared[e.Name] = true
			parts[i] = name
		case hir.TargetTuple:
			inner, _ := fe.tuplePattern(e)
			parts[i] = inner
		default:
			parts[i] = "_"
		}
	}
	return "(" + strings.Join(parts, ", ") + ")", fresh
}

func (fe *funcEmitter) emitIndexStore(t *hir.Target, value string) {
	obj := fe.render(t.Object)
	idx := fe.render(t.Index)
	fe.flushLets()
	if t.Object.Type != nil && t.Object.Type.Kind == types.KindDict {
		fe.e.line("%s.insert(%s, %s);", obj, fe.renderOwned(t.Index), value)
		return
	}
	fe.e.line("%s[%s] = %s;", obj, fe.usize(idx, t.Index), value)
}

func (fe *funcEmitter) emitAugAssign(d hir.AugAssignData) {
	value := fe.render(d.Value)
	fe.flushLets()
	var lhs string
	switch d.Target.Kind {
	case hir.TargetName:
		lhs = d.Target.Name
	case hir.TargetAttr:
		lhs = fe.render(d.Target.Object) + "." + d.Target.Attr
	case hir.TargetIndex:
		lhs = fe.render(d.Target.Object) + "[" + fe.usize(fe.render(d.Target.Index), d.Target.Index) + "]"
	}
	switch d.Op {
	case hir.OpAdd, hir.OpSub, hir.OpMul, hir.OpBitAnd, hir.OpBitOr, hir.OpBitXor, hir.OpLShift, hir.OpRShift:
		if d.Op == hir.OpAdd && d.Value.Type != nil && d.Value.Type.Kind == types.KindStr {
			fe.e.line("%s.push_str(&%s);", lhs, value)
			return
		}
		fe.e.line("%s %s= %s;", lhs, d.Op, value)
	case hir.OpDiv:
		fe.e.line("%s /= %s;", lhs, value)
	case hir.OpFloorDiv:
		fe.e.line("%s = %s.div_euclid(%s);", lhs, lhs, value)
	case hir.OpMod:
		fe.e.line("%s %%= %s;", lhs, value)
	case hir.OpPow:
		fe.e.line("%s = %s.pow(%s as u32);", lhs, lhs, value)
	default:
		fe.e.line("%s %s= %s;", lhs, d.Op, value)
	}
}

func (fe *funcEmitter) emitReturn(d hir.ReturnData) {
	fallible := fe.fn != nil && fe.fn.Props.Fallible
	if d.Value == nil {
		if fallible {
			fe.e.line("return Ok(());")
		} else {
			fe.e.line("return;")
		}
		return
	}
	v := fe.coerce(d.Value, fe.fn.Ret)
	fe.flushLets()
	if fallible {
		fe.e.line("return Ok(%s);", v)
	} else {
		fe.e.line("return %s;", v)
	}
}

func (fe *funcEmitter) emitIf(d hir.IfStmtData) {
	fe.flushLets()
	if name, inner, ok := fe.someGuard(d.Cond); ok {
		fe.e.open("if %s.is_some() {", name)
		fe.guarded[name] = inner
		for _, s := range d.Then {
			fe.emitStmt(s)
		}
		delete(fe.guarded, name)
		fe.closeIfElse(d.Else)
		return
	}
	fe.e.open("if %s {", fe.renderCond(d.Cond))
	for _, s := range d.Then {
		fe.emitStmt(s)
	}
	fe.closeIfElse(d.Else)
}

func (fe *funcEmitter) closeIfElse(els []*hir.Stmt) {
	if len(els) == 0 {
		fe.e.close("")
		return
	}
	if len(els) == 1 && els[0].Kind == hir.StmtIf {
		fe.e.indent--
		fe.e.buf.WriteString(strings.Repeat("    ", fe.e.indent))
		fe.e.buf.WriteString("} else ")
		d := els[0].Data.(hir.IfStmtData)
		fe.emitElseIf(d)
		return
	}
	fe.e.indent--
	fe.e.line("} else {")
	fe.e.indent++
	for _, s := range els {
		fe.emitStmt(s)
	}
	fe.e.close("")
}

// emitElseIf continues an else-if chain on the current line.
func (fe *funcEmitter) emitElseIf(d hir.IfStmtData) {
	fe.e.buf.WriteString(fmt.Sprintf("if %s {\n", fe.renderCond(d.Cond)))
	fe.e.indent++
	for _, s := range d.Then {
		fe.emitStmt(s)
	}
	fe.closeIfElse(d.Else)
}

// someGuard recognizes "if x is not None" over an optional binding.
func (fe *funcEmitter) someGuard(cond *hir.Expr) (string, *types.Type, bool) {
	b, ok := cond.Data.(hir.BinaryData)
	if !ok || b.Op != hir.OpIsNot {
		return "", nil, false
	}
	v, ok := b.Left.Data.(hir.VarData)
	if !ok || !isNoneLit(b.Right) {
		return "", nil, false
	}
	if b.Left.Type == nil || b.Left.Type.Kind != types.KindOptional {
		return "", nil, false
	}
	return v.Name, b.Left.Type.Elem(), true
}

func isNoneLit(x *hir.Expr) bool {
	l, ok := x.Data.(hir.LiteralData)
	return ok && l.Kind == hir.LitNone
}

func (fe *funcEmitter) emitWhile(d hir.WhileData) {
	fe.flushLets()
	flag := fe.beginLoop(d.Orelse)
	fe.e.open("while %s {", fe.renderCond(d.Cond))
	for _, s := range d.Body {
		fe.emitStmt(s)
	}
	fe.e.close("")
	fe.endLoop(flag, d.Orelse)
}

// beginLoop declares the completion flag a loop else-clause needs.
func (fe *funcEmitter) beginLoop(orelse []*hir.Stmt) int {
	if len(orelse) == 0 {
		return 0
	}
	fe.loopFlag++
	fe.e.line("let mut _completed_%d = true;", fe.loopFlag)
	return fe.loopFlag
}

func (fe *funcEmitter) endLoop(flag int, orelse []*hir.Stmt) {
	if flag == 0 {
		return
	}
	fe.e.open("if _completed_%d {", flag)
	fe.loopFlag--
	for _, s := range orelse {
		fe.emitStmt(s)
	}
	fe.e.close("")
}

func (fe *funcEmitter) emitWith(d hir.WithData) {
	fe.e.open("{")
	for _, item := range d.Items {
		v := fe.renderOwned(item.Context)
		fe.flushLets()
		if item.Binding != nil && item.Binding.Kind == hir.TargetName {
			fe.declared[item.Binding.Name] = true
			fe.e.line("let mut %s = %s;", item.Binding.Name, v)
		} else {
			fe.e.line("let _guard = %s;", v)
		}
	}
	for _, s := range d.Body {
		fe.emitStmt(s)
	}
	fe.e.close("")
}

// emitTry wraps the body in an immediately-invoked fallible closure and
// matches on its result. Bindings assigned both in the body and in a
// handler are hoisted above the closure so they survive it.
func (fe *funcEmitter) emitTry(d hir.TryData) {
	if fe.emitTryAsDefault(d) {
		return
	}
	fe.hoistTryBindings(d)
	if hasReturn(d.Body) {
		fe.e.ctx.Fallback("return inside try exits only the try block")
		fe.info(diag.GenDefaultFallback, fe.fn.Span, "return inside try exits only the try block")
	}
	fe.e.open("let _try = (|| -> Result<(), Box<dyn std::error::Error>> {")
	fe.inTry++
	for _, s := range d.Body {
		fe.emitStmt(s)
	}
	fe.inTry--
	fe.e.line("Ok(())")
	fe.e.close(")();")
	if len(d.Handlers) > 1 {
		fe.e.ctx.Fallback("multiple except clauses collapsed into one handler")
		fe.info(diag.GenDefaultFallback, fe.fn.Span, "multiple except clauses collapsed into one handler")
	}
	if len(d.Handlers) > 0 {
		h := d.Handlers[0]
		binding := h.Binding
		if binding == "" {
			binding = "_err"
		}
		fe.e.open("if let Err(%s) = _try {", binding)
		fe.declared[binding] = true
		for _, s := range h.Body {
			fe.emitStmt(s)
		}
		fe.e.close("")
	}
	if len(d.Orelse) > 0 {
		fe.e.open("if _try.is_ok() {")
		for _, s := range d.Orelse {
			fe.emitStmt(s)
		}
		fe.e.close("")
	}
	for _, s := range d.Finalbody {
		fe.emitStmt(s)
	}
}

func (fe *funcEmitter) emitRaise(s *hir.Stmt, d hir.RaiseData) {
	panics := policyFor(fe.fn) == directive.PolicyPanics
	if d.Exc == nil {
		if panics {
			fe.e.line("panic!(\"re-raise\");")
		} else {
			fe.e.line("return Err(\"re-raise\".into());")
		}
		return
	}
	msg := fe.raiseMessage(d.Exc)
	fe.flushLets()
	if panics {
		fe.e.line("panic!(\"{}\", %s);", msg)
		return
	}
	fe.e.line("return Err(%s.into());", msg)
}

// raiseMessage extracts the message argument from ExcType(msg) calls,
// falling back to the exception type name.
func (fe *funcEmitter) raiseMessage(exc *hir.Expr) string {
	if call, ok := exc.Data.(hir.CallData); ok && len(call.Args) > 0 {
		return fe.renderOwned(call.Args[0])
	}
	if call, ok := exc.Data.(hir.CallData); ok {
		return fmt.Sprintf("%q.to_string()", call.Name)
	}
	if v, ok := exc.Data.(hir.VarData); ok {
		return fmt.Sprintf("%q.to_string()", v.Name)
	}
	return fe.renderOwned(exc)
}

func (fe *funcEmitter) emitYield(d hir.YieldData) {
	if d.Value == nil {
		fe.e.line("__yields.push(Default::default());")
		return
	}
	v := fe.renderOwned(d.Value)
	fe.flushLets()
	if d.From {
		fe.e.line("__yields.extend(%s);", v)
	} else {
		fe.e.line("__yields.push(%s);", v)
	}
}

func (fe *funcEmitter) emitDel(d hir.DelData) {
	for _, t := range d.Targets {
		switch t.Kind {
		case hir.TargetName:
			fe.e.line("drop(%s);", t.Name)
		case hir.TargetIndex:
			obj := fe.render(t.Object)
			if t.Object.Type != nil && t.Object.Type.Kind == types.KindDict {
				fe.e.line("let _ = %s.remove(&%s);", obj, fe.render(t.Index))
			} else {
				fe.e.line("let _ = %s.remove(%s);", obj, fe.usize(fe.render(t.Index), t.Index))
			}
		}
	}
}

func (fe *funcEmitter) emitNestedFunc(s *hir.Stmt, fn *hir.Func) {
	if capturesEnclosing(fn, fe.declared) {
		fe.errorf(diag.GenConstraintViolation, s.Span, "nested function %s captures its enclosing scope", fn.Name)
		return
	}
	inner := newFuncEmitter(fe.e, fn, nil)
	inner.nested = true
	inner.emitSignature()
	inner.emitBody()
}

// emitTryAsDefault recognizes the try/except shape that assigns one name
// in the body and re-assigns it in a single handler, and folds the whole
// statement into a fallible closure with a default. The conversion
// failure never escapes the binding, so the enclosing function stays
// plain.
func (fe *funcEmitter) emitTryAsDefault(d hir.TryData) bool {
	if len(d.Body) != 1 || len(d.Handlers) != 1 || len(d.Orelse) != 0 || len(d.Finalbody) != 0 {
		return false
	}
	if len(d.Handlers[0].Body) != 1 || d.Handlers[0].Binding != "" {
		return false
	}
	ba, ok := d.Body[0].Data.(hir.AssignData)
	if !ok || ba.Target.Kind != hir.TargetName {
		return false
	}
	ha, ok := d.Handlers[0].Body[0].Data.(hir.AssignData)
	if !ok || ha.Target.Kind != hir.TargetName || ha.Target.Name != ba.Target.Name {
		return false
	}
	name := ba.Target.Name
	ty := fe.e.ctx.rustType(ba.Value.Type)
	fe.inTry++
	value := fe.coerce(ba.Value, ba.Value.Type)
	fe.inTry--
	fallback := fe.coerce(ha.Value, ba.Value.Type)
	fe.flushLets()
	kw := "let"
	if fe.needsMut(name) {
		kw = "let mut"
	}
	if fe.declared[name] {
		fe.e.line("%s = (|| -> Result<%s, Box<dyn std::error::Error>> { Ok(%s) })().unwrap_or(%s);",
			name, ty, value, fallback)
	} else {
		fe.declared[name] = true
		fe.e.line("%s %s = (|| -> Result<%s, Box<dyn std::error::Error>> { Ok(%s) })().unwrap_or(%s);",
			kw, name, ty, value, fallback)
	}
	return true
}

// hoistTryBindings pre-declares names assigned inside the try body that
// are read after it, so the closure assigns through a capture instead of
// introducing closure-local bindings.
func (fe *funcEmitter) hoistTryBindings(d hir.TryData) {
	seen := make(map[string]bool)
	hir.WalkStmts(d.Body, hir.Visitor{
		PreStmt: func(s *hir.Stmt) bool {
			if a, ok := s.Data.(hir.AssignData); ok && a.Target.Kind == hir.TargetName {
				name := a.Target.Name
				if !fe.declared[name] && !seen[name] {
					seen[name] = true
					fe.e.line("let mut %s: %s = %s;", name, fe.e.ctx.rustType(a.Value.Type), zeroValue(a.Value.Type, fe.e.ctx))
					fe.declared[name] = true
				}
			}
			return s.Kind != hir.StmtFuncDef
		},
	})
}

func hasReturn(body []*hir.Stmt) bool {
	found := false
	hir.WalkStmts(body, hir.Visitor{
		PreStmt: func(s *hir.Stmt) bool {
			if s.Kind == hir.StmtReturn {
				found = true
			}
			return s.Kind != hir.StmtFuncDef && !found
		},
	})
	return found
}

// capturesEnclosing reports whether fn reads names bound in the outer
// function. Such functions would need closure emission.
func capturesEnclosing(fn *hir.Func, outer map[string]bool) bool {
	found := false
	hir.WalkStmts(fn.Body, hir.Visitor{
		PreExpr: func(x *hir.Expr) bool {
			if v, ok := x.Data.(hir.VarData); ok {
				if outer[v.Name] && fn.Locals[v.Name] == nil {
					found = true
				}
			}
			return !found
		},
	})
	return found
}
