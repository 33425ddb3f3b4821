package codegen

import (
	"fmt"
	"strings"

	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/hir"
	"depyler/internal/source"
	"depyler/internal/types"
)

// funcEmitter renders one function body. It tracks per-function state:
// declared locals, option bindings proven Some by an enclosing guard,
// and let-bindings hoisted out of walrus expressions.
type funcEmitter struct {
	e     *Emitter
	fn    *hir.Func // nil when rendering a detached expression
	class *hir.Class
	plan  *hir.OwnershipPlan

	declared    map[string]bool
	guarded     map[string]*types.Type // option inner type per guarded name
	pendingLets []string
	loopFlag    int
	inTry       int
	nested      bool
}

func newFuncEmitter(e *Emitter, fn *hir.Func, class *hir.Class) *funcEmitter {
	fe := &funcEmitter{
		e:        e,
		fn:       fn,
		class:    class,
		declared: make(map[string]bool),
		guarded:  make(map[string]*types.Type),
	}
	if fn != nil {
		fe.plan = e.plans[fn]
		for _, p := range fn.Params {
			fe.declared[p.Name] = true
		}
	}
	return fe
}

func (e *Emitter) emitFunc(fn *hir.Func, class *hir.Class) Item {
	e.buf.Reset()
	fe := newFuncEmitter(e, fn, class)
	fe.emitSignature()
	fe.emitBody()
	return Item{Kind: ItemFunc, Name: fn.Name, Src: e.take()}
}

func (fe *funcEmitter) emitSignature() {
	fn := fe.fn
	if fn.Docstring != "" {
		for _, l := range strings.Split(strings.TrimRight(fn.Docstring, "\n"), "\n") {
			fe.e.line("/// %s", strings.TrimRight(l, " "))
		}
	}
	var params []string
	for i, p := range fn.Params {
		if i == 0 && fe.class != nil && !fn.Props.IsStaticMethod && !fn.Props.IsClassMethod {
			if fe.plan.ParamModeOf(p.Name) == hir.ParamBorrowedMut {
				params = append(params, "&mut self")
			} else {
				params = append(params, "&self")
			}
			continue
		}
		if i == 0 && fn.Props.IsClassMethod {
			continue
		}
		params = append(params, p.Name+": "+fe.paramType(p))
	}
	vis := "pub "
	if fe.nested {
		vis = ""
	}
	sig := fmt.Sprintf("%sfn %s(%s)", vis, fe.rustName(), strings.Join(params, ", "))
	if ret := fe.returnType(); ret != "" {
		sig += " -> " + ret
	}
	fe.e.open("%s {", sig)
	if fn.Props.IsGenerator {
		elem := fn.Ret.Elem()
		fe.e.line("let mut __yields: Vec<%s> = Vec::new();", fe.e.ctx.rustType(elem))
	}
}

// rustName maps dunder and property names onto plain method names.
func (fe *funcEmitter) rustName() string {
	switch fe.fn.Name {
	case "__init__":
		return "new"
	case "__len__":
		return "len"
	default:
		return fe.fn.Name
	}
}

// paramType honors directive overrides first, then the ownership plan.
func (fe *funcEmitter) paramType(p hir.Param) string {
	if fe.fn.Directives != nil {
		if forced, ok := fe.fn.Directives.TypeOverrides[p.Name]; ok {
			return forced
		}
	}
	switch fe.plan.ParamModeOf(p.Name) {
	case hir.ParamBorrowed:
		return fe.e.ctx.borrowedType(p.Type)
	case hir.ParamBorrowedMut:
		return "&mut " + fe.e.ctx.rustType(p.Type)
	default:
		return fe.e.ctx.rustType(p.Type)
	}
}

func (fe *funcEmitter) returnType() string {
	fn := fe.fn
	if fn.Name == "__init__" {
		if fn.Props.Fallible {
			fe.e.ctx.Needs.ErrorBox = true
			return "Result<Self, Box<dyn std::error::Error>>"
		}
		return "Self"
	}
	var ret string
	switch {
	case fn.Props.IsGenerator && !fn.Props.Fallible:
		ret = "impl Iterator<Item = " + fe.e.ctx.rustType(fn.Ret.Elem()) + ">"
	case fn.Props.IsGenerator:
		ret = fe.e.ctx.rustType(fn.Ret)
	case fn.Ret == nil || fn.Ret.Kind == types.KindNone:
		ret = ""
	default:
		ret = fe.e.ctx.rustType(fn.Ret)
	}
	if fn.Props.Fallible {
		fe.e.ctx.Needs.ErrorBox = true
		inner := ret
		if inner == "" {
			inner = "()"
		}
		return "Result<" + inner + ", Box<dyn std::error::Error>>"
	}
	return ret
}

func (fe *funcEmitter) emitBody() {
	fn := fe.fn
	if fn.Name == "__init__" {
		fe.emitConstructorBody()
		fe.e.close("")
		return
	}
	for _, s := range fn.Body {
		fe.emitStmt(s)
	}
	switch {
	case fn.Props.IsGenerator && fn.Props.Fallible:
		fe.e.line("Ok(__yields)")
	case fn.Props.IsGenerator:
		fe.e.line("__yields.into_iter()")
	case fn.Props.Fallible && unitReturn(fn.Ret) && !endsWithReturn(fn.Body):
		fe.e.line("Ok(())")
	}
	fe.e.close("")
}

// emitConstructorBody turns an __init__ body into a Self literal. Self
// field assignments become literal fields; everything else runs first.
func (fe *funcEmitter) emitConstructorBody() {
	type fieldInit struct{ name, value string }
	var inits []fieldInit
	seen := make(map[string]bool)
	for _, s := range fe.fn.Body {
		if a, ok := s.Data.(hir.AssignData); ok && a.Target.Kind == hir.TargetAttr {
			if v, ok := a.Target.Object.Data.(hir.VarData); ok && v.Name == "self" {
				inits = append(inits, fieldInit{a.Target.Attr, fe.renderOwned(a.Value)})
				seen[a.Target.Attr] = true
				fe.flushLets()
				continue
			}
		}
		fe.emitStmt(s)
	}
	if fe.class != nil {
		for _, f := range fe.class.Fields {
			if !seen[f.Name] {
				inits = append(inits, fieldInit{f.Name, fe.fieldDefault(f)})
			}
		}
	}
	fe.e.open("%s {", constructorOpen(fe.fn.Props.Fallible))
	for _, fi := range inits {
		fe.e.line("%s: %s,", fi.name, fi.value)
	}
	if fe.fn.Props.Fallible {
		fe.e.close(")")
	} else {
		fe.e.close("")
	}
}

func constructorOpen(fallible bool) string {
	if fallible {
		return "Ok(Self"
	}
	return "Self"
}

func (fe *funcEmitter) fieldDefault(f hir.Field) string {
	if f.Default != nil {
		return fe.renderOwned(f.Default)
	}
	return zeroValue(f.Type, fe.e.ctx)
}

func zeroValue(t *types.Type, ctx *Context) string {
	if t == nil {
		ctx.Needs.DepylerValue = true
		return dynamicCarrier + "::None"
	}
	switch t.Kind {
	case types.KindInt:
		return "0"
	case types.KindFloat:
		return "0.0"
	case types.KindBool:
		return "false"
	case types.KindStr:
		return "String::new()"
	case types.KindList:
		return "Vec::new()"
	case types.KindSet:
		ctx.Needs.HashSet = true
		return "HashSet::new()"
	case types.KindDict:
		ctx.Needs.HashMap = true
		return "HashMap::new()"
	case types.KindOptional:
		return "None"
	default:
		return "Default::default()"
	}
}

// needsMut reports whether a binding must be declared let mut: either
// it is reassigned, or the ownership plan saw in-place mutations.
func (fe *funcEmitter) needsMut(name string) bool {
	if fe.fn == nil {
		return false
	}
	if li := fe.fn.Locals[name]; li != nil && li.Mutated {
		return true
	}
	if fe.plan != nil && fe.plan.Bindings != nil {
		if b := fe.plan.Bindings[name]; b != nil && (len(b.Mutations) > 0 || len(b.Writes) > 1) {
			return true
		}
	}
	return false
}

func unitReturn(t *types.Type) bool {
	return t == nil || t.Kind == types.KindNone
}

func endsWithReturn(body []*hir.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	last := body[len(body)-1]
	switch last.Kind {
	case hir.StmtReturn, hir.StmtRaise:
		return true
	case hir.StmtIf:
		d := last.Data.(hir.IfStmtData)
		return len(d.Else) > 0 && endsWithReturn(d.Then) && endsWithReturn(d.Else)
	}
	return false
}

// flushLets writes any let-bindings hoisted from walrus expressions
// before the statement that produced them.
func (fe *funcEmitter) flushLets() {
	for _, l := range fe.pendingLets {
		fe.e.line("%s", l)
	}
	fe.pendingLets = nil
}

// renderCond renders a condition expression, folding hoisted walrus
// bindings into a parenthesized block so they stay in scope for every
// evaluation of the condition.
func (fe *funcEmitter) renderCond(x *hir.Expr) string {
	s := fe.render(x)
	if len(fe.pendingLets) == 0 {
		return s
	}
	lets := strings.Join(fe.pendingLets, " ")
	fe.pendingLets = nil
	return "({ " + lets + " " + s + " })"
}

func (fe *funcEmitter) warn(code diag.Code, sp source.Span, format string, args ...any) {
	fe.e.bag.Add(diag.NewWarning(code, sp, fmt.Sprintf(format, args...)))
}

func (fe *funcEmitter) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	fe.e.bag.Add(diag.NewError(code, sp, fmt.Sprintf(format, args...)))
}

func (fe *funcEmitter) info(code diag.Code, sp source.Span, format string, args ...any) {
	fe.e.bag.Add(diag.NewInfo(code, sp, fmt.Sprintf(format, args...)))
}

func policyFor(fn *hir.Func) directive.ErrorPolicy {
	if fn == nil {
		return directive.PolicyDefault
	}
	return policyOf(fn)
}
