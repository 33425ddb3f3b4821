// Package infer solves the unification variables the bridge leaves on HIR.
//
// The pass is bounded: literal types seed variables, operators constrain
// their operands through a small numeric lattice, container shapes
// propagate element types, and method calls look up a fixed return table.
// Whatever is still unsolved after the rounds degrades to the dynamic
// value carrier with a diagnostic instead of failing the build.
package infer

import (
	"fmt"
	"strings"

	"depyler/internal/diag"
	"depyler/internal/hir"
	"depyler/internal/types"
)

// maxRounds bounds the fixpoint iteration. Constraints flow at most one
// call edge per round; deeper chains stay dynamic.
const maxRounds = 8

// Run annotates the module in place and reports what could not be solved.
func Run(m *hir.Module, maxDiag int) *diag.Bag {
	e := &engine{
		m:       m,
		bag:     diag.NewBag(maxDiag),
		subst:   make(map[types.VarID]*types.Type),
		fields:  make(map[string]map[string]*types.Type),
		envs:    make(map[*hir.Func]map[string]*types.Type),
		nextVar: m.NextVar,
	}
	e.seedClasses()

	for round := 0; round < maxRounds; round++ {
		e.changed = false
		e.pass()
		if !e.changed {
			break
		}
	}
	e.finalize()
	return e.bag
}

type engine struct {
	m   *hir.Module
	bag *diag.Bag

	subst  map[types.VarID]*types.Type
	fields map[string]map[string]*types.Type
	envs   map[*hir.Func]map[string]*types.Type

	cur     *hir.Func // function being walked
	yieldT  *types.Type
	nextVar types.VarID
	changed bool
}

func (e *engine) freshVar() *types.Type {
	e.nextVar++
	return types.Var(e.nextVar)
}

// seedClasses records declared field types so self.attr resolves.
func (e *engine) seedClasses() {
	for _, cls := range e.m.Classes {
		fm := make(map[string]*types.Type)
		for _, f := range cls.Fields {
			fm[f.Name] = f.Type
		}
		e.fields[cls.Name] = fm
	}
}

func (e *engine) pass() {
	for i := range e.m.Consts {
		c := &e.m.Consts[i]
		t := e.exprType(c.Value)
		if u := e.unify(c.Type, t); u != nil {
			if !types.Equal(u, c.Type) {
				c.Type = u
				e.changed = true
			}
		}
	}
	for _, fn := range e.m.Funcs {
		e.inferFunc(fn, "")
	}
	for _, cls := range e.m.Classes {
		for _, method := range cls.Methods {
			e.inferFunc(method, cls.Name)
		}
	}
}

func (e *engine) inferFunc(fn *hir.Func, className string) {
	env := e.envs[fn]
	if env == nil {
		env = make(map[string]*types.Type)
		for _, p := range fn.Params {
			env[p.Name] = p.Type
		}
		if className != "" && !fn.Props.IsStaticMethod {
			env["self"] = types.Custom(className)
			env["cls"] = types.Custom(className)
		}
		e.envs[fn] = env
	}
	prev, prevYield := e.cur, e.yieldT
	e.cur = fn
	e.yieldT = nil

	e.inferStmts(fn.Body, env)

	if fn.Props.IsGenerator && e.yieldT != nil {
		e.unify(fn.Ret, types.List(e.yieldT))
	}
	e.cur, e.yieldT = prev, prevYield
}

func (e *engine) inferStmts(body []*hir.Stmt, env map[string]*types.Type) {
	for _, s := range body {
		e.inferStmt(s, env)
	}
}

func (e *engine) inferStmt(s *hir.Stmt, env map[string]*types.Type) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		t := e.exprType(d.Value)
		if d.Ann != nil {
			// The declared type wins; the value must fit it.
			e.unify(d.Ann, t)
			t = d.Ann
		}
		e.bindTarget(d.Target, t, env)
	case hir.AugAssignData:
		vt := e.exprType(d.Value)
		tt := e.targetType(d.Target, env)
		e.unify(tt, vt)
	case hir.ExprStmtData:
		e.exprType(d.Value)
	case hir.ReturnData:
		if e.cur == nil {
			return
		}
		if e.cur.Props.IsGenerator {
			return // bare returns in generators terminate iteration
		}
		if d.Value == nil {
			e.unify(e.cur.Ret, types.None)
			return
		}
		e.unify(e.cur.Ret, e.exprType(d.Value))
	case hir.YieldData:
		vt := e.exprType(d.Value)
		if d.From {
			vt = elemOf(vt)
		}
		if vt == nil {
			vt = types.Unknown
		}
		if e.yieldT == nil {
			e.yieldT = vt
		} else if u := e.unify(e.yieldT, vt); u != nil {
			e.yieldT = u
		}
	case hir.IfStmtData:
		e.exprType(d.Cond)
		e.inferStmts(d.Then, env)
		e.inferStmts(d.Else, env)
	case hir.WhileData:
		e.exprType(d.Cond)
		e.inferStmts(d.Body, env)
		e.inferStmts(d.Orelse, env)
	case hir.ForData:
		it := e.exprType(d.Iter)
		elem := elemOf(e.resolve(it))
		if elem == nil {
			elem = types.Unknown
		}
		e.bindTarget(d.Target, elem, env)
		e.inferStmts(d.Body, env)
		e.inferStmts(d.Orelse, env)
	case hir.WithData:
		for _, item := range d.Items {
			ct := e.exprType(item.Context)
			if item.Binding != nil {
				e.bindTarget(item.Binding, ct, env)
			}
		}
		e.inferStmts(d.Body, env)
	case hir.TryData:
		e.inferStmts(d.Body, env)
		for _, h := range d.Handlers {
			if h.Binding != "" {
				name := h.ExcType
				if name == "" {
					name = "Exception"
				}
				e.bindName(h.Binding, types.Custom(name), env)
			}
			e.inferStmts(h.Body, env)
		}
		e.inferStmts(d.Orelse, env)
		e.inferStmts(d.Finalbody, env)
	case hir.RaiseData:
		e.exprType(d.Exc)
		e.exprType(d.Cause)
	case hir.AssertData:
		e.exprType(d.Cond)
		e.exprType(d.Msg)
	case hir.DelData:
		for _, t := range d.Targets {
			e.targetType(t, env)
		}
	case hir.FuncDefData:
		e.inferFunc(d.Func, "")
	case hir.ClassDefData:
		for _, m := range d.Class.Methods {
			e.inferFunc(m, d.Class.Name)
		}
	}
}

func (e *engine) bindTarget(t *hir.Target, vt *types.Type, env map[string]*types.Type) {
	if t == nil {
		return
	}
	switch t.Kind {
	case hir.TargetName:
		e.bindName(t.Name, vt, env)
	case hir.TargetAttr:
		ot := e.resolve(e.exprType(t.Object))
		if ot != nil && ot.Kind == types.KindCustom {
			fm := e.fields[ot.Name]
			if fm == nil {
				fm = make(map[string]*types.Type)
				e.fields[ot.Name] = fm
			}
			if old, ok := fm[t.Attr]; ok {
				if u := e.unify(old, vt); u != nil {
					fm[t.Attr] = u
				}
			} else {
				fm[t.Attr] = vt
				e.changed = true
			}
		}
	case hir.TargetIndex:
		ot := e.resolve(e.exprType(t.Object))
		e.exprType(t.Index)
		switch {
		case ot == nil:
		case ot.Kind == types.KindList:
			e.unify(ot.Elem(), vt)
		case ot.Kind == types.KindDict:
			e.unify(ot.Value(), vt)
		}
	case hir.TargetTuple:
		rt := e.resolve(vt)
		for i, sub := range t.Elems {
			var st *types.Type
			switch {
			case rt != nil && rt.Kind == types.KindTuple && i < len(rt.Elems):
				st = rt.Elems[i]
			case rt != nil && rt.Kind == types.KindList:
				st = rt.Elem()
			default:
				st = types.Unknown
			}
			e.bindTarget(sub, st, env)
		}
	}
}

func (e *engine) bindName(name string, vt *types.Type, env map[string]*types.Type) {
	if old, ok := env[name]; ok {
		if u := e.unify(old, vt); u != nil && !types.Equal(u, old) {
			env[name] = u
			e.changed = true
		}
		return
	}
	if vt == nil {
		vt = e.freshVar()
	}
	env[name] = vt
	e.changed = true
}

func (e *engine) targetType(t *hir.Target, env map[string]*types.Type) *types.Type {
	if t == nil {
		return types.Unknown
	}
	switch t.Kind {
	case hir.TargetName:
		if tt, ok := env[t.Name]; ok {
			return tt
		}
		return types.Unknown
	case hir.TargetAttr:
		ot := e.resolve(e.exprType(t.Object))
		if ot != nil && ot.Kind == types.KindCustom {
			if ft, ok := e.fields[ot.Name][t.Attr]; ok {
				return ft
			}
		}
		return types.Unknown
	case hir.TargetIndex:
		ot := e.resolve(e.exprType(t.Object))
		e.exprType(t.Index)
		switch {
		case ot == nil:
			return types.Unknown
		case ot.Kind == types.KindList:
			return ot.Elem()
		case ot.Kind == types.KindDict:
			return ot.Value()
		}
		return types.Unknown
	default:
		return types.Unknown
	}
}

// exprType computes the expression's type bottom-up and folds the result
// into the annotation the bridge attached.
func (e *engine) exprType(x *hir.Expr) *types.Type {
	if x == nil {
		return nil
	}
	t := e.computeType(x)
	if t != nil {
		if u := e.unify(x.Type, t); u != nil {
			if !types.Equal(u, x.Type) {
				x.Type = u
				e.changed = true
			}
		}
	}
	return e.resolve(x.Type)
}

func (e *engine) computeType(x *hir.Expr) *types.Type {
	env := e.curEnv()
	switch d := x.Data.(type) {
	case hir.LiteralData:
		return x.Type
	case hir.VarData:
		if t, ok := env[d.Name]; ok {
			return t
		}
		return e.globalType(d.Name)
	case hir.AttributeData:
		return e.attributeType(d)
	case hir.IndexData:
		return e.indexType(d)
	case hir.SliceData:
		// A slice keeps its container shape.
		for _, b := range []*hir.Expr{d.Lower, d.Upper, d.Step} {
			if b != nil {
				e.unify(e.exprType(b), types.Int)
			}
		}
		return e.exprType(d.Object)
	case hir.UnaryData:
		ot := e.exprType(d.Operand)
		switch d.Op {
		case hir.UnaryNot:
			return types.Bool
		case hir.UnaryInvert:
			return types.Int
		default:
			return ot
		}
	case hir.BinaryData:
		return e.binaryType(d)
	case hir.BoolData:
		var joined *types.Type
		for _, v := range d.Values {
			vt := e.resolve(e.exprType(v))
			if joined == nil {
				joined = vt
				continue
			}
			joined = types.Join(joined, vt)
		}
		if joined == nil || joined.Kind == types.KindVar {
			return types.Bool
		}
		return joined
	case hir.CallData:
		return e.callType(d)
	case hir.MethodCallData:
		return e.methodCallType(d)
	case hir.ListData:
		return types.List(e.joinElems(d.Elems))
	case hir.TupleData:
		elems := make([]*types.Type, len(d.Elems))
		for i, el := range d.Elems {
			elems[i] = e.resolve(e.exprType(el))
		}
		return types.Tuple(elems...)
	case hir.SetData:
		return types.Set(e.joinElems(d.Elems))
	case hir.DictData:
		var kt, vt *types.Type
		for _, item := range d.Items {
			if item.Key == nil {
				e.exprType(item.Value) // **spread
				continue
			}
			kt = e.joinInto(kt, e.exprType(item.Key))
			vt = e.joinInto(vt, e.exprType(item.Value))
		}
		if kt == nil {
			kt = e.freshVar()
		}
		if vt == nil {
			vt = e.freshVar()
		}
		return types.Dict(kt, vt)
	case hir.CompData:
		return e.compType(d)
	case hir.FStringData:
		for _, p := range d.Parts {
			e.exprType(p.Expr)
		}
		return types.Str
	case hir.LambdaData:
		params := make([]*types.Type, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Type
		}
		return types.Callable(params, e.exprType(d.Body))
	case hir.IfData:
		e.exprType(d.Cond)
		tt := e.resolve(e.exprType(d.Then))
		et := e.resolve(e.exprType(d.Else))
		if j := types.Join(tt, et); j != nil {
			return j
		}
		return types.Unknown
	case hir.NamedData:
		vt := e.exprType(d.Value)
		e.bindName(d.Name, vt, env)
		return vt
	case hir.StarredData:
		return e.exprType(d.Value)
	default:
		return nil
	}
}

func (e *engine) curEnv() map[string]*types.Type {
	if e.cur == nil {
		return map[string]*types.Type{}
	}
	return e.envs[e.cur]
}

// globalType resolves a name against the module's top-level symbols.
func (e *engine) globalType(name string) *types.Type {
	switch e.m.Symbols[name] {
	case hir.ItemConst:
		for i := range e.m.Consts {
			if e.m.Consts[i].Name == name {
				return e.m.Consts[i].Type
			}
		}
	case hir.ItemClass:
		return types.Custom(name)
	case hir.ItemFunc:
		if fn := e.m.Func(name); fn != nil {
			params := make([]*types.Type, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Type
			}
			return types.Callable(params, fn.Ret)
		}
	}
	return nil
}

func (e *engine) attributeType(d hir.AttributeData) *types.Type {
	if mod := e.moduleOf(d.Object); mod != "" {
		if t, ok := moduleAttr(mod, d.Attr); ok {
			return t
		}
		return nil
	}
	ot := e.resolve(e.exprType(d.Object))
	if ot != nil && ot.Kind == types.KindCustom {
		if ft, ok := e.fields[ot.Name][d.Attr]; ok {
			return ft
		}
		if cls := e.m.Class(ot.Name); cls != nil {
			for i := range cls.Consts {
				if cls.Consts[i].Name == d.Attr {
					return cls.Consts[i].Type
				}
			}
		}
	}
	return nil
}

func (e *engine) indexType(d hir.IndexData) *types.Type {
	ot := e.resolve(e.exprType(d.Object))
	it := e.resolve(e.exprType(d.Index))
	if ot == nil {
		return nil
	}
	switch ot.Kind {
	case types.KindList:
		e.unify(it, types.Int)
		return ot.Elem()
	case types.KindDict:
		e.unify(ot.Key(), it)
		return ot.Value()
	case types.KindStr:
		return types.Str
	case types.KindBytes:
		return types.Int
	case types.KindTuple:
		// Only constant indexes pick a tuple element statically; the
		// bridge keeps the literal on the index expression.
		if d.Index != nil {
			if lit, ok := d.Index.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
				if i := int(lit.Int); i >= 0 && i < len(ot.Elems) {
					return ot.Elems[i]
				}
			}
		}
		return types.Unknown
	default:
		return nil
	}
}

func (e *engine) binaryType(d hir.BinaryData) *types.Type {
	lt := e.resolve(e.exprType(d.Left))
	rt := e.resolve(e.exprType(d.Right))
	if d.Op.IsComparison() {
		if d.Op != hir.OpIn && d.Op != hir.OpNotIn &&
			d.Op != hir.OpIs && d.Op != hir.OpIsNot {
			e.unifyNumericOperands(lt, rt)
		}
		return types.Bool
	}
	switch d.Op {
	case hir.OpDiv:
		return types.Float
	case hir.OpLShift, hir.OpRShift, hir.OpBitXor, hir.OpBitAnd:
		return types.Int
	case hir.OpBitOr:
		if isSet(lt) && isSet(rt) {
			return lt
		}
		return types.Int
	case hir.OpMod:
		if lt != nil && lt.Kind == types.KindStr {
			return types.Str // % formatting
		}
	case hir.OpMul:
		if lt != nil && lt.Kind == types.KindStr || rt != nil && rt.Kind == types.KindStr {
			return types.Str
		}
		if lt != nil && lt.Kind == types.KindList {
			return lt
		}
		if rt != nil && rt.Kind == types.KindList {
			return rt
		}
	case hir.OpAdd:
		if lt != nil && rt != nil && lt.Kind == rt.Kind {
			switch lt.Kind {
			case types.KindStr, types.KindBytes:
				return lt
			case types.KindList, types.KindTuple:
				if j := types.Join(lt, rt); j != nil {
					return j
				}
				return lt
			}
		}
	}
	if j := types.Join(lt, rt); j != nil && j.Kind != types.KindVar {
		return j
	}
	if lt != nil && lt.IsNumeric() {
		e.unify(e.exprType(d.Right), lt)
		return lt
	}
	if rt != nil && rt.IsNumeric() {
		e.unify(e.exprType(d.Left), rt)
		return rt
	}
	return nil
}

func (e *engine) unifyNumericOperands(lt, rt *types.Type) {
	if lt != nil && lt.Kind == types.KindVar && rt != nil && rt.IsNumeric() {
		e.unify(lt, rt)
	}
	if rt != nil && rt.Kind == types.KindVar && lt != nil && lt.IsNumeric() {
		e.unify(rt, lt)
	}
}

func isSet(t *types.Type) bool {
	return t != nil && t.Kind == types.KindSet
}

func (e *engine) callType(d hir.CallData) *types.Type {
	args := make([]*types.Type, len(d.Args))
	for i, a := range d.Args {
		args[i] = e.resolve(e.exprType(a))
	}
	for _, kw := range d.Keywords {
		e.exprType(kw.Value)
	}
	switch {
	case d.Module != "":
		if t, ok := moduleReturn(d.Module, d.Name); ok {
			return t
		}
		return nil
	case d.Func != nil:
		ft := e.resolve(e.exprType(d.Func))
		if ft != nil && ft.Kind == types.KindCallable {
			return ft.Result()
		}
		return nil
	default:
		if cls := e.m.Class(d.Name); cls != nil {
			return types.Custom(d.Name)
		}
		if fn := e.m.Func(d.Name); fn != nil {
			for i, a := range d.Args {
				if i < len(fn.Params) {
					e.unify(fn.Params[i].Type, e.exprType(a))
				}
			}
			return fn.Ret
		}
		if t, ok := builtinReturn(d.Name, args); ok {
			return t
		}
		return nil
	}
}

func (e *engine) methodCallType(d hir.MethodCallData) *types.Type {
	for _, a := range d.Args {
		e.exprType(a)
	}
	for _, kw := range d.Keywords {
		e.exprType(kw.Value)
	}
	if mod := e.moduleOf(d.Receiver); mod != "" {
		if t, ok := moduleReturn(mod, d.Method); ok {
			return t
		}
		return nil
	}
	rt := e.resolve(e.exprType(d.Receiver))
	if rt == nil {
		return nil
	}
	if rt.Kind == types.KindCustom {
		if cls := e.m.Class(rt.Name); cls != nil {
			if m := cls.Method(d.Method); m != nil {
				return m.Ret
			}
		}
		return nil
	}
	// Mutating inserts refine the container's element type.
	if len(d.Args) == 1 {
		at := e.resolve(e.exprType(d.Args[0]))
		switch {
		case rt.Kind == types.KindList && d.Method == "append":
			e.unify(rt.Elem(), at)
		case rt.Kind == types.KindSet && d.Method == "add":
			e.unify(rt.Elem(), at)
		}
	}
	if t, ok := methodReturn(rt, d.Method); ok {
		return t
	}
	return nil
}

// moduleOf recognizes expressions that name an imported module
// (a bare alias or a dotted chain like os.path).
func (e *engine) moduleOf(x *hir.Expr) string {
	switch d := x.Data.(type) {
	case hir.VarData:
		if e.cur != nil {
			if _, shadowed := e.envs[e.cur][d.Name]; shadowed {
				return ""
			}
		}
		if e.m.Symbols[d.Name] == hir.ItemImport {
			return d.Name
		}
	case hir.AttributeData:
		if base := e.moduleOf(d.Object); base != "" {
			return base + "." + d.Attr
		}
	}
	return ""
}

func (e *engine) compType(d hir.CompData) *types.Type {
	env := e.curEnv()
	for _, c := range d.Clauses {
		it := e.resolve(e.exprType(c.Iter))
		elem := elemOf(it)
		if elem == nil {
			elem = types.Unknown
		}
		e.bindTarget(c.Target, elem, env)
		for _, f := range c.Ifs {
			e.exprType(f)
		}
	}
	switch d.Kind {
	case hir.CompDict:
		return types.Dict(e.resolve(e.exprType(d.Elt)), e.resolve(e.exprType(d.Value)))
	case hir.CompSet:
		return types.Set(e.resolve(e.exprType(d.Elt)))
	default:
		// Generators materialize as the list shape; codegen keeps them lazy.
		return types.List(e.resolve(e.exprType(d.Elt)))
	}
}

func (e *engine) joinElems(elems []*hir.Expr) *types.Type {
	var joined *types.Type
	for _, el := range elems {
		joined = e.joinInto(joined, e.exprType(el))
	}
	if joined == nil {
		return e.freshVar()
	}
	return joined
}

func (e *engine) joinInto(acc, t *types.Type) *types.Type {
	t = e.resolve(t)
	if acc == nil {
		return t
	}
	if j := types.Join(acc, t); j != nil {
		return j
	}
	return types.Unknown
}

// unify folds two types into one, binding variables as a side effect.
// A nil result means the types conflict.
func (e *engine) unify(a, b *types.Type) *types.Type {
	a, b = e.resolve(a), e.resolve(b)
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Kind == types.KindVar && b.Kind == types.KindVar:
		if a.Var == b.Var {
			return a
		}
		e.bind(a.Var, b)
		return b
	case a.Kind == types.KindVar:
		e.bind(a.Var, b)
		return b
	case b.Kind == types.KindVar:
		e.bind(b.Var, a)
		return a
	case a.Kind == types.KindUnknown:
		return b
	case b.Kind == types.KindUnknown:
		return a
	case types.Equal(a, b):
		return a
	case a.Kind == b.Kind && len(a.Elems) == len(b.Elems) && len(a.Elems) > 0:
		elems := make([]*types.Type, len(a.Elems))
		for i := range a.Elems {
			u := e.unify(a.Elems[i], b.Elems[i])
			if u == nil {
				return nil
			}
			elems[i] = u
		}
		return &types.Type{Kind: a.Kind, Elems: elems, Name: a.Name}
	default:
		return types.Join(a, b)
	}
}

func (e *engine) bind(v types.VarID, t *types.Type) {
	if t.Kind == types.KindVar && t.Var == v {
		return
	}
	e.subst[v] = t
	e.changed = true
}

// resolve follows variable bindings at the top level.
func (e *engine) resolve(t *types.Type) *types.Type {
	for i := 0; t != nil && t.Kind == types.KindVar && i < 64; i++ {
		next, ok := e.subst[t.Var]
		if !ok {
			return t
		}
		t = next
	}
	return t
}

// deepResolve rebuilds the type with every variable substituted; any
// variable still free becomes Unknown.
func (e *engine) deepResolve(t *types.Type) *types.Type {
	t = e.resolve(t)
	if t == nil || t.Kind == types.KindVar {
		return types.Unknown
	}
	if len(t.Elems) == 0 {
		return t
	}
	elems := make([]*types.Type, len(t.Elems))
	for i, el := range t.Elems {
		elems[i] = e.deepResolve(el)
	}
	return &types.Type{Kind: t.Kind, Elems: elems, Name: t.Name}
}

// finalize replaces what is left unsolved with the dynamic carrier and
// reports the positions that matter for codegen.
func (e *engine) finalize() {
	for i := range e.m.Consts {
		e.m.Consts[i].Type = e.deepResolve(e.m.Consts[i].Type)
	}
	for _, fn := range e.m.Funcs {
		e.finalizeFunc(fn, "")
	}
	for _, cls := range e.m.Classes {
		for i := range cls.Fields {
			cls.Fields[i].Type = e.deepResolve(cls.Fields[i].Type)
		}
		for _, m := range cls.Methods {
			e.finalizeFunc(m, cls.Name+".")
		}
	}
}

func (e *engine) finalizeFunc(fn *hir.Func, prefix string) {
	var unresolved []string
	for i := range fn.Params {
		p := &fn.Params[i]
		rt := e.deepResolve(p.Type)
		if !rt.IsResolved() {
			unresolved = append(unresolved, p.Name)
		}
		p.Type = rt
	}
	fn.Ret = e.deepResolve(fn.Ret)
	if !fn.Ret.IsResolved() {
		unresolved = append(unresolved, "return")
	}
	if len(unresolved) > 0 {
		e.bag.Add(diag.NewWarning(diag.InferUnresolvedType, fn.Span, fmt.Sprintf(
			"%s%s: cannot solve %s; falling back to the dynamic value carrier",
			prefix, fn.Name, strings.Join(unresolved, ", "))))
	}

	hir.WalkFunc(fn, hir.Visitor{
		PostExpr: func(x *hir.Expr) {
			rt := e.deepResolve(x.Type)
			if !rt.IsResolved() {
				e.bag.Add(diag.NewInfo(diag.InferDynamicFallback, x.Span,
					"expression stays dynamic"))
			}
			x.Type = rt
		},
	})
	if env := e.envs[fn]; env != nil {
		for name, t := range env {
			env[name] = e.deepResolve(t)
		}
	}
}
