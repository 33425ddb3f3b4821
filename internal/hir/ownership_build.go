package hir

import (
	"fmt"

	"depyler/internal/diag"
	"depyler/internal/types"
)

// mutatingMethods are the container methods that write through the
// receiver and therefore need &mut.
var mutatingMethods = map[string]bool{
	"append": true, "extend": true, "insert": true, "remove": true,
	"pop": true, "sort": true, "reverse": true, "clear": true,
	"add": true, "discard": true, "update": true, "setdefault": true,
}

// AnalyzeOwnership computes use-site annotations and parameter passing
// modes for every function in the module. Call sites are reconciled
// against the callee's plan in a second pass; a conflict degrades to a
// clone with a diagnostic rather than failing.
func AnalyzeOwnership(m *Module, maxDiag int) (map[*Func]*OwnershipPlan, *diag.Bag) {
	bag := diag.NewBag(maxDiag)
	plans := make(map[*Func]*OwnershipPlan)

	var funcs []*Func
	funcs = append(funcs, m.Funcs...)
	for _, cls := range m.Classes {
		funcs = append(funcs, cls.Methods...)
	}

	for _, fn := range funcs {
		plans[fn] = analyzeFunc(fn, bag)
	}
	for _, fn := range funcs {
		reconcileCalls(fn, m, plans, bag)
	}
	return plans, bag
}

func analyzeFunc(fn *Func, bag *diag.Bag) *OwnershipPlan {
	a := &ownAnalyzer{
		plan: &OwnershipPlan{
			Func:     fn,
			Uses:     make(map[NodeID]UseMode),
			Params:   make(map[string]ParamMode),
			Bindings: make(map[string]*Binding),
		},
		paramType: make(map[string]*types.Type),
		bag:       bag,
	}
	for _, p := range fn.Params {
		a.paramType[p.Name] = p.Type
		a.binding(p.Name)
	}
	a.walkStmts(fn.Body)
	a.assignModes(fn)
	return a.plan
}

type ownAnalyzer struct {
	plan      *OwnershipPlan
	paramType map[string]*types.Type
	bag       *diag.Bag
}

func (a *ownAnalyzer) binding(name string) *Binding {
	b := a.plan.Bindings[name]
	if b == nil {
		b = &Binding{Name: name}
		a.plan.Bindings[name] = b
	}
	return b
}

func (a *ownAnalyzer) walkStmts(body []*Stmt) {
	for _, s := range body {
		a.walkStmt(s)
	}
}

func (a *ownAnalyzer) walkStmt(s *Stmt) {
	switch d := s.Data.(type) {
	case AssignData:
		a.walkValue(d.Value, storeTarget(d.Target))
		a.writeTarget(d.Target, s.ID)
	case AugAssignData:
		a.walkValue(d.Value, false)
		a.writeTarget(d.Target, s.ID)
		if d.Target.Kind == TargetName {
			a.binding(d.Target.Name).Mutations = append(
				a.binding(d.Target.Name).Mutations, s.ID)
		}
	case ExprStmtData:
		a.walkValue(d.Value, false)
	case ReturnData:
		a.walkValue(d.Value, true)
	case YieldData:
		a.walkValue(d.Value, true)
	case IfStmtData:
		a.walkValue(d.Cond, false)
		a.walkStmts(d.Then)
		a.walkStmts(d.Else)
	case WhileData:
		a.walkValue(d.Cond, false)
		a.walkStmts(d.Body)
		a.walkStmts(d.Orelse)
	case ForData:
		a.walkValue(d.Iter, false)
		a.writeTarget(d.Target, s.ID)
		a.walkStmts(d.Body)
		a.walkStmts(d.Orelse)
	case WithData:
		for _, it := range d.Items {
			a.walkValue(it.Context, false)
			if it.Binding != nil {
				a.writeTarget(it.Binding, s.ID)
			}
		}
		a.walkStmts(d.Body)
	case TryData:
		a.walkStmts(d.Body)
		for _, h := range d.Handlers {
			a.walkStmts(h.Body)
		}
		a.walkStmts(d.Orelse)
		a.walkStmts(d.Finalbody)
	case RaiseData:
		a.walkValue(d.Exc, true)
		a.walkValue(d.Cause, true)
	case AssertData:
		a.walkValue(d.Cond, false)
		a.walkValue(d.Msg, false)
	case DelData:
		for _, t := range d.Targets {
			a.writeTarget(t, s.ID)
		}
	case FuncDefData:
		// Nested functions are analyzed on their own; names they capture
		// stay shared-borrowed here.
	case ClassDefData:
	}
}

// storeTarget reports whether assigning into the target places the value
// inside longer-lived storage (an attribute or an element slot).
func storeTarget(t *Target) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TargetAttr, TargetIndex:
		return true
	case TargetTuple:
		for _, sub := range t.Elems {
			if storeTarget(sub) {
				return true
			}
		}
	}
	return false
}

func (a *ownAnalyzer) writeTarget(t *Target, site NodeID) {
	if t == nil {
		return
	}
	switch t.Kind {
	case TargetName:
		b := a.binding(t.Name)
		b.Writes = append(b.Writes, site)
	case TargetAttr:
		// Writing through an attribute mutates the object.
		a.mutateObject(t.Object, site)
	case TargetIndex:
		a.mutateObject(t.Object, site)
		a.walkValue(t.Index, false)
	case TargetTuple:
		for _, sub := range t.Elems {
			a.writeTarget(sub, site)
		}
	}
}

func (a *ownAnalyzer) mutateObject(obj *Expr, site NodeID) {
	if obj == nil {
		return
	}
	if v, ok := obj.Data.(VarData); ok {
		b := a.binding(v.Name)
		b.Mutations = append(b.Mutations, site)
		a.plan.Uses[obj.ID] = UseUniqueBorrow
		return
	}
	a.walkValue(obj, false)
}

// walkValue records reads. escaping is true when the value flows out of
// the function (returned, yielded, raised) or into longer-lived storage;
// it propagates through carrier positions only, never into call
// arguments or operator operands.
func (a *ownAnalyzer) walkValue(x *Expr, escaping bool) {
	if x == nil {
		return
	}
	switch d := x.Data.(type) {
	case LiteralData:
	case VarData:
		b := a.binding(d.Name)
		b.Reads = append(b.Reads, x.ID)
		if escaping {
			b.Escapes = true
		}
	case AttributeData:
		a.walkValue(d.Object, false)
	case IndexData:
		a.walkValue(d.Object, false)
		a.walkValue(d.Index, false)
	case SliceData:
		a.walkValue(d.Object, false)
		a.walkValue(d.Lower, false)
		a.walkValue(d.Upper, false)
		a.walkValue(d.Step, false)
	case UnaryData:
		a.walkValue(d.Operand, false)
	case BinaryData:
		a.walkValue(d.Left, false)
		a.walkValue(d.Right, false)
	case BoolData:
		for _, v := range d.Values {
			a.walkValue(v, false)
		}
	case CallData:
		a.walkValue(d.Func, false)
		for _, arg := range d.Args {
			a.walkValue(arg, false)
		}
		for _, kw := range d.Keywords {
			a.walkValue(kw.Value, false)
		}
	case MethodCallData:
		a.walkReceiver(d.Receiver, d.Method)
		for _, arg := range d.Args {
			a.walkValue(arg, false)
		}
		for _, kw := range d.Keywords {
			a.walkValue(kw.Value, false)
		}
		// A read of the receiver inside the arguments overlaps the
		// mutation window (xs.append(xs[0])); it must clone.
		if v, ok := d.Receiver.Data.(VarData); ok && mutatingMethods[d.Method] {
			for _, arg := range d.Args {
				a.cloneOverlapping(arg, v.Name)
			}
		}
	case ListData:
		a.walkElems(d.Elems, escaping)
	case SetData:
		a.walkElems(d.Elems, escaping)
	case TupleData:
		a.walkTupleLiteral(d.Elems, escaping)
	case DictData:
		for _, item := range d.Items {
			a.walkValue(item.Key, false)
			a.walkValue(item.Value, escaping)
		}
	case CompData:
		for _, c := range d.Clauses {
			a.walkValue(c.Iter, false)
			for _, f := range c.Ifs {
				a.walkValue(f, false)
			}
		}
		a.walkValue(d.Elt, escaping)
		a.walkValue(d.Value, escaping)
	case FStringData:
		for _, p := range d.Parts {
			a.walkValue(p.Expr, false)
		}
	case LambdaData:
		a.walkValue(d.Body, false)
	case IfData:
		a.walkValue(d.Cond, false)
		a.walkValue(d.Then, escaping)
		a.walkValue(d.Else, escaping)
	case NamedData:
		b := a.binding(d.Name)
		b.Writes = append(b.Writes, x.ID)
		a.walkValue(d.Value, false)
	case StarredData:
		a.walkValue(d.Value, escaping)
	}
}

func (a *ownAnalyzer) walkElems(elems []*Expr, escaping bool) {
	for _, el := range elems {
		a.walkValue(el, escaping)
	}
}

// walkTupleLiteral applies the duplicate-element rule: when the same
// binding appears more than once in one tuple literal, every occurrence
// after the first is clone-on-use.
func (a *ownAnalyzer) walkTupleLiteral(elems []*Expr, escaping bool) {
	seen := make(map[string]bool)
	for _, el := range elems {
		if v, ok := el.Data.(VarData); ok && seen[v.Name] {
			b := a.binding(v.Name)
			b.Reads = append(b.Reads, el.ID)
			a.plan.Uses[el.ID] = UseCloneOnUse
			continue
		}
		if v, ok := el.Data.(VarData); ok {
			seen[v.Name] = true
		}
		a.walkValue(el, escaping)
	}
}

// cloneOverlapping pins clone-on-use on reads of name inside an
// expression that runs while name is uniquely borrowed.
func (a *ownAnalyzer) cloneOverlapping(x *Expr, name string) {
	WalkExpr(x, Visitor{
		PostExpr: func(e *Expr) {
			v, ok := e.Data.(VarData)
			if !ok || v.Name != name {
				return
			}
			if e.Type != nil && e.Type.IsCopy() {
				return
			}
			a.plan.Uses[e.ID] = UseCloneOnUse
			a.bag.Add(diag.NewWarning(diag.OwnCloneFallback, e.Span, fmt.Sprintf(
				"%s is read while mutably borrowed; cloning at the use site", name)))
		},
	})
}

func (a *ownAnalyzer) walkReceiver(recv *Expr, method string) {
	if recv == nil {
		return
	}
	if v, ok := recv.Data.(VarData); ok {
		b := a.binding(v.Name)
		b.Reads = append(b.Reads, recv.ID)
		if mutatingMethods[method] {
			b.Mutations = append(b.Mutations, recv.ID)
			a.plan.Uses[recv.ID] = UseUniqueBorrow
		}
		return
	}
	a.walkValue(recv, false)
}

// assignModes turns the collected use sites into annotations.
func (a *ownAnalyzer) assignModes(fn *Func) {
	for name, b := range a.plan.Bindings {
		t := a.paramType[name]
		if t == nil {
			t = a.bindingType(fn, name)
		}
		if t != nil && t.IsCopy() {
			for _, id := range b.Reads {
				if _, pinned := a.plan.Uses[id]; !pinned {
					a.plan.Uses[id] = UseCopy
				}
			}
			if _, isParam := a.paramType[name]; isParam {
				a.plan.Params[name] = ParamOwned
			}
			continue
		}

		lastRead := b.LastRead()
		for _, id := range b.Reads {
			if _, pinned := a.plan.Uses[id]; pinned {
				continue
			}
			if b.Escapes && id == lastRead {
				a.plan.Uses[id] = UseMove
				continue
			}
			a.plan.Uses[id] = UseSharedBorrow
		}

		if _, isParam := a.paramType[name]; isParam {
			switch {
			case b.Escapes:
				a.plan.Params[name] = ParamOwned
			case len(b.Mutations) > 0:
				a.plan.Params[name] = ParamBorrowedMut
			default:
				a.plan.Params[name] = ParamBorrowed
			}
		}
	}
}

// bindingType recovers a local's type from any read site.
func (a *ownAnalyzer) bindingType(fn *Func, name string) *types.Type {
	var found *types.Type
	WalkFunc(fn, Visitor{
		PreExpr: func(x *Expr) bool {
			if found != nil {
				return false
			}
			if v, ok := x.Data.(VarData); ok && v.Name == name {
				found = x.Type
				return false
			}
			return true
		},
	})
	return found
}

// reconcileCalls intersects each call argument's mode with the callee's
// declared parameter mode. When the callee consumes the value but the
// caller still needs it, the argument degrades to a clone.
func reconcileCalls(fn *Func, m *Module, plans map[*Func]*OwnershipPlan, bag *diag.Bag) {
	plan := plans[fn]
	WalkFunc(fn, Visitor{
		PostExpr: func(x *Expr) {
			call, ok := x.Data.(CallData)
			if !ok || call.Module != "" || call.Func != nil {
				return
			}
			callee := m.Func(call.Name)
			if callee == nil {
				return
			}
			calleePlan := plans[callee]
			for i, arg := range call.Args {
				if i >= len(callee.Params) {
					break
				}
				v, ok := arg.Data.(VarData)
				if !ok {
					continue
				}
				b := plan.Bindings[v.Name]
				if b == nil || (arg.Type != nil && arg.Type.IsCopy()) {
					continue
				}
				mode := calleePlan.ParamModeOf(callee.Params[i].Name)
				if mode != ParamOwned {
					continue
				}
				if b.LastRead() > arg.ID {
					// Callee consumes, caller reads again afterwards.
					plan.Uses[arg.ID] = UseCloneOnUse
					bag.Add(diag.NewWarning(diag.OwnParamConflict, arg.Span, fmt.Sprintf(
						"%s is consumed by %s but used again; cloning at the call site",
						v.Name, call.Name)))
				} else {
					plan.Uses[arg.ID] = UseMove
				}
			}
		},
	})
}
