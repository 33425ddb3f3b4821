package hir

import (
	"depyler/internal/diag"
	"depyler/internal/pyast"
	"depyler/internal/typemap"
	"depyler/internal/types"
)

func (l *lowerer) lowerBody(body []*pyast.Node) []*Stmt {
	var out []*Stmt
	for _, n := range body {
		out = append(out, l.lowerStmt(n)...)
	}
	return out
}

// lowerStmt lowers one surface statement; desugarings may yield several
// HIR statements.
func (l *lowerer) lowerStmt(n *pyast.Node) []*Stmt {
	switch n.Type {
	case "Assign":
		return l.lowerAssign(n)
	case "AnnAssign":
		return l.lowerAnnAssign(n)
	case "AugAssign":
		return l.lowerAugAssign(n)
	case "Expr":
		return l.lowerExprStmt(n)
	case "Return":
		return l.one(n, StmtReturn, ReturnData{Value: l.lowerExpr(n.ValueNode())})
	case "If":
		return l.one(n, StmtIf, IfStmtData{
			Cond: l.lowerExpr(n.Test),
			Then: l.lowerBody(n.Body),
			Else: l.lowerBody(n.Orelse),
		})
	case "While":
		return l.one(n, StmtWhile, WhileData{
			Cond:   l.lowerExpr(n.Test),
			Body:   l.lowerBody(n.Body),
			Orelse: l.lowerBody(n.Orelse),
		})
	case "For":
		return l.lowerFor(n)
	case "AsyncFor", "AsyncWith", "Await":
		l.unsupported(n, "async construct")
		return nil
	case "With":
		return l.lowerWith(n)
	case "Try", "TryStar":
		return l.lowerTry(n)
	case "Raise":
		if l.cur != nil {
			l.cur.Props.MayRaise = true
		}
		return l.one(n, StmtRaise, RaiseData{
			Exc:   l.lowerExpr(n.Exc),
			Cause: l.lowerExpr(n.Cause),
		})
	case "Assert":
		return l.one(n, StmtAssert, AssertData{
			Cond: l.lowerExpr(n.Test),
			Msg:  l.lowerExpr(n.Msg),
		})
	case "Pass":
		return l.one(n, StmtPass, nil)
	case "Break":
		return l.one(n, StmtBreak, nil)
	case "Continue":
		return l.one(n, StmtContinue, nil)
	case "Global":
		return l.one(n, StmtGlobal, ScopeNamesData{Names: n.NameStrings()})
	case "Nonlocal":
		return l.one(n, StmtNonlocal, ScopeNamesData{Names: n.NameStrings()})
	case "Delete":
		var targets []*Target
		for _, t := range n.Targets {
			targets = append(targets, l.lowerTarget(t))
		}
		return l.one(n, StmtDel, DelData{Targets: targets})
	case "FunctionDef":
		fn := l.lowerFuncDef(n, false)
		if fn == nil {
			return nil
		}
		return l.one(n, StmtFuncDef, FuncDefData{Func: fn})
	case "ClassDef":
		cls := l.lowerClassDef(n)
		if cls == nil {
			return nil
		}
		return l.one(n, StmtClassDef, ClassDefData{Class: cls})
	case "Import", "ImportFrom":
		l.warnf(n, diag.BridgeUnsupportedConstruct,
			"function-level import is hoisted to module scope")
		l.lowerImport(n)
		return nil
	default:
		l.unsupported(n, "statement "+n.Type)
		return nil
	}
}

func (l *lowerer) one(n *pyast.Node, kind StmtKind, data StmtData) []*Stmt {
	return []*Stmt{{
		ID:   l.id(),
		Kind: kind,
		Span: l.span(n),
		Data: data,
	}}
}

func (l *lowerer) lowerAssign(n *pyast.Node) []*Stmt {
	value := l.lowerExpr(n.ValueNode())
	var out []*Stmt
	// a = b = expr expands to one assignment per target; evaluation order
	// is preserved because only the first assignment evaluates the value.
	for i, tnode := range n.Targets {
		target := l.lowerTarget(tnode)
		if target == nil {
			continue
		}
		if target.HasAttrElem() {
			// Known limitation: attribute-target tuple unpacking would
			// need a hidden temporary to be ownership-correct.
			l.errorf(n, diag.BridgeAttributeTupleUnpack,
				"tuple unpacking into attributes is not supported")
			return nil
		}
		v := value
		if i > 0 {
			v = l.varRef(n, n.Targets[0])
		}
		stmt := &Stmt{
			ID:   l.id(),
			Kind: StmtAssign,
			Span: l.span(n),
			Data: AssignData{Target: target, Value: v},
		}
		for _, name := range target.Names() {
			l.recordDef(name, stmt.ID)
		}
		out = append(out, stmt)
	}
	return out
}

// varRef re-reads the first assignment target for chained assigns.
func (l *lowerer) varRef(n, target *pyast.Node) *Expr {
	if target.Type == "Name" {
		return &Expr{
			ID:   l.id(),
			Kind: ExprVar,
			Span: l.span(n),
			Type: types.Unknown,
			Data: VarData{Name: ident(target.ID)},
		}
	}
	return l.lowerExpr(target)
}

func (l *lowerer) lowerAnnAssign(n *pyast.Node) []*Stmt {
	target := l.lowerTarget(n.Target)
	if target == nil {
		return nil
	}
	stmt := &Stmt{
		ID:   l.id(),
		Kind: StmtAssign,
		Span: l.span(n),
		Data: AssignData{
			Target: target,
			Value:  l.lowerExpr(n.ValueNode()),
			Ann:    typemap.Map(n.Annotation),
		},
	}
	for _, name := range target.Names() {
		l.recordDef(name, stmt.ID)
	}
	return []*Stmt{stmt}
}

func (l *lowerer) lowerAugAssign(n *pyast.Node) []*Stmt {
	target := l.lowerTarget(n.Target)
	if target == nil {
		return nil
	}
	op, ok := binOp(n.Op)
	if !ok {
		l.unsupported(n, "augmented operator")
		return nil
	}
	stmt := &Stmt{
		ID:   l.id(),
		Kind: StmtAugAssign,
		Span: l.span(n),
		Data: AugAssignData{Target: target, Op: op, Value: l.lowerExpr(n.ValueNode())},
	}
	if target.Kind == TargetName {
		li := l.localOf(target.Name)
		if li != nil {
			li.Mutated = true
		}
	}
	return []*Stmt{stmt}
}

func (l *lowerer) localOf(name string) *LocalInfo {
	if l.cur == nil {
		return nil
	}
	return l.cur.Local(name)
}

func (l *lowerer) lowerExprStmt(n *pyast.Node) []*Stmt {
	v := n.ValueNode()
	if v == nil {
		return nil
	}
	// yield in statement position keeps generator functions translatable:
	// the body is later rebuilt around an accumulator.
	if v.Type == "Yield" || v.Type == "YieldFrom" {
		if l.cur != nil {
			l.cur.Props.IsGenerator = true
		}
		return l.one(n, StmtYield, YieldData{
			Value: l.lowerExpr(v.ValueNode()),
			From:  v.Type == "YieldFrom",
		})
	}
	return l.one(n, StmtExpr, ExprStmtData{Value: l.lowerExpr(v)})
}

func (l *lowerer) lowerFor(n *pyast.Node) []*Stmt {
	target := l.lowerTarget(n.Target)
	if target == nil {
		return nil
	}
	stmt := &Stmt{
		ID:   l.id(),
		Kind: StmtFor,
		Span: l.span(n),
	}
	for _, name := range target.Names() {
		l.recordDef(name, stmt.ID)
	}
	stmt.Data = ForData{
		Target: target,
		Iter:   l.lowerExpr(n.Iter),
		Body:   l.lowerBody(n.Body),
		Orelse: l.lowerBody(n.Orelse),
	}
	return []*Stmt{stmt}
}

// lowerWith lowers scoped acquisition with guaranteed release: every item
// becomes a WithItem; codegen emits the block so drops run at scope exit.
func (l *lowerer) lowerWith(n *pyast.Node) []*Stmt {
	stmt := &Stmt{
		ID:   l.id(),
		Kind: StmtWith,
		Span: l.span(n),
	}
	var items []WithItem
	for _, item := range n.Items {
		wi := WithItem{Context: l.lowerExpr(item.ContextExpr)}
		if item.OptionalVars != nil {
			wi.Binding = l.lowerTarget(item.OptionalVars)
			for _, name := range wi.Binding.Names() {
				l.recordDef(name, stmt.ID)
			}
		}
		items = append(items, wi)
	}
	stmt.Data = WithData{Items: items, Body: l.lowerBody(n.Body)}
	return []*Stmt{stmt}
}

func (l *lowerer) lowerTry(n *pyast.Node) []*Stmt {
	if l.cur != nil {
		l.cur.Props.MayRaise = true
	}
	var handlers []ExceptHandler
	for _, h := range n.Handlers {
		eh := ExceptHandler{
			ExcType: dottedName(h.ExcType),
			Binding: h.Name,
			Body:    l.lowerBody(h.Body),
		}
		handlers = append(handlers, eh)
	}
	return l.one(n, StmtTry, TryData{
		Body:      l.lowerBody(n.Body),
		Handlers:  handlers,
		Orelse:    l.lowerBody(n.Orelse),
		Finalbody: l.lowerBody(n.Finalbody),
	})
}

// dottedName flattens a Name/Attribute chain ("os.PathLike") or returns ""
// when the expression is not a plain reference.
func dottedName(n *pyast.Node) string {
	switch {
	case n == nil:
		return ""
	case n.Type == "Name":
		return ident(n.ID)
	case n.Type == "Attribute":
		base := dottedName(n.ValueNode())
		if base == "" {
			return ""
		}
		return base + "." + ident(n.Attr)
	default:
		return ""
	}
}

// lowerTarget converts an assignment-target expression into a pattern.
func (l *lowerer) lowerTarget(n *pyast.Node) *Target {
	if n == nil {
		return nil
	}
	switch n.Type {
	case "Name":
		return &Target{Kind: TargetName, Name: ident(n.ID), Span: l.span(n)}
	case "Attribute":
		return &Target{
			Kind:   TargetAttr,
			Object: l.lowerExpr(n.ValueNode()),
			Attr:   ident(n.Attr),
			Span:   l.span(n),
		}
	case "Subscript":
		return &Target{
			Kind:   TargetIndex,
			Object: l.lowerExpr(n.ValueNode()),
			Index:  l.lowerExpr(n.Slice),
			Span:   l.span(n),
		}
	case "Tuple", "List":
		t := &Target{Kind: TargetTuple, Span: l.span(n)}
		for _, e := range n.Elts {
			if sub := l.lowerTarget(e); sub != nil {
				t.Elems = append(t.Elems, sub)
			}
		}
		return t
	case "Starred":
		l.unsupported(n, "starred assignment target")
		return nil
	default:
		l.unsupported(n, "assignment target "+n.Type)
		return nil
	}
}
