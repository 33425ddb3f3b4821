package hir

// Visitor carries pre/post-order callbacks for structural traversal.
// A pre callback returning false prunes the subtree. Nil callbacks are
// skipped.
type Visitor struct {
	PreExpr  func(*Expr) bool
	PostExpr func(*Expr)
	PreStmt  func(*Stmt) bool
	PostStmt func(*Stmt)
}

// WalkFunc traverses a function body, visiting every node exactly once.
func WalkFunc(f *Func, v Visitor) {
	for _, p := range f.Params {
		WalkExpr(p.Default, v)
	}
	WalkStmts(f.Body, v)
}

// WalkStmts traverses a statement list.
func WalkStmts(stmts []*Stmt, v Visitor) {
	for _, s := range stmts {
		WalkStmt(s, v)
	}
}

// WalkStmt traverses one statement.
func WalkStmt(s *Stmt, v Visitor) {
	if s == nil {
		return
	}
	if v.PreStmt != nil && !v.PreStmt(s) {
		return
	}
	switch d := s.Data.(type) {
	case AssignData:
		walkTarget(d.Target, v)
		WalkExpr(d.Value, v)
	case AugAssignData:
		walkTarget(d.Target, v)
		WalkExpr(d.Value, v)
	case ExprStmtData:
		WalkExpr(d.Value, v)
	case ReturnData:
		WalkExpr(d.Value, v)
	case IfStmtData:
		WalkExpr(d.Cond, v)
		WalkStmts(d.Then, v)
		WalkStmts(d.Else, v)
	case WhileData:
		WalkExpr(d.Cond, v)
		WalkStmts(d.Body, v)
		WalkStmts(d.Orelse, v)
	case ForData:
		walkTarget(d.Target, v)
		WalkExpr(d.Iter, v)
		WalkStmts(d.Body, v)
		WalkStmts(d.Orelse, v)
	case WithData:
		for _, it := range d.Items {
			WalkExpr(it.Context, v)
			walkTarget(it.Binding, v)
		}
		WalkStmts(d.Body, v)
	case TryData:
		WalkStmts(d.Body, v)
		for _, h := range d.Handlers {
			WalkStmts(h.Body, v)
		}
		WalkStmts(d.Orelse, v)
		WalkStmts(d.Finalbody, v)
	case RaiseData:
		WalkExpr(d.Exc, v)
		WalkExpr(d.Cause, v)
	case AssertData:
		WalkExpr(d.Cond, v)
		WalkExpr(d.Msg, v)
	case DelData:
		for _, t := range d.Targets {
			walkTarget(t, v)
		}
	case FuncDefData:
		WalkFunc(d.Func, v)
	case ClassDefData:
		for _, m := range d.Class.Methods {
			WalkFunc(m, v)
		}
	case YieldData:
		WalkExpr(d.Value, v)
	}
	if v.PostStmt != nil {
		v.PostStmt(s)
	}
}

// WalkExpr traverses one expression.
func WalkExpr(e *Expr, v Visitor) {
	if e == nil {
		return
	}
	if v.PreExpr != nil && !v.PreExpr(e) {
		return
	}
	switch d := e.Data.(type) {
	case AttributeData:
		WalkExpr(d.Object, v)
	case IndexData:
		WalkExpr(d.Object, v)
		WalkExpr(d.Index, v)
	case SliceData:
		WalkExpr(d.Object, v)
		WalkExpr(d.Lower, v)
		WalkExpr(d.Upper, v)
		WalkExpr(d.Step, v)
	case UnaryData:
		WalkExpr(d.Operand, v)
	case BinaryData:
		WalkExpr(d.Left, v)
		WalkExpr(d.Right, v)
	case BoolData:
		for _, x := range d.Values {
			WalkExpr(x, v)
		}
	case CallData:
		WalkExpr(d.Func, v)
		for _, a := range d.Args {
			WalkExpr(a, v)
		}
		for _, k := range d.Keywords {
			WalkExpr(k.Value, v)
		}
	case MethodCallData:
		WalkExpr(d.Receiver, v)
		for _, a := range d.Args {
			WalkExpr(a, v)
		}
		for _, k := range d.Keywords {
			WalkExpr(k.Value, v)
		}
	case ListData:
		for _, x := range d.Elems {
			WalkExpr(x, v)
		}
	case TupleData:
		for _, x := range d.Elems {
			WalkExpr(x, v)
		}
	case SetData:
		for _, x := range d.Elems {
			WalkExpr(x, v)
		}
	case DictData:
		for _, it := range d.Items {
			WalkExpr(it.Key, v)
			WalkExpr(it.Value, v)
		}
	case CompData:
		for _, c := range d.Clauses {
			walkTarget(c.Target, v)
			WalkExpr(c.Iter, v)
			for _, cond := range c.Ifs {
				WalkExpr(cond, v)
			}
		}
		WalkExpr(d.Elt, v)
		WalkExpr(d.Value, v)
	case FStringData:
		for _, p := range d.Parts {
			WalkExpr(p.Expr, v)
		}
	case LambdaData:
		for _, p := range d.Params {
			WalkExpr(p.Default, v)
		}
		WalkExpr(d.Body, v)
	case IfData:
		WalkExpr(d.Cond, v)
		WalkExpr(d.Then, v)
		WalkExpr(d.Else, v)
	case NamedData:
		WalkExpr(d.Value, v)
	case StarredData:
		WalkExpr(d.Value, v)
	}
	if v.PostExpr != nil {
		v.PostExpr(e)
	}
}

func walkTarget(t *Target, v Visitor) {
	if t == nil {
		return
	}
	WalkExpr(t.Object, v)
	WalkExpr(t.Index, v)
	for _, e := range t.Elems {
		walkTarget(e, v)
	}
}
