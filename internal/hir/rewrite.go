package hir

// RewriteExpr returns a new tree in which every node for which sub returns
// a replacement is substituted wholesale; other nodes are shallow-copied
// with rewritten children. The input tree is never mutated.
func RewriteExpr(e *Expr, sub func(*Expr) *Expr) *Expr {
	if e == nil {
		return nil
	}
	if r := sub(e); r != nil {
		return r
	}
	out := *e
	switch d := e.Data.(type) {
	case AttributeData:
		d.Object = RewriteExpr(d.Object, sub)
		out.Data = d
	case IndexData:
		d.Object = RewriteExpr(d.Object, sub)
		d.Index = RewriteExpr(d.Index, sub)
		out.Data = d
	case SliceData:
		d.Object = RewriteExpr(d.Object, sub)
		d.Lower = RewriteExpr(d.Lower, sub)
		d.Upper = RewriteExpr(d.Upper, sub)
		d.Step = RewriteExpr(d.Step, sub)
		out.Data = d
	case UnaryData:
		d.Operand = RewriteExpr(d.Operand, sub)
		out.Data = d
	case BinaryData:
		d.Left = RewriteExpr(d.Left, sub)
		d.Right = RewriteExpr(d.Right, sub)
		out.Data = d
	case BoolData:
		d.Values = rewriteAll(d.Values, sub)
		out.Data = d
	case CallData:
		d.Func = RewriteExpr(d.Func, sub)
		d.Args = rewriteAll(d.Args, sub)
		d.Keywords = rewriteKeywords(d.Keywords, sub)
		out.Data = d
	case MethodCallData:
		d.Receiver = RewriteExpr(d.Receiver, sub)
		d.Args = rewriteAll(d.Args, sub)
		d.Keywords = rewriteKeywords(d.Keywords, sub)
		out.Data = d
	case ListData:
		d.Elems = rewriteAll(d.Elems, sub)
		out.Data = d
	case TupleData:
		d.Elems = rewriteAll(d.Elems, sub)
		out.Data = d
	case SetData:
		d.Elems = rewriteAll(d.Elems, sub)
		out.Data = d
	case DictData:
		items := make([]DictItem, len(d.Items))
		for i, it := range d.Items {
			items[i] = DictItem{
				Key:   RewriteExpr(it.Key, sub),
				Value: RewriteExpr(it.Value, sub),
			}
		}
		out.Data = DictData{Items: items}
	case CompData:
		clauses := make([]CompClause, len(d.Clauses))
		for i, c := range d.Clauses {
			clauses[i] = CompClause{
				Target: c.Target,
				Iter:   RewriteExpr(c.Iter, sub),
				Ifs:    rewriteAll(c.Ifs, sub),
			}
		}
		d.Clauses = clauses
		d.Elt = RewriteExpr(d.Elt, sub)
		d.Value = RewriteExpr(d.Value, sub)
		out.Data = d
	case FStringData:
		parts := make([]FStringPart, len(d.Parts))
		for i, p := range d.Parts {
			p.Expr = RewriteExpr(p.Expr, sub)
			parts[i] = p
		}
		out.Data = FStringData{Parts: parts}
	case LambdaData:
		d.Body = RewriteExpr(d.Body, sub)
		out.Data = d
	case IfData:
		d.Cond = RewriteExpr(d.Cond, sub)
		d.Then = RewriteExpr(d.Then, sub)
		d.Else = RewriteExpr(d.Else, sub)
		out.Data = d
	case NamedData:
		d.Value = RewriteExpr(d.Value, sub)
		out.Data = d
	case StarredData:
		d.Value = RewriteExpr(d.Value, sub)
		out.Data = d
	}
	return &out
}

func rewriteAll(es []*Expr, sub func(*Expr) *Expr) []*Expr {
	if es == nil {
		return nil
	}
	out := make([]*Expr, len(es))
	for i, e := range es {
		out[i] = RewriteExpr(e, sub)
	}
	return out
}

func rewriteKeywords(ks []Keyword, sub func(*Expr) *Expr) []Keyword {
	if ks == nil {
		return nil
	}
	out := make([]Keyword, len(ks))
	for i, k := range ks {
		k.Value = RewriteExpr(k.Value, sub)
		out[i] = k
	}
	return out
}
