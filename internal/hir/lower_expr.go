package hir

import (
	"fmt"

	"depyler/internal/pyast"
	"depyler/internal/types"
)

func (l *lowerer) lowerExpr(n *pyast.Node) *Expr {
	if n == nil {
		return nil
	}
	switch n.Type {
	case "Constant":
		return l.lowerConstant(n)
	case "Name":
		return l.expr(n, ExprVar, l.freshVar(), VarData{Name: ident(n.ID)})
	case "BinOp":
		return l.lowerBinOp(n)
	case "UnaryOp":
		return l.lowerUnaryOp(n)
	case "BoolOp":
		return l.lowerBoolOp(n)
	case "Compare":
		return l.lowerCompare(n)
	case "Call":
		return l.lowerCall(n)
	case "Attribute":
		return l.expr(n, ExprAttribute, l.freshVar(), AttributeData{
			Object: l.lowerExpr(n.ValueNode()),
			Attr:   ident(n.Attr),
		})
	case "Subscript":
		return l.lowerSubscript(n)
	case "List":
		return l.expr(n, ExprList, l.freshVar(), ListData{Elems: l.lowerExprs(n.Elts)})
	case "Tuple":
		return l.expr(n, ExprTuple, l.freshVar(), TupleData{Elems: l.lowerExprs(n.Elts)})
	case "Set":
		return l.expr(n, ExprSet, l.freshVar(), SetData{Elems: l.lowerExprs(n.Elts)})
	case "Dict":
		return l.lowerDict(n)
	case "ListComp":
		return l.lowerComp(n, CompList)
	case "SetComp":
		return l.lowerComp(n, CompSet)
	case "DictComp":
		return l.lowerComp(n, CompDict)
	case "GeneratorExp":
		return l.lowerComp(n, CompGenerator)
	case "JoinedStr":
		return l.lowerFString(n)
	case "FormattedValue":
		// Bare formatted value outside a JoinedStr (f"{x}" folds to this).
		return l.lowerFString(&pyast.Node{Type: "JoinedStr", Values: []*pyast.Node{n}})
	case "Lambda":
		return l.lowerLambda(n)
	case "IfExp":
		return l.expr(n, ExprIf, l.freshVar(), IfData{
			Cond: l.lowerExpr(n.Test),
			Then: l.lowerExpr(firstNode(n.Body)),
			Else: l.lowerExpr(firstNode(n.Orelse)),
		})
	case "NamedExpr":
		if n.Target == nil || n.Target.Type != "Name" {
			l.unsupported(n, "assignment expression target")
			return l.badExpr(n)
		}
		name := ident(n.Target.ID)
		e := l.expr(n, ExprNamed, l.freshVar(), NamedData{
			Name:  name,
			Value: l.lowerExpr(n.ValueNode()),
		})
		l.recordDef(name, e.ID)
		return e
	case "Starred":
		return l.expr(n, ExprStarred, types.Unknown, StarredData{Value: l.lowerExpr(n.ValueNode())})
	case "Await":
		l.unsupported(n, "await expression")
		return l.badExpr(n)
	case "Yield", "YieldFrom":
		l.unsupported(n, "yield in expression position")
		return l.badExpr(n)
	default:
		l.unsupported(n, "expression "+n.Type)
		return l.badExpr(n)
	}
}

func (l *lowerer) expr(n *pyast.Node, kind ExprKind, t *types.Type, data ExprData) *Expr {
	return &Expr{
		ID:   l.id(),
		Kind: kind,
		Span: l.span(n),
		Type: t,
		Data: data,
	}
}

// badExpr stands in for an expression that failed to lower so the walk
// can continue and report further diagnostics.
func (l *lowerer) badExpr(n *pyast.Node) *Expr {
	return l.expr(n, ExprLiteral, types.Unknown, LiteralData{Kind: LitNone})
}

func (l *lowerer) lowerExprs(nodes []*pyast.Node) []*Expr {
	var out []*Expr
	for _, n := range nodes {
		out = append(out, l.lowerExpr(n))
	}
	return out
}

func firstNode(body []*pyast.Node) *pyast.Node {
	if len(body) == 0 {
		return nil
	}
	return body[0]
}

func (l *lowerer) lowerConstant(n *pyast.Node) *Expr {
	c, err := n.Constant()
	if err != nil {
		l.unsupported(n, "constant literal")
		return l.badExpr(n)
	}
	switch c.Kind {
	case pyast.ConstNone:
		return l.expr(n, ExprLiteral, types.None, LiteralData{Kind: LitNone})
	case pyast.ConstBool:
		return l.expr(n, ExprLiteral, types.Bool, LiteralData{Kind: LitBool, Bool: c.Bool})
	case pyast.ConstInt:
		return l.expr(n, ExprLiteral, types.Int,
			LiteralData{Kind: LitInt, Int: c.Int, Text: c.Text})
	case pyast.ConstFloat:
		return l.expr(n, ExprLiteral, types.Float,
			LiteralData{Kind: LitFloat, Float: c.Float, Text: c.Text})
	case pyast.ConstStr:
		return l.expr(n, ExprLiteral, types.Str, LiteralData{Kind: LitStr, Str: c.Str})
	case pyast.ConstBytes:
		return l.expr(n, ExprLiteral, types.Bytes, LiteralData{Kind: LitBytes, Bytes: c.Bytes})
	default:
		return l.badExpr(n)
	}
}

func (l *lowerer) lowerBinOp(n *pyast.Node) *Expr {
	op, ok := binOp(n.Op)
	if !ok {
		l.unsupported(n, "binary operator")
		return l.badExpr(n)
	}
	return l.expr(n, ExprBinary, l.freshVar(), BinaryData{
		Op:    op,
		Left:  l.lowerExpr(n.Left),
		Right: l.lowerExpr(n.Right),
	})
}

func (l *lowerer) lowerUnaryOp(n *pyast.Node) *Expr {
	var op UnaryOp
	switch opName(n.Op) {
	case "USub":
		op = UnaryNeg
	case "UAdd":
		op = UnaryPos
	case "Not":
		op = UnaryNot
	case "Invert":
		op = UnaryInvert
	default:
		l.unsupported(n, "unary operator")
		return l.badExpr(n)
	}
	t := l.freshVar()
	if op == UnaryNot {
		t = types.Bool
	}
	return l.expr(n, ExprUnary, t, UnaryData{Op: op, Operand: l.lowerExpr(n.Operand)})
}

func (l *lowerer) lowerBoolOp(n *pyast.Node) *Expr {
	op := BoolAnd
	if opName(n.Op) == "Or" {
		op = BoolOr
	}
	return l.expr(n, ExprBool, types.Bool, BoolData{Op: op, Values: l.lowerExprs(n.Values)})
}

// lowerCompare desugars chained comparisons (a < b < c) into an and-chain
// of pairwise comparisons. Middle operands that are not trivially
// re-evaluable are bound once with a walrus so each side effect runs once.
func (l *lowerer) lowerCompare(n *pyast.Node) *Expr {
	if len(n.Ops) == 0 || len(n.Ops) != len(n.Comparators) {
		l.unsupported(n, "comparison")
		return l.badExpr(n)
	}
	left := l.lowerExpr(n.Left)
	if len(n.Ops) == 1 {
		op, ok := cmpOp(n.Ops[0])
		if !ok {
			l.unsupported(n, "comparison operator")
			return l.badExpr(n)
		}
		return l.expr(n, ExprBinary, types.Bool, BinaryData{
			Op:    op,
			Left:  left,
			Right: l.lowerExpr(n.Comparators[0]),
		})
	}

	var conjuncts []*Expr
	for i, opNode := range n.Ops {
		op, ok := cmpOp(opNode)
		if !ok {
			l.unsupported(n, "comparison operator")
			return l.badExpr(n)
		}
		right := l.lowerExpr(n.Comparators[i])
		nextLeft := right
		if i < len(n.Ops)-1 && !isTrivial(n.Comparators[i]) {
			tmp := fmt.Sprintf("_cmp%d", right.ID)
			right = l.expr(n.Comparators[i], ExprNamed, right.Type,
				NamedData{Name: tmp, Value: right})
			l.recordDef(tmp, right.ID)
			nextLeft = l.expr(n.Comparators[i], ExprVar, right.Type, VarData{Name: tmp})
		}
		conjuncts = append(conjuncts, l.expr(n, ExprBinary, types.Bool, BinaryData{
			Op:    op,
			Left:  left,
			Right: right,
		}))
		left = nextLeft
	}
	return l.expr(n, ExprBool, types.Bool, BoolData{Op: BoolAnd, Values: conjuncts})
}

// isTrivial reports whether re-evaluating the expression is free of side
// effects and cheap.
func isTrivial(n *pyast.Node) bool {
	return n != nil && (n.Type == "Name" || n.Type == "Constant")
}

func (l *lowerer) lowerCall(n *pyast.Node) *Expr {
	args := l.lowerExprs(n.CallArgs())
	kws := l.lowerKeywords(n.Keywords)

	callee := n.Func
	switch {
	case callee == nil:
		l.unsupported(n, "call")
		return l.badExpr(n)
	case callee.Type == "Name":
		return l.expr(n, ExprCall, l.freshVar(), CallData{
			Name:     ident(callee.ID),
			Args:     args,
			Keywords: kws,
		})
	case callee.Type == "Attribute":
		obj := callee.ValueNode()
		// math.sqrt(x) is a module-qualified call, not a method call on a
		// value named math. The import table decides which.
		if obj != nil && obj.Type == "Name" {
			if mod, ok := l.aliases[ident(obj.ID)]; ok {
				return l.expr(n, ExprCall, l.freshVar(), CallData{
					Module:   mod,
					Name:     ident(callee.Attr),
					Args:     args,
					Keywords: kws,
				})
			}
		}
		return l.expr(n, ExprMethodCall, l.freshVar(), MethodCallData{
			Receiver: l.lowerExpr(obj),
			Method:   ident(callee.Attr),
			Args:     args,
			Keywords: kws,
		})
	default:
		return l.expr(n, ExprCall, l.freshVar(), CallData{
			Func:     l.lowerExpr(callee),
			Args:     args,
			Keywords: kws,
		})
	}
}

func (l *lowerer) lowerKeywords(nodes []*pyast.Node) []Keyword {
	var out []Keyword
	for _, kw := range nodes {
		out = append(out, Keyword{
			Name:  ident(kw.Arg), // empty for **kwargs spread
			Value: l.lowerExpr(kw.ValueNode()),
		})
	}
	return out
}

func (l *lowerer) lowerSubscript(n *pyast.Node) *Expr {
	obj := l.lowerExpr(n.ValueNode())
	if n.Slice != nil && n.Slice.Type == "Slice" {
		return l.expr(n, ExprSlice, l.freshVar(), SliceData{
			Object: obj,
			Lower:  l.lowerExpr(n.Slice.Lower),
			Upper:  l.lowerExpr(n.Slice.Upper),
			Step:   l.lowerExpr(n.Slice.Step),
		})
	}
	return l.expr(n, ExprIndex, l.freshVar(), IndexData{
		Object: obj,
		Index:  l.lowerExpr(n.Slice),
	})
}

func (l *lowerer) lowerDict(n *pyast.Node) *Expr {
	var items []DictItem
	for i, key := range n.Keys {
		item := DictItem{Value: l.lowerExpr(n.Values[i])}
		if key != nil {
			item.Key = l.lowerExpr(key)
		}
		items = append(items, item)
	}
	return l.expr(n, ExprDict, l.freshVar(), DictData{Items: items})
}

func (l *lowerer) lowerComp(n *pyast.Node, kind CompKind) *Expr {
	data := CompData{Kind: kind}
	if kind == CompDict {
		data.Elt = l.lowerExpr(n.Key)
		data.Value = l.lowerExpr(n.ValueNode())
	} else {
		data.Elt = l.lowerExpr(n.Elt)
	}
	for _, gen := range n.Generators {
		if gen.IsAsync != 0 {
			l.unsupported(gen, "async comprehension")
			return l.badExpr(n)
		}
		clause := CompClause{
			Target: l.lowerTarget(gen.Target),
			Iter:   l.lowerExpr(gen.Iter),
		}
		if clause.Target == nil {
			return l.badExpr(n)
		}
		for _, cond := range gen.Ifs {
			clause.Ifs = append(clause.Ifs, l.lowerExpr(cond))
		}
		data.Clauses = append(data.Clauses, clause)
	}
	return l.expr(n, ExprComp, l.freshVar(), data)
}

func (l *lowerer) lowerFString(n *pyast.Node) *Expr {
	var parts []FStringPart
	for _, v := range n.Values {
		switch v.Type {
		case "Constant":
			c, err := v.Constant()
			if err != nil || c.Kind != pyast.ConstStr {
				l.unsupported(v, "f-string chunk")
				continue
			}
			parts = append(parts, FStringPart{Literal: c.Str})
		case "FormattedValue":
			part := FStringPart{Expr: l.lowerExpr(v.ValueNode())}
			switch v.Conversion {
			case 'r', 's', 'a':
				part.Conv = rune(v.Conversion)
			}
			if v.FormatSpec != nil {
				spec, ok := literalSpec(v.FormatSpec)
				if !ok {
					l.unsupported(v, "dynamic format spec")
					continue
				}
				part.Spec = spec
			}
			parts = append(parts, part)
		default:
			l.unsupported(v, "f-string part "+v.Type)
		}
	}
	return l.expr(n, ExprFString, types.Str, FStringData{Parts: parts})
}

// literalSpec flattens a format_spec JoinedStr when it holds only literal
// text. Specs with embedded expressions cannot be rendered statically.
func literalSpec(n *pyast.Node) (string, bool) {
	var spec string
	for _, v := range n.Values {
		if v.Type != "Constant" {
			return "", false
		}
		c, err := v.Constant()
		if err != nil || c.Kind != pyast.ConstStr {
			return "", false
		}
		spec += c.Str
	}
	return spec, true
}

func (l *lowerer) lowerLambda(n *pyast.Node) *Expr {
	arguments := n.Arguments()
	if arguments == nil {
		l.unsupported(n, "lambda parameters")
		return l.badExpr(n)
	}
	if arguments.Vararg != nil || arguments.Kwarg != nil || len(arguments.Kwonlyargs) > 0 {
		l.unsupported(n, "lambda with variadic parameters")
		return l.badExpr(n)
	}
	var params []Param
	all := append(append([]*pyast.Node{}, arguments.Posonlyargs...), arguments.ArgList()...)
	firstDefault := len(all) - len(arguments.Defaults)
	for i, a := range all {
		p := Param{Name: ident(a.Arg), Type: l.freshVar(), Kind: ParamPositional}
		if i >= firstDefault {
			p.Default = l.lowerExpr(arguments.Defaults[i-firstDefault])
		}
		params = append(params, p)
	}
	return l.expr(n, ExprLambda, l.freshVar(), LambdaData{
		Params: params,
		Body:   l.lowerExpr(firstNode(n.Body)),
	})
}

func opName(op *pyast.Node) string {
	if op == nil {
		return ""
	}
	return op.Type
}

func binOp(op *pyast.Node) (BinaryOp, bool) {
	switch opName(op) {
	case "Add":
		return OpAdd, true
	case "Sub":
		return OpSub, true
	case "Mult":
		return OpMul, true
	case "Div":
		return OpDiv, true
	case "FloorDiv":
		return OpFloorDiv, true
	case "Mod":
		return OpMod, true
	case "Pow":
		return OpPow, true
	case "LShift":
		return OpLShift, true
	case "RShift":
		return OpRShift, true
	case "BitOr":
		return OpBitOr, true
	case "BitXor":
		return OpBitXor, true
	case "BitAnd":
		return OpBitAnd, true
	default:
		return 0, false
	}
}

func cmpOp(op *pyast.Node) (BinaryOp, bool) {
	switch opName(op) {
	case "Eq":
		return OpEq, true
	case "NotEq":
		return OpNotEq, true
	case "Lt":
		return OpLt, true
	case "LtE":
		return OpLtE, true
	case "Gt":
		return OpGt, true
	case "GtE":
		return OpGtE, true
	case "In":
		return OpIn, true
	case "NotIn":
		return OpNotIn, true
	case "Is":
		return OpIs, true
	case "IsNot":
		return OpIsNot, true
	default:
		return 0, false
	}
}
