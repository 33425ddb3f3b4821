package pyast

// Children returns the direct child nodes, decoding the polymorphic slots.
// The order follows source order closely enough for pattern scans; passes
// that need exact evaluation order work on HIR instead.
func (n *Node) Children() []*Node {
	var out []*Node
	add := func(c *Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	addAll := func(cs []*Node) {
		for _, c := range cs {
			add(c)
		}
	}

	addAll(n.Targets)
	add(n.Target)
	add(n.Annotation)
	add(n.ValueNode())
	add(n.Left)
	add(n.Right)
	add(n.Operand)
	addAll(n.Comparators)
	addAll(n.Values)
	addAll(n.Keys)
	addAll(n.Elts)
	add(n.Elt)
	add(n.Key)
	addAll(n.Generators)
	add(n.Func)
	addAll(n.CallArgs())
	add(n.Arguments())
	addAll(n.Posonlyargs)
	addAll(n.Defaults)
	addAll(n.KwDefaults)
	addAll(n.Kwonlyargs)
	add(n.Vararg)
	add(n.Kwarg)
	addAll(n.Keywords)
	add(n.Slice)
	add(n.Lower)
	add(n.Upper)
	add(n.Step)
	add(n.Test)
	addAll(n.Ifs)
	add(n.Iter)
	add(n.FormatSpec)
	add(n.Exc)
	add(n.Cause)
	add(n.Msg)
	addAll(n.Items)
	add(n.ContextExpr)
	add(n.OptionalVars)
	add(n.Returns)
	addAll(n.DecoratorList)
	addAll(n.Bases)
	addAll(n.Body)
	addAll(n.Orelse)
	addAll(n.Finalbody)
	addAll(n.Handlers)
	return out
}

// Walk visits n and every descendant in depth-first order.
// The visitor can return false to prune the subtree.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}
