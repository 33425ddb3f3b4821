package hir

import (
	"strings"

	"depyler/internal/diag"
	"depyler/internal/pyast"
	"depyler/internal/typemap"
	"depyler/internal/types"
)

// lowerModule processes all top-level items.
func (l *lowerer) lowerModule(root *pyast.Node) {
	for _, item := range root.Body {
		switch item.Type {
		case "FunctionDef":
			if fn := l.lowerFuncDef(item, false); fn != nil {
				l.module.Funcs = append(l.module.Funcs, fn)
				l.module.Symbols[fn.Name] = ItemFunc
			}
		case "AsyncFunctionDef":
			l.unsupported(item, "async def (true coroutines)")
		case "ClassDef":
			if cls := l.lowerClassDef(item); cls != nil {
				l.module.Classes = append(l.module.Classes, cls)
				l.module.Symbols[cls.Name] = ItemClass
			}
		case "Import", "ImportFrom":
			l.lowerImport(item)
		case "Assign", "AnnAssign":
			l.lowerModuleConst(item)
		case "If":
			if isMainGuard(item) {
				l.lowerMainGuard(item)
			}
			// Other top-level conditionals (TYPE_CHECKING blocks and
			// platform switches) carry no translatable items.
		case "Expr":
			// Module docstring; ignored here, the assembler keeps it.
		case "Pass":
		default:
			l.warnf(item, diag.BridgeUnsupportedConstruct,
				"top-level %s is ignored", item.Type)
		}
	}
}

func (l *lowerer) lowerImport(n *pyast.Node) {
	switch n.Type {
	case "Import":
		for _, alias := range n.Aliases() {
			one := &Import{Module: alias.Name, Alias: alias.Asname, Span: l.span(n)}
			local := alias.Name
			if alias.Asname != "" {
				local = alias.Asname
			}
			l.aliases[local] = alias.Name
			l.module.Imports = append(l.module.Imports, one)
			l.module.ImportedModules[alias.Name] = one
			l.module.Symbols[local] = ItemImport
		}
	case "ImportFrom":
		imp := &Import{Module: n.Module, Span: l.span(n)}
		for _, alias := range n.Aliases() {
			imp.Items = append(imp.Items, ImportItem{Name: alias.Name, Alias: alias.Asname})
			local := alias.Name
			if alias.Asname != "" {
				local = alias.Asname
			}
			l.module.Symbols[local] = ItemImport
		}
		l.module.Imports = append(l.module.Imports, imp)
		l.module.ImportedModules[imp.Module] = imp
	}
}

// lowerModuleConst lowers a top-level assignment to a constant or a type
// alias.
func (l *lowerer) lowerModuleConst(n *pyast.Node) {
	var target *pyast.Node
	var ann *types.Type
	switch n.Type {
	case "Assign":
		if len(n.Targets) != 1 {
			l.warnf(n, diag.BridgeUnsupportedConstruct,
				"multi-target module assignment is ignored")
			return
		}
		target = n.Targets[0]
	case "AnnAssign":
		target = n.Target
		ann = typemap.Map(n.Annotation)
	}
	if target == nil || target.Type != "Name" {
		l.warnf(n, diag.BridgeUnsupportedConstruct,
			"non-name module assignment is ignored")
		return
	}
	name := ident(target.ID)
	value := l.lowerExpr(n.ValueNode())
	if ann == nil {
		ann = types.Unknown
	}
	l.module.Consts = append(l.module.Consts, Constant{
		Name:  name,
		Type:  ann,
		Value: value,
		Span:  l.span(n),
	})
	l.module.Symbols[name] = ItemConst
}

// isMainGuard recognizes `if __name__ == "__main__":`.
func isMainGuard(n *pyast.Node) bool {
	t := n.Test
	if t == nil || t.Type != "Compare" || t.Left == nil || t.Left.Type != "Name" {
		return false
	}
	if t.Left.ID != "__name__" || len(t.Comparators) != 1 {
		return false
	}
	cmp := t.Comparators[0]
	if cmp.Type != "Constant" {
		return false
	}
	c, err := cmp.Constant()
	return err == nil && c.Kind == pyast.ConstStr && c.Str == "__main__"
}

// lowerMainGuard wraps the guard body into a synthetic main function.
func (l *lowerer) lowerMainGuard(n *pyast.Node) {
	fn := &Func{
		ID:   l.nextFn,
		Name: "main",
		Ret:  types.None,
		Span: l.span(n),
	}
	l.nextFn++
	prev := l.cur
	l.cur = fn
	fn.Body = l.lowerBody(n.Body)
	l.cur = prev
	l.module.Funcs = append(l.module.Funcs, fn)
	l.module.Symbols["main"] = ItemFunc
}

// lowerFuncDef lowers a def to a Func. isMethod strips the self/cls
// convention parameter.
func (l *lowerer) lowerFuncDef(n *pyast.Node, isMethod bool) *Func {
	fn := &Func{
		ID:   l.nextFn,
		Name: ident(n.Name),
		Span: l.span(n),
	}
	l.nextFn++
	fn.Directives = l.reg.Lookup(fn.Name)

	l.lowerDecorators(n, fn)

	args := n.Arguments()
	if args != nil {
		fn.Params = l.lowerParams(args, fn, isMethod)
	}

	if n.Returns != nil {
		fn.Ret = typemap.Map(n.Returns)
	} else {
		fn.Ret = l.freshVar()
	}

	prev := l.cur
	l.cur = fn
	body := n.Body
	if doc, rest := splitDocstring(body); doc != "" {
		fn.Docstring = doc
		body = rest
	}
	fn.Body = l.lowerBody(body)
	l.cur = prev
	return fn
}

// lowerDecorators recognizes the structural decorators and records the
// rest as identity wrappers with a diagnostic.
func (l *lowerer) lowerDecorators(n *pyast.Node, fn *Func) {
	for _, dec := range n.DecoratorList {
		name := decoratorName(dec)
		switch name {
		case "property":
			fn.Props.IsProperty = true
		case "staticmethod":
			fn.Props.IsStaticMethod = true
		case "classmethod":
			fn.Props.IsClassMethod = true
		default:
			fn.Decorators = append(fn.Decorators, name)
			l.warnf(dec, diag.BridgeUnknownDecorator,
				"decorator @%s is emitted as an identity wrapper", name)
		}
	}
}

func decoratorName(dec *pyast.Node) string {
	switch dec.Type {
	case "Name":
		return dec.ID
	case "Attribute":
		return dec.Attr
	case "Call":
		if dec.Func != nil {
			return decoratorName(dec.Func)
		}
	}
	return "<unknown>"
}

func (l *lowerer) lowerParams(args *pyast.Node, fn *Func, isMethod bool) []Param {
	var params []Param
	all := append(append([]*pyast.Node{}, args.Posonlyargs...), args.ArgList()...)

	// Defaults align with the rightmost parameters.
	defaults := args.Defaults
	firstDefault := len(all) - len(defaults)

	for i, a := range all {
		name := ident(a.Arg)
		if isMethod && i == 0 && (name == "self" || name == "cls") &&
			!fn.Props.IsStaticMethod {
			continue
		}
		p := Param{Name: name, Kind: ParamPositional}
		if a.Annotation != nil {
			p.Type = typemap.Map(a.Annotation)
		} else {
			p.Type = l.freshVar()
		}
		if i >= firstDefault {
			p.Default = l.lowerExpr(defaults[i-firstDefault])
		}
		params = append(params, p)
		fn.Local(name).IsParam = true
	}
	if args.Vararg != nil {
		params = append(params, Param{
			Name: ident(args.Vararg.Arg),
			Type: types.List(typemap.Map(args.Vararg.Annotation)),
			Kind: ParamVarArgs,
		})
		fn.Local(ident(args.Vararg.Arg)).IsParam = true
	}
	for i, a := range args.Kwonlyargs {
		p := Param{Name: ident(a.Arg), Kind: ParamPositional}
		if a.Annotation != nil {
			p.Type = typemap.Map(a.Annotation)
		} else {
			p.Type = l.freshVar()
		}
		if i < len(args.KwDefaults) && args.KwDefaults[i] != nil {
			p.Default = l.lowerExpr(args.KwDefaults[i])
		}
		params = append(params, p)
		fn.Local(p.Name).IsParam = true
	}
	if args.Kwarg != nil {
		params = append(params, Param{
			Name: ident(args.Kwarg.Arg),
			Type: types.Dict(types.Str, typemap.Map(args.Kwarg.Annotation)),
			Kind: ParamKwArgs,
		})
		fn.Local(ident(args.Kwarg.Arg)).IsParam = true
	}
	return params
}

func (l *lowerer) lowerClassDef(n *pyast.Node) *Class {
	cls := &Class{
		Name: ident(n.Name),
		Span: l.span(n),
	}
	cls.Directives = l.reg.Lookup(cls.Name)

	for _, dec := range n.DecoratorList {
		if decoratorName(dec) == "dataclass" {
			cls.IsDataclass = true
		}
	}
	for _, base := range n.Bases {
		cls.Bases = append(cls.Bases, baseName(base))
	}
	for _, kw := range n.Keywords {
		if kw.Arg == "metaclass" {
			l.unsupported(n, "metaclass")
			return nil
		}
	}

	body := n.Body
	if doc, rest := splitDocstring(body); doc != "" {
		cls.Docstring = doc
		body = rest
	}

	for _, item := range body {
		switch item.Type {
		case "FunctionDef":
			if m := l.lowerFuncDef(item, true); m != nil {
				cls.Methods = append(cls.Methods, m)
			}
		case "AsyncFunctionDef":
			l.unsupported(item, "async method")
		case "AnnAssign":
			if item.Target != nil && item.Target.Type == "Name" {
				cls.Fields = append(cls.Fields, Field{
					Name:    ident(item.Target.ID),
					Type:    typemap.Map(item.Annotation),
					Default: l.lowerExpr(item.ValueNode()),
				})
			}
		case "Assign":
			// NAME = literal at class level is a class constant.
			if len(item.Targets) == 1 && item.Targets[0].Type == "Name" {
				name := ident(item.Targets[0].ID)
				cls.Consts = append(cls.Consts, Constant{
					Name:  name,
					Type:  types.Unknown,
					Value: l.lowerExpr(item.ValueNode()),
					Span:  l.span(item),
				})
			}
		case "Pass", "Expr":
		default:
			l.warnf(item, diag.BridgeUnsupportedConstruct,
				"class-level %s is ignored", item.Type)
		}
	}
	return cls
}

func baseName(n *pyast.Node) string {
	switch n.Type {
	case "Name":
		return n.ID
	case "Attribute":
		if n.ValueNode() != nil && n.ValueNode().Type == "Name" {
			return n.ValueNode().ID + "." + n.Attr
		}
		return n.Attr
	}
	return "<base>"
}

// splitDocstring returns the leading string constant and the rest of the
// body.
func splitDocstring(body []*pyast.Node) (string, []*pyast.Node) {
	if len(body) == 0 || body[0].Type != "Expr" {
		return "", body
	}
	v := body[0].ValueNode()
	if v == nil || v.Type != "Constant" {
		return "", body
	}
	c, err := v.Constant()
	if err != nil || c.Kind != pyast.ConstStr {
		return "", body
	}
	return strings.TrimSpace(c.Str), body[1:]
}
