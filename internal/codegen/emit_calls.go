package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"depyler/internal/diag"
	"depyler/internal/hir"
	"depyler/internal/types"
)

// propagate suffixes a Result-producing expression with ? inside a
// fallible context, and unwraps it elsewhere.
func (fe *funcEmitter) propagate(src string) string {
	if fe.inTry > 0 || (fe.fn != nil && fe.fn.Props.Fallible) {
		return src + "?"
	}
	return src + ".unwrap()"
}

func (fe *funcEmitter) renderCall(x *hir.Expr, d hir.CallData) string {
	if d.Func != nil {
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = fe.renderOwned(a)
		}
		return fe.render(d.Func) + "(" + strings.Join(args, ", ") + ")"
	}
	if d.Module != "" {
		if src, ok := fe.moduleCall(x, d); ok {
			return src
		}
		fe.e.ctx.Fallback(d.Module + "." + d.Name + " emitted as an unqualified call")
		fe.info(diag.GenDefaultFallback, x.Span, "no handler for %s.%s", d.Module, d.Name)
		return fe.plainCall(d.Name, d.Args)
	}
	if callee := fe.e.mod.Func(d.Name); callee != nil {
		return fe.userCall(callee, d)
	}
	if class := fe.e.mod.Class(d.Name); class != nil {
		return fe.constructorCall(class, d)
	}
	if src, ok := fe.builtinCall(x, d); ok {
		return src
	}
	return fe.plainCall(d.Name, d.Args)
}

func (fe *funcEmitter) plainCall(name string, args []*hir.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fe.renderOwned(a)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// userCall renders a call to a function defined in this module, shaping
// each argument to the callee's parameter mode.
func (fe *funcEmitter) userCall(callee *hir.Func, d hir.CallData) string {
	plan := fe.e.plans[callee]
	byName := make(map[string]*hir.Expr)
	for _, kw := range d.Keywords {
		if kw.Name != "" {
			byName[kw.Name] = kw.Value
		}
	}
	var args []string
	for i, p := range callee.Params {
		if p.Kind != hir.ParamPositional {
			continue
		}
		var arg *hir.Expr
		switch {
		case i < len(d.Args):
			arg = d.Args[i]
		case byName[p.Name] != nil:
			arg = byName[p.Name]
		case p.Default != nil:
			arg = p.Default
		default:
			continue
		}
		args = append(args, fe.argFor(arg, p, plan))
	}
	src := callee.Name + "(" + strings.Join(args, ", ") + ")"
	if callee.Props.Fallible {
		src = fe.propagate(src)
	}
	return src
}

func (fe *funcEmitter) argFor(arg *hir.Expr, p hir.Param, plan *hir.OwnershipPlan) string {
	if fe.fn != nil && fe.fn.Directives != nil {
		if _, forced := fe.fn.Directives.TypeOverrides[p.Name]; forced {
			return fe.render(arg)
		}
	}
	switch plan.ParamModeOf(p.Name) {
	case hir.ParamBorrowed:
		if lit, ok := arg.Data.(hir.LiteralData); ok && lit.Kind == hir.LitStr {
			return strconv.Quote(lit.Str)
		}
		return "&" + fe.parenRender(arg)
	case hir.ParamBorrowedMut:
		return "&mut " + fe.parenRender(arg)
	default:
		return fe.coerce(arg, p.Type)
	}
}

// constructorCall renders ClassName(...) as Name::new(...) when the
// class defines __init__, or as a struct literal for plain dataclasses.
func (fe *funcEmitter) constructorCall(class *hir.Class, d hir.CallData) string {
	if init := class.Method("__init__"); init != nil {
		src := fe.userInitCall(class.Name, init, d)
		if init.Props.Fallible {
			src = fe.propagate(src)
		}
		return src
	}
	var fields []string
	for i, f := range class.Fields {
		var v string
		switch {
		case i < len(d.Args):
			v = fe.coerce(d.Args[i], f.Type)
		case fe.keywordFor(d.Keywords, f.Name) != nil:
			v = fe.coerce(fe.keywordFor(d.Keywords, f.Name), f.Type)
		case f.Default != nil:
			v = fe.renderOwned(f.Default)
		default:
			v = zeroValue(f.Type, fe.e.ctx)
		}
		fields = append(fields, f.Name+": "+v)
	}
	return class.Name + " { " + strings.Join(fields, ", ") + " }"
}

func (fe *funcEmitter) keywordFor(kws []hir.Keyword, name string) *hir.Expr {
	for _, kw := range kws {
		if kw.Name == name {
			return kw.Value
		}
	}
	return nil
}

func (fe *funcEmitter) userInitCall(className string, init *hir.Func, d hir.CallData) string {
	plan := fe.e.plans[init]
	var args []string
	params := init.Params
	if len(params) > 0 {
		params = params[1:] // skip self
	}
	for i, p := range params {
		switch {
		case i < len(d.Args):
			args = append(args, fe.argFor(d.Args[i], p, plan))
		case fe.keywordFor(d.Keywords, p.Name) != nil:
			args = append(args, fe.argFor(fe.keywordFor(d.Keywords, p.Name), p, plan))
		case p.Default != nil:
			args = append(args, fe.argFor(p.Default, p, plan))
		}
	}
	return className + "::new(" + strings.Join(args, ", ") + ")"
}

// floatArg renders an argument widened to f64.
func (fe *funcEmitter) floatArg(x *hir.Expr) string {
	if typeKind(x.Type) == types.KindInt {
		if lit, ok := x.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return floatText(lit.Text)
		}
		return "(" + fe.render(x) + ") as f64"
	}
	return fe.parenRender(x)
}

// builtinCall handles Python builtins without a module qualifier.
func (fe *funcEmitter) builtinCall(x *hir.Expr, d hir.CallData) (string, bool) {
	arg := func(i int) *hir.Expr { return d.Args[i] }
	n := len(d.Args)
	switch d.Name {
	case "len":
		if n == 1 {
			return fe.parenRender(arg(0)) + ".len() as i64", true
		}
	case "print":
		return fe.printCall(d.Args), true
	case "str":
		if n == 0 {
			return "String::new()", true
		}
		if typeKind(arg(0).Type) == types.KindStr {
			return fe.renderOwned(arg(0)), true
		}
		switch typeKind(arg(0).Type) {
		case types.KindInt, types.KindFloat, types.KindBool:
			return fe.parenRender(arg(0)) + ".to_string()", true
		}
		return "format!(\"{:?}\", " + fe.render(arg(0)) + ")", true
	case "int":
		if n == 1 {
			switch typeKind(arg(0).Type) {
			case types.KindStr:
				return fe.propagate(fe.parenRender(arg(0)) + ".trim().parse::<i64>()"), true
			case types.KindFloat, types.KindBool:
				return fe.parenRender(arg(0)) + " as i64", true
			default:
				return fe.parenRender(arg(0)), true
			}
		}
	case "float":
		if n == 1 {
			switch typeKind(arg(0).Type) {
			case types.KindStr:
				return fe.propagate(fe.parenRender(arg(0)) + ".trim().parse::<f64>()"), true
			case types.KindInt, types.KindBool:
				return fe.parenRender(arg(0)) + " as f64", true
			default:
				return fe.parenRender(arg(0)), true
			}
		}
	case "bool":
		if n == 1 {
			return fe.boolize(arg(0)), true
		}
	case "abs":
		if n == 1 {
			return fe.parenRender(arg(0)) + ".abs()", true
		}
	case "min", "max":
		return fe.minMaxCall(d), true
	case "sum":
		if n == 1 {
			return fe.sumCall(arg(0)), true
		}
	case "any", "all":
		if n == 1 {
			return fe.anyAllCall(d.Name, arg(0)), true
		}
	case "sorted":
		if n == 1 {
			return fmt.Sprintf("{ let mut _v = %s.clone(); _v.sort(); _v }", fe.render(arg(0))), true
		}
	case "reversed":
		if n == 1 {
			return fe.iterOf(arg(0)) + ".rev().cloned().collect::<Vec<_>>()", true
		}
	case "list":
		if n == 0 {
			return "Vec::new()", true
		}
		return fe.iterOf(arg(0)) + ".cloned().collect::<Vec<_>>()", true
	case "set":
		fe.e.ctx.Needs.HashSet = true
		if n == 0 {
			return "HashSet::new()", true
		}
		return fe.iterOf(arg(0)) + ".cloned().collect::<HashSet<_>>()", true
	case "dict":
		fe.e.ctx.Needs.HashMap = true
		if n == 0 {
			return "HashMap::new()", true
		}
	case "tuple":
		if n == 1 {
			return fe.renderOwned(arg(0)), true
		}
	case "range":
		if src, ok := fe.rangeIter(d); ok {
			return "(" + src + ").collect::<Vec<i64>>()", true
		}
	case "enumerate":
		if n == 1 {
			return fe.iterOf(arg(0)) + ".cloned().enumerate().map(|(i, v)| (i as i64, v)).collect::<Vec<_>>()", true
		}
	case "zip":
		if n == 2 {
			return fe.iterOf(arg(0)) + ".cloned().zip(" + fe.iterOf(arg(1)) + ".cloned()).collect::<Vec<_>>()", true
		}
	case "round":
		if n == 1 {
			return fe.floatArg(arg(0)) + ".round() as i64", true
		}
		if n == 2 {
			return fmt.Sprintf("{ let _p = 10f64.powi((%s) as i32); (%s * _p).round() / _p }",
				fe.render(arg(1)), fe.floatArg(arg(0))), true
		}
	case "ord":
		if n == 1 {
			return fe.parenRender(arg(0)) + ".chars().next().unwrap() as i64", true
		}
	case "chr":
		if n == 1 {
			return fmt.Sprintf("char::from_u32((%s) as u32).unwrap().to_string()", fe.render(arg(0))), true
		}
	case "repr":
		if n == 1 {
			return "format!(\"{:?}\", " + fe.render(arg(0)) + ")", true
		}
	case "input":
		return "{ let mut _s = String::new(); std::io::stdin().read_line(&mut _s).unwrap(); _s.trim_end().to_string() }", true
	case "open":
		return fe.openCall(d), true
	case "exit":
		if n == 1 {
			return fmt.Sprintf("std::process::exit((%s) as i32)", fe.render(arg(0))), true
		}
		return "std::process::exit(0)", true
	case "isinstance":
		fe.e.ctx.Fallback("isinstance check emitted as true")
		fe.info(diag.GenDefaultFallback, x.Span, "isinstance has no runtime counterpart; emitted as true")
		return "true", true
	}
	return "", false
}

func (fe *funcEmitter) printCall(args []*hir.Expr) string {
	if len(args) == 0 {
		return "println!()"
	}
	var specs, rendered []string
	for _, a := range args {
		switch typeKind(a.Type) {
		case types.KindInt, types.KindFloat, types.KindBool, types.KindStr:
			specs = append(specs, "{}")
		default:
			specs = append(specs, "{:?}")
		}
		rendered = append(rendered, fe.render(a))
	}
	return "println!(" + strconv.Quote(strings.Join(specs, " ")) + ", " + strings.Join(rendered, ", ") + ")"
}

func (fe *funcEmitter) minMaxCall(d hir.CallData) string {
	fold := ".min()"
	if d.Name == "max" {
		fold = ".max()"
	}
	if len(d.Args) == 1 {
		elem := elemTypeOf(d.Args[0].Type)
		src := fe.iterOf(d.Args[0])
		if typeKind(elem) == types.KindFloat {
			if d.Name == "max" {
				return src + ".cloned().fold(f64::NEG_INFINITY, f64::max)"
			}
			return src + ".cloned().fold(f64::INFINITY, f64::min)"
		}
		return src + strings.Replace(fold, "()", "().unwrap().clone()", 1)
	}
	parts := make([]string, len(d.Args))
	for i, a := range d.Args {
		parts[i] = fe.parenRender(a)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = out + strings.TrimSuffix(fold, ")") + p + ")"
	}
	return out
}

func (fe *funcEmitter) sumCall(x *hir.Expr) string {
	if comp, ok := x.Data.(hir.CompData); ok && comp.Kind == hir.CompGenerator {
		if chain, ok := fe.genChain(comp); ok {
			return chain + ".sum::<" + fe.e.ctx.rustType(comp.Elt.Type) + ">()"
		}
	}
	ty := fe.e.ctx.rustType(elemTypeOf(x.Type))
	return fe.iterOf(x) + ".sum::<" + ty + ">()"
}

func (fe *funcEmitter) anyAllCall(name string, x *hir.Expr) string {
	if comp, ok := x.Data.(hir.CompData); ok && comp.Kind == hir.CompGenerator && len(comp.Clauses) == 1 {
		cl := comp.Clauses[0]
		pat := fe.loopPattern(cl.Target)
		body := fe.boolize(comp.Elt)
		for _, c := range cl.Ifs {
			body = fe.boolize(c) + " && " + body
		}
		return fmt.Sprintf("%s.%s(|&%s| %s)", fe.iterOf(cl.Iter), name, pat, body)
	}
	return fe.iterOf(x) + "." + name + "(|x| *x)"
}

// genChain renders a single-clause generator expression as an iterator
// pipeline for direct-consumption callers.
func (fe *funcEmitter) genChain(d hir.CompData) (string, bool) {
	if len(d.Clauses) != 1 || d.Clauses[0].Target.Kind != hir.TargetName {
		return "", false
	}
	cl := d.Clauses[0]
	name := cl.Target.Name
	fe.declared[name] = true
	src := fe.iterOf(cl.Iter) + ".cloned()"
	for _, c := range cl.Ifs {
		src += fmt.Sprintf(".filter(|%s| %s)", name, fe.boolize(c))
	}
	src += fmt.Sprintf(".map(|%s| %s)", name, fe.render(d.Elt))
	return src, true
}

func (fe *funcEmitter) openCall(d hir.CallData) string {
	if len(d.Args) == 0 {
		return "std::fs::File::open(\"\")"
	}
	path := fe.render(d.Args[0])
	mode := "r"
	if len(d.Args) > 1 {
		if lit, ok := d.Args[1].Data.(hir.LiteralData); ok && lit.Kind == hir.LitStr {
			mode = lit.Str
		}
	}
	if strings.ContainsAny(mode, "wa") {
		return fe.propagate(fmt.Sprintf("std::fs::File::create(&%s)", path))
	}
	return fe.propagate(fmt.Sprintf("std::fs::File::open(&%s)", path))
}
