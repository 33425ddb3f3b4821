package hir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a compact, indentation-based rendering of the module,
// intended for tests and the `depyler hir` command.
func Dump(w io.Writer, m *Module) error {
	p := &printer{w: w}
	p.printf("module %s", m.Name)
	for _, imp := range m.Imports {
		if len(imp.Items) == 0 {
			p.printf("  import %s", imp.Module)
		} else {
			names := make([]string, len(imp.Items))
			for i, it := range imp.Items {
				names[i] = it.Name
			}
			p.printf("  from %s import %s", imp.Module, strings.Join(names, ", "))
		}
	}
	for _, c := range m.Consts {
		p.printf("  const %s: %s", c.Name, c.Type)
	}
	for _, cls := range m.Classes {
		p.printClass(cls, 1)
	}
	for _, f := range m.Funcs {
		p.printFunc(f, 1)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) printClass(c *Class, depth int) {
	ind := strings.Repeat("  ", depth)
	p.printf("%sclass %s(%s)", ind, c.Name, strings.Join(c.Bases, ", "))
	for _, f := range c.Fields {
		p.printf("%s  field %s: %s", ind, f.Name, f.Type)
	}
	for _, m := range c.Methods {
		p.printFunc(m, depth+1)
	}
}

func (p *printer) printFunc(f *Func, depth int) {
	ind := strings.Repeat("  ", depth)
	params := make([]string, len(f.Params))
	for i, pr := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", pr.Name, pr.Type)
	}
	p.printf("%sfn %s(%s) -> %s", ind, f.Name, strings.Join(params, ", "), f.Ret)
	for _, s := range f.Body {
		p.printStmt(s, depth+1)
	}
}

func (p *printer) printStmt(s *Stmt, depth int) {
	ind := strings.Repeat("  ", depth)
	switch d := s.Data.(type) {
	case AssignData:
		p.printf("%s%s %s = %s", ind, s.Kind, targetString(d.Target), ExprString(d.Value))
	case AugAssignData:
		p.printf("%s%s %s %s= %s", ind, s.Kind, targetString(d.Target), d.Op, ExprString(d.Value))
	case ReturnData:
		p.printf("%sReturn %s", ind, ExprString(d.Value))
	case ExprStmtData:
		p.printf("%sExpr %s", ind, ExprString(d.Value))
	case IfStmtData:
		p.printf("%sIf %s", ind, ExprString(d.Cond))
		for _, t := range d.Then {
			p.printStmt(t, depth+1)
		}
		if len(d.Else) > 0 {
			p.printf("%sElse", ind)
			for _, t := range d.Else {
				p.printStmt(t, depth+1)
			}
		}
	case WhileData:
		p.printf("%sWhile %s", ind, ExprString(d.Cond))
		for _, t := range d.Body {
			p.printStmt(t, depth+1)
		}
	case ForData:
		p.printf("%sFor %s in %s", ind, targetString(d.Target), ExprString(d.Iter))
		for _, t := range d.Body {
			p.printStmt(t, depth+1)
		}
	case FuncDefData:
		p.printFunc(d.Func, depth)
	case ClassDefData:
		p.printClass(d.Class, depth)
	case YieldData:
		p.printf("%sYield %s", ind, ExprString(d.Value))
	default:
		p.printf("%s%s", ind, s.Kind)
	}
}

func targetString(t *Target) string {
	if t == nil {
		return "_"
	}
	switch t.Kind {
	case TargetName:
		return t.Name
	case TargetAttr:
		return ExprString(t.Object) + "." + t.Attr
	case TargetIndex:
		return ExprString(t.Object) + "[" + ExprString(t.Index) + "]"
	case TargetTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = targetString(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}

// ExprString renders an expression for dumps and diagnostics.
func ExprString(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case LiteralData:
		switch d.Kind {
		case LitInt, LitFloat:
			return d.Text
		case LitStr:
			return fmt.Sprintf("%q", d.Str)
		case LitBool:
			if d.Bool {
				return "True"
			}
			return "False"
		case LitNone:
			return "None"
		case LitBytes:
			return fmt.Sprintf("b%q", d.Bytes)
		}
	case VarData:
		return d.Name
	case AttributeData:
		return ExprString(d.Object) + "." + d.Attr
	case IndexData:
		return ExprString(d.Object) + "[" + ExprString(d.Index) + "]"
	case UnaryData:
		return d.Op.String() + " " + ExprString(d.Operand)
	case BinaryData:
		return "(" + ExprString(d.Left) + " " + d.Op.String() + " " + ExprString(d.Right) + ")"
	case BoolData:
		parts := make([]string, len(d.Values))
		for i, x := range d.Values {
			parts[i] = ExprString(x)
		}
		return "(" + strings.Join(parts, " "+d.Op.String()+" ") + ")"
	case CallData:
		name := d.Name
		if d.Module != "" {
			name = d.Module + "." + name
		}
		if d.Func != nil {
			name = ExprString(d.Func)
		}
		return name + "(" + exprList(d.Args) + ")"
	case MethodCallData:
		return ExprString(d.Receiver) + "." + d.Method + "(" + exprList(d.Args) + ")"
	case ListData:
		return "[" + exprList(d.Elems) + "]"
	case TupleData:
		return "(" + exprList(d.Elems) + ")"
	case SetData:
		return "{" + exprList(d.Elems) + "}"
	case DictData:
		parts := make([]string, len(d.Items))
		for i, it := range d.Items {
			parts[i] = ExprString(it.Key) + ": " + ExprString(it.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case CompData:
		return "<" + d.Kind.String() + "-comp>"
	case FStringData:
		return "<f-string>"
	case LambdaData:
		return "<lambda>"
	case IfData:
		return ExprString(d.Then) + " if " + ExprString(d.Cond) + " else " + ExprString(d.Else)
	case NamedData:
		return "(" + d.Name + " := " + ExprString(d.Value) + ")"
	case StarredData:
		return "*" + ExprString(d.Value)
	}
	return e.Kind.String()
}

func exprList(es []*Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}
