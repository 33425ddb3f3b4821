package codegen

import (
	"strings"

	"depyler/internal/hir"
)

// emitClass renders a class as a struct plus an impl block. __init__
// becomes an associated new; __str__ becomes a Display impl.
func (e *Emitter) emitClass(c *hir.Class) []Item {
	var items []Item
	items = append(items, e.emitStruct(c))
	if impl := e.emitImpl(c); impl.Src != "" {
		items = append(items, impl)
	}
	if display := c.Method("__str__"); display != nil {
		items = append(items, e.emitDisplay(c, display))
	}
	return items
}

func (e *Emitter) emitStruct(c *hir.Class) Item {
	e.buf.Reset()
	if c.Docstring != "" {
		for _, l := range strings.Split(strings.TrimRight(c.Docstring, "\n"), "\n") {
			e.line("/// %s", strings.TrimRight(l, " "))
		}
	}
	if c.IsDataclass {
		e.line("#[derive(Debug, Clone, PartialEq)]")
	} else {
		e.line("#[derive(Debug, Clone)]")
	}
	e.open("pub struct %s {", c.Name)
	for _, f := range c.Fields {
		e.line("pub %s: %s,", f.Name, e.ctx.rustType(f.Type))
	}
	e.close("")
	return Item{Kind: ItemStruct, Name: c.Name, Src: e.take()}
}

func (e *Emitter) emitImpl(c *hir.Class) Item {
	e.buf.Reset()
	hasBody := len(c.Consts) > 0
	for _, m := range c.Methods {
		if !isDunder(m.Name) || m.Name == "__init__" || m.Name == "__len__" {
			hasBody = true
		}
	}
	if !hasBody {
		return Item{Kind: ItemImpl, Name: c.Name}
	}
	e.open("impl %s {", c.Name)
	for i := range c.Consts {
		cst := &c.Consts[i]
		fe := newFuncEmitter(e, nil, c)
		val := fe.render(cst.Value)
		ty := e.ctx.rustType(cst.Type)
		if ty == "String" {
			ty = "&str"
			val = strings.TrimSuffix(val, ".to_string()")
		}
		e.line("pub const %s: %s = %s;", cst.Name, ty, val)
	}
	for _, m := range c.Methods {
		if isDunder(m.Name) && m.Name != "__init__" && m.Name != "__len__" {
			continue
		}
		e.line("")
		fe := newFuncEmitter(e, m, c)
		fe.emitSignature()
		fe.emitBody()
	}
	e.close("")
	return Item{Kind: ItemImpl, Name: c.Name, Src: e.take()}
}

// emitDisplay turns __str__ into a Display implementation so both str()
// and f-string interpolation keep working on the struct.
func (e *Emitter) emitDisplay(c *hir.Class, m *hir.Func) Item {
	e.buf.Reset()
	e.open("impl std::fmt::Display for %s {", c.Name)
	e.open("fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {")
	fe := newFuncEmitter(e, m, c)
	if len(m.Body) == 1 {
		if r, ok := m.Body[0].Data.(hir.ReturnData); ok && r.Value != nil {
			e.line("write!(f, \"{}\", %s)", fe.render(r.Value))
			e.close("")
			e.close("")
			return Item{Kind: ItemImpl, Name: c.Name + "::Display", Src: e.take()}
		}
	}
	e.line("write!(f, \"{:?}\", self)")
	e.close("")
	e.close("")
	return Item{Kind: ItemImpl, Name: c.Name + "::Display", Src: e.take()}
}

func isDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
