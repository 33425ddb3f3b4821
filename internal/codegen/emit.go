// Package codegen turns annotated HIR into Rust surface syntax.
//
// EmitModule walks the module item by item and renders each into an
// Item carrying its source text. Cross-cutting needs (collection types,
// external crates, the dynamic value carrier) accumulate in a Context
// that the assembler later promotes into use declarations and manifest
// dependencies.
package codegen

import (
	"fmt"
	"strings"

	"depyler/internal/config"
	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/hir"
)

// ItemKind classifies rendered top-level items.
type ItemKind uint8

const (
	ItemFunc ItemKind = iota
	ItemStruct
	ItemImpl
	ItemConst
	ItemSupport
)

// Item is one rendered top-level declaration.
type Item struct {
	Kind ItemKind
	Name string
	Src  string
}

// Output is the result of emitting one module.
type Output struct {
	Items []Item
	Ctx   *Context
	Bag   *diag.Bag
}

// Emitter renders a module. It is single-use.
type Emitter struct {
	mod   *hir.Module
	plans map[*hir.Func]*hir.OwnershipPlan
	cfg   config.Config
	ctx   *Context
	bag   *diag.Bag

	buf    strings.Builder
	indent int
}

// EmitModule renders m into Rust items. plans comes from ownership
// analysis; functions missing from it get conservative defaults.
func EmitModule(m *hir.Module, plans map[*hir.Func]*hir.OwnershipPlan, cfg config.Config) *Output {
	max := cfg.MaxDiagnostics
	if max <= 0 {
		max = 100
	}
	e := &Emitter{
		mod:   m,
		plans: plans,
		cfg:   cfg,
		ctx:   NewContext(cfg.NasaMode),
		bag:   diag.NewBag(max),
	}
	e.ctx.ForceDictValueOptionWrap = cfg.ForceDictValueOptionWrap
	e.markFallible()
	e.collectProperties()

	out := &Output{Ctx: e.ctx, Bag: e.bag}
	for i := range m.Consts {
		out.Items = append(out.Items, e.emitModuleConst(&m.Consts[i]))
	}
	for _, c := range m.Classes {
		out.Items = append(out.Items, e.emitClass(c)...)
	}
	for _, fn := range m.Funcs {
		out.Items = append(out.Items, e.emitFunc(fn, nil))
	}
	if e.ctx.Needs.DepylerValue {
		e.ctx.Needs.HashMap = true
		support := Item{Kind: ItemSupport, Name: dynamicCarrier, Src: carrierDefinition()}
		out.Items = append([]Item{support}, out.Items...)
	}
	return out
}

// markFallible computes which functions return a result carrier. A
// function is fallible when it raises, contains a try block, or calls
// another fallible function; the closure is taken to a fixpoint over
// the call graph. A panics error policy opts a function out.
func (e *Emitter) markFallible() {
	all := e.allFuncs()
	for _, fn := range all {
		if policyOf(fn) == directive.PolicyPanics {
			continue
		}
		if policyOf(fn) == directive.PolicyFailsWith || bodyMayFail(fn.Body) {
			fn.Props.Fallible = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, fn := range all {
			if fn.Props.Fallible || policyOf(fn) == directive.PolicyPanics {
				continue
			}
			if e.callsFallible(fn.Body) {
				fn.Props.Fallible = true
				changed = true
			}
		}
	}
}

func (e *Emitter) allFuncs() []*hir.Func {
	var out []*hir.Func
	out = append(out, e.mod.Funcs...)
	for _, c := range e.mod.Classes {
		out = append(out, c.Methods...)
	}
	return out
}

func policyOf(fn *hir.Func) directive.ErrorPolicy {
	if fn.Directives == nil {
		return directive.PolicyDefault
	}
	return fn.Directives.ErrorPolicy
}

// bodyMayFail reports intrinsic failure sources. Raises inside a try
// body are absorbed by the handler closure and do not count; raises in
// handlers or outside any try escape the function.
func bodyMayFail(body []*hir.Stmt) bool {
	for _, s := range body {
		switch d := s.Data.(type) {
		case hir.RaiseData:
			return true
		case hir.TryData:
			for _, h := range d.Handlers {
				if bodyMayFail(h.Body) {
					return true
				}
			}
			if bodyMayFail(d.Orelse) || bodyMayFail(d.Finalbody) {
				return true
			}
		case hir.IfStmtData:
			if bodyMayFail(d.Then) || bodyMayFail(d.Else) {
				return true
			}
		case hir.WhileData:
			if bodyMayFail(d.Body) || bodyMayFail(d.Orelse) {
				return true
			}
		case hir.ForData:
			if bodyMayFail(d.Body) || bodyMayFail(d.Orelse) {
				return true
			}
		case hir.WithData:
			if bodyMayFail(d.Body) {
				return true
			}
		}
	}
	return false
}

func (e *Emitter) callsFallible(body []*hir.Stmt) bool {
	found := false
	hir.WalkStmts(body, hir.Visitor{
		PreExpr: func(x *hir.Expr) bool {
			if call, ok := x.Data.(hir.CallData); ok && call.Module == "" && call.Func == nil {
				if callee := e.mod.Func(call.Name); callee != nil && callee.Props.Fallible {
					found = true
				}
			}
			return !found
		},
		PreStmt: func(s *hir.Stmt) bool {
			// calls inside a try are absorbed by its closure
			return s.Kind != hir.StmtFuncDef && s.Kind != hir.StmtTry && !found
		},
	})
	return found
}

// collectProperties registers zero-arg property methods so attribute
// access on their receivers renders as a call.
func (e *Emitter) collectProperties() {
	for _, c := range e.mod.Classes {
		for _, m := range c.Methods {
			if m.Props.IsProperty {
				e.ctx.PropertyMethods[m.Name] = true
			}
		}
	}
}

func (e *Emitter) emitModuleConst(c *hir.Constant) Item {
	e.buf.Reset()
	fe := newFuncEmitter(e, nil, nil)
	val := fe.render(c.Value)
	ty := e.ctx.rustType(c.Type)
	if ty == "String" {
		// const items cannot allocate; keep the borrowed form.
		ty = "&str"
		val = strings.TrimSuffix(val, ".to_string()")
	}
	src := fmt.Sprintf("pub const %s: %s = %s;\n", strings.ToUpper(c.Name), ty, val)
	return Item{Kind: ItemConst, Name: c.Name, Src: src}
}

// line writes one indented line into the buffer.
func (e *Emitter) line(format string, args ...any) {
	for i := 0; i < e.indent; i++ {
		e.buf.WriteString("    ")
	}
	if len(args) == 0 {
		e.buf.WriteString(format)
	} else {
		fmt.Fprintf(&e.buf, format, args...)
	}
	e.buf.WriteByte('\n')
}

func (e *Emitter) open(format string, args ...any) {
	e.line(format, args...)
	e.indent++
}

func (e *Emitter) close(suffix string) {
	e.indent--
	e.line("}" + suffix)
}

func (e *Emitter) take() string {
	s := e.buf.String()
	e.buf.Reset()
	return s
}
