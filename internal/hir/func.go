package hir

import (
	"depyler/internal/directive"
	"depyler/internal/source"
	"depyler/internal/types"
)

// ParamKind enumerates parameter passing kinds.
type ParamKind uint8

const (
	// ParamPositional is an ordinary (or keyword-capable) parameter.
	ParamPositional ParamKind = iota
	// ParamVarArgs is *args.
	ParamVarArgs
	// ParamKwArgs is **kwargs.
	ParamKwArgs
)

// Param is a function parameter.
type Param struct {
	Name    string
	Type    *types.Type
	Default *Expr // nil when the parameter has no default
	Kind    ParamKind
}

// Properties are facts derived about a function during lowering and
// analysis; codegen reads them, it never writes them.
type Properties struct {
	IsPure        bool
	MayRaise      bool
	IsGenerator   bool
	IsClassMethod bool
	IsStaticMethod bool
	IsProperty    bool
	// Fallible is set when the emitted signature returns a Result.
	Fallible bool
}

// LocalInfo records the defining sites and mutability of one local binding.
// Codegen uses Mutated to choose let vs let mut.
type LocalInfo struct {
	DefSites []NodeID
	Mutated  bool
	IsParam  bool
}

// Func is a lowered function or method.
type Func struct {
	ID         FuncID
	Name       string
	Params     []Param
	Ret        *types.Type
	Body       []*Stmt
	Decorators []string
	Docstring  string
	Props      Properties
	Directives *directive.Set // nil when no directives were attached
	Span       source.Span

	// Locals maps binding names to def-site and mutability facts,
	// recorded by the bridge.
	Locals map[string]*LocalInfo
}

// Local returns the info for name, creating it on first use.
func (f *Func) Local(name string) *LocalInfo {
	if f.Locals == nil {
		f.Locals = make(map[string]*LocalInfo)
	}
	li := f.Locals[name]
	if li == nil {
		li = &LocalInfo{}
		f.Locals[name] = li
	}
	return li
}

// Field is a class data member.
type Field struct {
	Name    string
	Type    *types.Type
	Default *Expr
}

// Class is a lowered class definition.
type Class struct {
	Name        string
	Bases       []string
	Fields      []Field
	Methods     []*Func
	Consts      []Constant
	IsDataclass bool
	Docstring   string
	Directives  *directive.Set
	Span        source.Span
}

// Method looks up a method by name.
func (c *Class) Method(name string) *Func {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
