package hir

import (
	"depyler/internal/source"
	"depyler/internal/types"
)

// ImportItem is one imported name with an optional rename.
type ImportItem struct {
	Name  string
	Alias string // empty when not renamed
}

// Import records either "import module [as alias]" or
// "from module import items".
type Import struct {
	Module string
	Alias  string
	Items  []ImportItem // empty for whole-module imports
	Span   source.Span
}

// Constant is a top-level or class-level constant binding.
type Constant struct {
	Name  string
	Type  *types.Type
	Value *Expr
	Span  source.Span
}

// TypeAlias is a top-level "Name = type-expression" alias.
type TypeAlias struct {
	Name string
	Type *types.Type
	Span source.Span
}

// ItemKind classifies symbol table entries.
type ItemKind uint8

const (
	ItemFunc ItemKind = iota
	ItemClass
	ItemConst
	ItemAlias
	ItemImport
)

// Module is an ordered collection of lowered items.
type Module struct {
	Name    string
	Funcs   []*Func
	Classes []*Class
	Consts  []Constant
	Aliases []TypeAlias
	Imports []*Import

	// Symbols maps unqualified names to item kinds for name resolution.
	Symbols map[string]ItemKind

	// ImportedModules maps source module names to their import record,
	// including per-item renames.
	ImportedModules map[string]*Import

	// NextVar is the first unification variable id not used by the
	// bridge; inference mints fresh variables from here.
	NextVar types.VarID
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:            name,
		Symbols:         make(map[string]ItemKind),
		ImportedModules: make(map[string]*Import),
	}
}

// Func looks up a top-level function by name.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Class looks up a class by name.
func (m *Module) Class(name string) *Class {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}
