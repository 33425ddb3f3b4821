// Package types defines the type model attached to HIR nodes.
//
// Types form a small sum over Python's annotatable surface. Unknown and
// unification variables exist only between the bridge and the end of
// inference; positions that still carry them at emission time fall back to
// the dynamic value carrier.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates Type variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindBytes
	KindNone
	KindList
	KindDict
	KindSet
	KindTuple
	KindOptional
	KindUnion
	KindCallable
	KindCustom
	KindVar // unification variable
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindNone:
		return "None"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	case KindTuple:
		return "tuple"
	case KindOptional:
		return "Optional"
	case KindUnion:
		return "Union"
	case KindCallable:
		return "Callable"
	case KindCustom:
		return "custom"
	case KindVar:
		return "var"
	default:
		return "Unknown"
	}
}

// VarID identifies a unification variable.
type VarID uint32

// Type is an immutable type tree node.
//
// Elems usage by kind: List/Set/Optional use Elems[0]; Dict uses
// Elems[0]=key, Elems[1]=value; Tuple and Union list their members;
// Callable lists parameters with the result last.
type Type struct {
	Kind  Kind
	Elems []*Type
	Name  string // KindCustom
	Var   VarID  // KindVar
}

var (
	Int     = &Type{Kind: KindInt}
	Float   = &Type{Kind: KindFloat}
	Bool    = &Type{Kind: KindBool}
	Str     = &Type{Kind: KindStr}
	Bytes   = &Type{Kind: KindBytes}
	None    = &Type{Kind: KindNone}
	Unknown = &Type{Kind: KindUnknown}
)

func List(elem *Type) *Type { return &Type{Kind: KindList, Elems: []*Type{elem}} }
func Set(elem *Type) *Type  { return &Type{Kind: KindSet, Elems: []*Type{elem}} }
func Dict(k, v *Type) *Type { return &Type{Kind: KindDict, Elems: []*Type{k, v}} }

func Tuple(elems ...*Type) *Type {
	return &Type{Kind: KindTuple, Elems: elems}
}

func Optional(elem *Type) *Type {
	if elem != nil && elem.Kind == KindOptional {
		return elem
	}
	return &Type{Kind: KindOptional, Elems: []*Type{elem}}
}

func Union(members ...*Type) *Type {
	return &Type{Kind: KindUnion, Elems: members}
}

func Callable(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindCallable, Elems: append(append([]*Type{}, params...), ret)}
}

func Custom(name string) *Type { return &Type{Kind: KindCustom, Name: name} }
func Var(id VarID) *Type       { return &Type{Kind: KindVar, Var: id} }

// Elem returns the single element type of List/Set/Optional, or Unknown.
func (t *Type) Elem() *Type {
	if t == nil || len(t.Elems) == 0 {
		return Unknown
	}
	return t.Elems[0]
}

// Key and Value access Dict components.
func (t *Type) Key() *Type {
	if t == nil || t.Kind != KindDict || len(t.Elems) < 2 {
		return Unknown
	}
	return t.Elems[0]
}

func (t *Type) Value() *Type {
	if t == nil || t.Kind != KindDict || len(t.Elems) < 2 {
		return Unknown
	}
	return t.Elems[1]
}

// Result returns a Callable's return type.
func (t *Type) Result() *Type {
	if t == nil || t.Kind != KindCallable || len(t.Elems) == 0 {
		return Unknown
	}
	return t.Elems[len(t.Elems)-1]
}

// Equal compares types structurally.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || a.Var != b.Var {
		return false
	}
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

// IsResolved reports whether the tree contains no Unknown and no variable.
func (t *Type) IsResolved() bool {
	if t == nil {
		return false
	}
	if t.Kind == KindUnknown || t.Kind == KindVar {
		return false
	}
	for _, e := range t.Elems {
		if !e.IsResolved() {
			return false
		}
	}
	return true
}

// IsNumeric reports int, float or bool (bools participate in arithmetic).
func (t *Type) IsNumeric() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool:
		return true
	}
	return false
}

// IsCopy reports whether the mapped Rust type has value semantics.
func (t *Type) IsCopy() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindNone:
		return true
	case KindTuple:
		for _, e := range t.Elems {
			if !e.IsCopy() {
				return false
			}
		}
		return true
	}
	return false
}

// Join computes the least upper bound on the value lattice: numeric
// widening (Int below Float, Bool below both) and None-against-T folding to
// Optional[T]. Returns nil when no bound exists.
func Join(a, b *Type) *Type {
	if Equal(a, b) {
		return a
	}
	if a == nil || b == nil {
		return nil
	}
	if (a.Kind == KindInt && b.Kind == KindFloat) || (a.Kind == KindFloat && b.Kind == KindInt) {
		return Float
	}
	if a.Kind == KindBool && (b.Kind == KindInt || b.Kind == KindFloat) {
		return b
	}
	if b.Kind == KindBool && (a.Kind == KindInt || a.Kind == KindFloat) {
		return a
	}
	if a.Kind == KindNone {
		return Optional(b)
	}
	if b.Kind == KindNone {
		return Optional(a)
	}
	if a.Kind == KindOptional && Equal(a.Elem(), b) {
		return a
	}
	if b.Kind == KindOptional && Equal(b.Elem(), a) {
		return b
	}
	return nil
}

// String renders the type in Python annotation syntax, for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindList, KindSet:
		return fmt.Sprintf("%s[%s]", t.Kind, t.Elem())
	case KindDict:
		return fmt.Sprintf("dict[%s, %s]", t.Key(), t.Value())
	case KindTuple:
		return fmt.Sprintf("tuple[%s]", joinTypes(t.Elems))
	case KindOptional:
		return fmt.Sprintf("Optional[%s]", t.Elem())
	case KindUnion:
		return fmt.Sprintf("Union[%s]", joinTypes(t.Elems))
	case KindCallable:
		if len(t.Elems) == 0 {
			return "Callable"
		}
		params := t.Elems[:len(t.Elems)-1]
		return fmt.Sprintf("Callable[[%s], %s]", joinTypes(params), t.Result())
	case KindCustom:
		return t.Name
	case KindVar:
		return fmt.Sprintf("?t%d", t.Var)
	default:
		return t.Kind.String()
	}
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
