package codegen

import (
	"strings"

	"depyler/internal/types"
)

// dynamicCarrier is the tagged sum the generator falls back to for
// heterogeneous and unresolved positions.
const dynamicCarrier = "DepylerValue"

// rustType renders an owned Rust type for t, firing needs flags for the
// collection and carrier types it touches.
func (c *Context) rustType(t *types.Type) string {
	if t == nil {
		c.Needs.DepylerValue = true
		return dynamicCarrier
	}
	switch t.Kind {
	case types.KindInt:
		return "i64"
	case types.KindFloat:
		return "f64"
	case types.KindBool:
		return "bool"
	case types.KindStr:
		return "String"
	case types.KindBytes:
		return "Vec<u8>"
	case types.KindNone:
		return "()"
	case types.KindList:
		return "Vec<" + c.rustType(t.Elem()) + ">"
	case types.KindSet:
		c.Needs.HashSet = true
		return "HashSet<" + c.rustType(t.Elem()) + ">"
	case types.KindDict:
		c.Needs.HashMap = true
		return "HashMap<" + c.rustType(t.Key()) + ", " + c.rustType(t.Value()) + ">"
	case types.KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = c.rustType(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.KindOptional:
		return "Option<" + c.rustType(t.Elem()) + ">"
	case types.KindCallable:
		n := len(t.Elems)
		params := make([]string, 0, n)
		for i := 0; i < n-1; i++ {
			params = append(params, c.rustType(t.Elems[i]))
		}
		ret := "()"
		if n > 0 {
			ret = c.rustType(t.Elems[n-1])
		}
		return "Box<dyn Fn(" + strings.Join(params, ", ") + ") -> " + ret + ">"
	case types.KindCustom:
		return t.Name
	case types.KindUnion, types.KindUnknown, types.KindVar:
		c.Needs.DepylerValue = true
		return dynamicCarrier
	default:
		c.Needs.DepylerValue = true
		return dynamicCarrier
	}
}

// borrowedType renders the shared-borrow form used for parameters
// (&str for strings, &[T] for vectors, &T otherwise).
func (c *Context) borrowedType(t *types.Type) string {
	if t == nil {
		return "&" + c.rustType(t)
	}
	switch t.Kind {
	case types.KindStr:
		return "&str"
	case types.KindList:
		return "&[" + c.rustType(t.Elem()) + "]"
	default:
		return "&" + c.rustType(t)
	}
}

// isDynamic reports whether the position is emitted through the carrier.
func isDynamic(t *types.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case types.KindUnknown, types.KindVar, types.KindUnion:
		return true
	}
	return false
}

// carrierWrap wraps a rendered expression in the carrier constructor for
// its static type.
func (c *Context) carrierWrap(expr string, t *types.Type) string {
	c.Needs.DepylerValue = true
	if t == nil {
		return expr
	}
	switch t.Kind {
	case types.KindInt:
		return dynamicCarrier + "::Int(" + expr + ")"
	case types.KindFloat:
		return dynamicCarrier + "::Float(" + expr + ")"
	case types.KindBool:
		return dynamicCarrier + "::Bool(" + expr + ")"
	case types.KindStr:
		return dynamicCarrier + "::Str(" + expr + ")"
	case types.KindNone:
		return dynamicCarrier + "::None"
	case types.KindList:
		return dynamicCarrier + "::List(" + expr + ")"
	case types.KindDict:
		return dynamicCarrier + "::Dict(" + expr + ")"
	default:
		return expr
	}
}

// carrierDefinition is the support item emitted once per module when the
// dynamic carrier is needed. The Dict arm references HashMap, so the
// caller must set Needs.HashMap alongside DepylerValue.
func carrierDefinition() string {
	var b strings.Builder
	b.WriteString("#[derive(Debug, Clone, PartialEq)]\n")
	b.WriteString("pub enum " + dynamicCarrier + " {\n")
	b.WriteString("    Int(i64),\n")
	b.WriteString("    Float(f64),\n")
	b.WriteString("    Bool(bool),\n")
	b.WriteString("    Str(String),\n")
	b.WriteString("    List(Vec<" + dynamicCarrier + ">),\n")
	b.WriteString("    Dict(HashMap<String, " + dynamicCarrier + ">),\n")
	b.WriteString("    None,\n")
	b.WriteString("}\n")
	return b.String()
}
