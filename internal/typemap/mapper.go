// Package typemap maps Python surface annotations to HIR types.
//
// Primitive names map to concrete variants; list/dict/set/tuple/Optional/
// Union map structurally; Any, forward references and unresolved names
// fall back to Unknown, which later degrades to the dynamic carrier.
package typemap

import (
	"depyler/internal/pyast"
	"depyler/internal/types"
)

// Map converts an annotation expression to a type. A nil node or an
// unrecognized shape yields Unknown, never an error: annotation problems
// degrade, they do not abort.
func Map(n *pyast.Node) *types.Type {
	if n == nil {
		return types.Unknown
	}
	switch n.Type {
	case "Name":
		return mapName(n.ID)
	case "Constant":
		c, err := n.Constant()
		if err == nil && c.Kind == pyast.ConstNone {
			return types.None
		}
		// String annotation: a forward reference.
		if err == nil && c.Kind == pyast.ConstStr {
			return types.Custom(c.Str)
		}
		return types.Unknown
	case "Attribute":
		// typing.Optional, typing.List and friends.
		return mapName(n.Attr)
	case "Subscript":
		return mapSubscript(n)
	case "BinOp":
		// PEP 604: X | Y.
		if n.Op != nil && n.Op.Type == "BitOr" {
			return foldUnion([]*types.Type{Map(n.Left), Map(n.Right)})
		}
		return types.Unknown
	case "List":
		// Callable parameter lists arrive as a List node.
		elems := make([]*types.Type, len(n.Elts))
		for i, e := range n.Elts {
			elems[i] = Map(e)
		}
		return types.Tuple(elems...)
	default:
		return types.Unknown
	}
}

func mapName(name string) *types.Type {
	switch name {
	case "int":
		return types.Int
	case "float":
		return types.Float
	case "bool":
		return types.Bool
	case "str":
		return types.Str
	case "bytes":
		return types.Bytes
	case "None", "NoneType":
		return types.None
	case "list", "List":
		return types.List(types.Unknown)
	case "dict", "Dict":
		return types.Dict(types.Unknown, types.Unknown)
	case "set", "Set", "frozenset", "FrozenSet":
		return types.Set(types.Unknown)
	case "tuple", "Tuple":
		return types.Tuple()
	case "Any", "object":
		return types.Unknown
	case "Optional":
		return types.Optional(types.Unknown)
	case "Callable":
		return types.Callable(nil, types.Unknown)
	case "Sequence", "Iterable", "Iterator":
		return types.List(types.Unknown)
	case "Mapping", "MutableMapping":
		return types.Dict(types.Unknown, types.Unknown)
	default:
		return types.Custom(name)
	}
}

func mapSubscript(n *pyast.Node) *types.Type {
	base := ""
	switch {
	case n.ValueNode() != nil && n.ValueNode().Type == "Name":
		base = n.ValueNode().ID
	case n.ValueNode() != nil && n.ValueNode().Type == "Attribute":
		base = n.ValueNode().Attr
	default:
		return types.Unknown
	}

	args := subscriptArgs(n.Slice)
	switch base {
	case "list", "List", "Sequence", "Iterable", "Iterator":
		return types.List(argAt(args, 0))
	case "set", "Set", "frozenset", "FrozenSet":
		return types.Set(argAt(args, 0))
	case "dict", "Dict", "Mapping", "MutableMapping":
		return types.Dict(argAt(args, 0), argAt(args, 1))
	case "tuple", "Tuple":
		return types.Tuple(args...)
	case "Optional":
		return types.Optional(argAt(args, 0))
	case "Union":
		return foldUnion(args)
	case "Callable":
		return mapCallable(args)
	default:
		return types.Custom(base)
	}
}

// subscriptArgs flattens the slice expression into mapped type arguments.
func subscriptArgs(slice *pyast.Node) []*types.Type {
	if slice == nil {
		return nil
	}
	if slice.Type == "Tuple" {
		out := make([]*types.Type, len(slice.Elts))
		for i, e := range slice.Elts {
			out[i] = Map(e)
		}
		return out
	}
	return []*types.Type{Map(slice)}
}

func argAt(args []*types.Type, i int) *types.Type {
	if i >= len(args) {
		return types.Unknown
	}
	return args[i]
}

// foldUnion collapses Optional-shaped unions and deduplicates members.
func foldUnion(members []*types.Type) *types.Type {
	var rest []*types.Type
	hasNone := false
	for _, m := range members {
		if m.Kind == types.KindNone {
			hasNone = true
			continue
		}
		dup := false
		for _, r := range rest {
			if types.Equal(r, m) {
				dup = true
				break
			}
		}
		if !dup {
			rest = append(rest, m)
		}
	}
	switch {
	case hasNone && len(rest) == 1:
		return types.Optional(rest[0])
	case hasNone:
		return types.Optional(types.Union(rest...))
	case len(rest) == 1:
		return rest[0]
	default:
		return types.Union(rest...)
	}
}

// mapCallable interprets Callable[[params...], ret] argument shapes.
func mapCallable(args []*types.Type) *types.Type {
	if len(args) == 0 {
		return types.Callable(nil, types.Unknown)
	}
	ret := args[len(args)-1]
	var params []*types.Type
	if len(args) > 1 {
		first := args[0]
		if first.Kind == types.KindTuple {
			params = first.Elems
		} else {
			params = args[:len(args)-1]
		}
	}
	return types.Callable(params, ret)
}
