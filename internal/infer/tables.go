package infer

import "depyler/internal/types"

// methodReturn looks up the result type of a method call on a receiver of
// a known kind. The table covers the standard-library surface the code
// generator can dispatch; everything else stays unresolved.
func methodReturn(recv *types.Type, name string) (*types.Type, bool) {
	if recv == nil {
		return nil, false
	}
	switch recv.Kind {
	case types.KindStr:
		return strMethod(name)
	case types.KindBytes:
		if name == "decode" {
			return types.Str, true
		}
		return nil, false
	case types.KindList:
		return listMethod(recv, name)
	case types.KindDict:
		return dictMethod(recv, name)
	case types.KindSet:
		return setMethod(recv, name)
	case types.KindOptional:
		// Methods reach through the wrapper; the fix-up pipeline inserts
		// the unwrap the borrow of the inner value needs.
		return methodReturn(recv.Elem(), name)
	default:
		return nil, false
	}
}

func strMethod(name string) (*types.Type, bool) {
	switch name {
	case "upper", "lower", "strip", "lstrip", "rstrip", "title",
		"capitalize", "replace", "join", "format", "zfill", "ljust", "rjust":
		return types.Str, true
	case "split", "rsplit", "splitlines":
		return types.List(types.Str), true
	case "startswith", "endswith", "isdigit", "isalpha", "isalnum",
		"islower", "isupper", "isspace":
		return types.Bool, true
	case "find", "rfind", "index", "count":
		return types.Int, true
	case "encode":
		return types.Bytes, true
	default:
		return nil, false
	}
}

func listMethod(recv *types.Type, name string) (*types.Type, bool) {
	switch name {
	case "append", "extend", "insert", "sort", "reverse", "clear", "remove":
		return types.None, true
	case "pop":
		return recv.Elem(), true
	case "index", "count":
		return types.Int, true
	case "copy":
		return recv, true
	default:
		return nil, false
	}
}

func dictMethod(recv *types.Type, name string) (*types.Type, bool) {
	switch name {
	case "get":
		return types.Optional(recv.Value()), true
	case "keys":
		return types.List(recv.Key()), true
	case "values":
		return types.List(recv.Value()), true
	case "items":
		return types.List(types.Tuple(recv.Key(), recv.Value())), true
	case "pop", "setdefault":
		return recv.Value(), true
	case "update", "clear":
		return types.None, true
	case "copy":
		return recv, true
	default:
		return nil, false
	}
}

func setMethod(recv *types.Type, name string) (*types.Type, bool) {
	switch name {
	case "add", "discard", "remove", "clear", "update":
		return types.None, true
	case "pop":
		return recv.Elem(), true
	case "union", "intersection", "difference", "symmetric_difference", "copy":
		return recv, true
	case "issubset", "issuperset", "isdisjoint":
		return types.Bool, true
	default:
		return nil, false
	}
}

// builtinReturn resolves a free builtin call given its argument types.
func builtinReturn(name string, args []*types.Type) (*types.Type, bool) {
	arg := func(i int) *types.Type {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch name {
	case "len", "ord", "id", "hash":
		return types.Int, true
	case "range":
		return types.List(types.Int), true
	case "abs":
		if a := arg(0); a != nil && a.IsNumeric() {
			return a, true
		}
		return types.Int, true
	case "round":
		if len(args) >= 2 {
			return types.Float, true
		}
		return types.Int, true
	case "min", "max":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return e, true
			}
			return a, true
		}
		return nil, false
	case "sum":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil && e.IsNumeric() {
				return e, true
			}
		}
		return types.Int, true
	case "sorted":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return types.List(e), true
			}
		}
		return nil, false
	case "reversed":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return types.List(e), true
			}
		}
		return nil, false
	case "enumerate":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return types.List(types.Tuple(types.Int, e)), true
			}
		}
		return nil, false
	case "zip":
		if len(args) == 2 {
			ea, eb := elemOf(args[0]), elemOf(args[1])
			if ea != nil && eb != nil {
				return types.List(types.Tuple(ea, eb)), true
			}
		}
		return nil, false
	case "print":
		return types.None, true
	case "str", "repr", "chr", "input", "format", "hex", "oct", "bin":
		return types.Str, true
	case "int":
		return types.Int, true
	case "float":
		return types.Float, true
	case "bool", "isinstance", "issubclass", "any", "all", "callable", "hasattr":
		return types.Bool, true
	case "bytes", "bytearray":
		return types.Bytes, true
	case "list":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return types.List(e), true
			}
		}
		return types.List(types.Unknown), true
	case "set":
		if a := arg(0); a != nil {
			if e := elemOf(a); e != nil {
				return types.Set(e), true
			}
		}
		return types.Set(types.Unknown), true
	case "dict":
		return types.Dict(types.Unknown, types.Unknown), true
	case "tuple":
		return nil, false
	default:
		return nil, false
	}
}

// moduleReturn resolves a module-qualified call (math.sqrt, os.getcwd).
func moduleReturn(module, name string) (*types.Type, bool) {
	switch module {
	case "math":
		switch name {
		case "floor", "ceil", "factorial", "gcd", "comb", "perm", "isqrt":
			return types.Int, true
		case "isnan", "isinf", "isfinite", "isclose":
			return types.Bool, true
		default:
			return types.Float, true
		}
	case "os":
		switch name {
		case "getcwd", "getenv":
			return types.Str, true
		case "listdir":
			return types.List(types.Str), true
		case "getpid":
			return types.Int, true
		}
	case "os.path":
		switch name {
		case "join", "basename", "dirname", "abspath", "splitext":
			return types.Str, true
		case "exists", "isfile", "isdir":
			return types.Bool, true
		case "getsize":
			return types.Int, true
		}
	case "random":
		switch name {
		case "random", "uniform", "gauss":
			return types.Float, true
		case "randint", "randrange":
			return types.Int, true
		}
	case "json":
		switch name {
		case "dumps":
			return types.Str, true
		case "loads":
			return types.Unknown, true
		}
	case "re":
		switch name {
		case "findall":
			return types.List(types.Str), true
		case "sub", "escape":
			return types.Str, true
		case "match", "search", "fullmatch":
			return types.Optional(types.Custom("Match")), true
		}
	case "time":
		switch name {
		case "time", "monotonic", "perf_counter":
			return types.Float, true
		case "sleep":
			return types.None, true
		}
	case "sys":
		if name == "exit" {
			return types.None, true
		}
	}
	return nil, false
}

// elemOf gives the element type an iteration over t produces.
func elemOf(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.KindList, types.KindSet:
		return t.Elem()
	case types.KindDict:
		return t.Key()
	case types.KindStr:
		return types.Str
	case types.KindBytes:
		return types.Int
	case types.KindTuple:
		var joined *types.Type
		for _, e := range t.Elems {
			if joined == nil {
				joined = e
				continue
			}
			joined = types.Join(joined, e)
			if joined == nil {
				return types.Unknown
			}
		}
		return joined
	case types.KindUnknown:
		return types.Unknown
	default:
		return nil
	}
}

// moduleAttr resolves a module-level constant (math.pi, sys.maxsize) to its
// type. The entries mirror the code generator's attribute dispatch table.
func moduleAttr(module, attr string) (*types.Type, bool) {
	switch module {
	case "math":
		switch attr {
		case "pi", "e", "tau", "inf", "nan":
			return types.Float, true
		}
	case "sys":
		switch attr {
		case "platform":
			return types.Str, true
		case "maxsize":
			return types.Int, true
		case "argv":
			return types.List(types.Str), true
		}
	case "string":
		switch attr {
		case "ascii_lowercase", "ascii_uppercase", "ascii_letters", "digits":
			return types.Str, true
		}
	}
	return nil, false
}
