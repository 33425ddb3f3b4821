// Package pyast models the Python surface AST as produced by the external
// parser: CPython's ast module serialized to JSON, one object per node with
// a "_type" discriminator and the standard field names.
//
// The pipeline core never parses Python text itself; it consumes this tree.
package pyast

import (
	"encoding/json"
	"fmt"
)

// Node is a single Python AST node. The struct is deliberately wide: the
// JSON format reuses field names across node kinds, so one shape covers the
// whole grammar. Slots whose JSON type varies by node kind (value, args,
// names) stay raw and are decoded on demand.
type Node struct {
	Type string `json:"_type"`

	// Position (1-based line, 0-based column, as CPython reports them).
	Lineno       uint32 `json:"lineno"`
	ColOffset    uint32 `json:"col_offset"`
	EndLineno    uint32 `json:"end_lineno"`
	EndColOffset uint32 `json:"end_col_offset"`

	// Bodies. The dump script wraps the scalar body/orelse of IfExp and
	// Lambda into one-element arrays so these slots keep a single shape.
	Body      []*Node `json:"body"`
	Orelse    []*Node `json:"orelse"`
	Finalbody []*Node `json:"finalbody"`
	Handlers  []*Node `json:"handlers"`

	// Assignment / binding.
	Targets    []*Node `json:"targets"`
	Target     *Node   `json:"target"`
	Annotation *Node   `json:"annotation"`

	// Polymorphic slots: a node for most kinds, a primitive for Constant,
	// an array for Call.args vs an object for FunctionDef.args, an array
	// of alias nodes for Import vs an array of strings for Global.
	Value json.RawMessage `json:"value"`
	Args  json.RawMessage `json:"args"`
	Names json.RawMessage `json:"names"`

	// Expressions.
	Left        *Node   `json:"left"`
	Right       *Node   `json:"right"`
	Op          *Node   `json:"op"`
	Ops         []*Node `json:"ops"`
	Comparators []*Node `json:"comparators"`
	Operand     *Node   `json:"operand"`
	Values      []*Node `json:"values"`
	Keys        []*Node `json:"keys"`
	Elts        []*Node `json:"elts"`
	Elt         *Node   `json:"elt"`
	Key         *Node   `json:"key"`
	Generators  []*Node `json:"generators"`
	Func        *Node   `json:"func"`
	Keywords    []*Node `json:"keywords"`
	Slice       *Node   `json:"slice"`
	Lower       *Node   `json:"lower"`
	Upper       *Node   `json:"upper"`
	Step        *Node   `json:"step"`
	Test        *Node   `json:"test"`
	Ifs         []*Node `json:"ifs"`
	Iter        *Node   `json:"iter"`
	IsAsync     int     `json:"is_async"`
	FormatSpec  *Node   `json:"format_spec"`
	Conversion  int     `json:"conversion"`

	// Statements.
	ExcType *Node `json:"type"` // ExceptHandler exception class

	Exc   *Node   `json:"exc"`
	Cause *Node   `json:"cause"`
	Msg   *Node   `json:"msg"`
	Items []*Node `json:"items"` // withitem list

	// Functions and classes.
	Name          string  `json:"name"`
	Returns       *Node   `json:"returns"`
	DecoratorList []*Node `json:"decorator_list"`
	Bases         []*Node `json:"bases"`

	// arguments node payload.
	Posonlyargs []*Node `json:"posonlyargs"`
	Defaults    []*Node `json:"defaults"`
	KwDefaults  []*Node `json:"kw_defaults"`
	Kwonlyargs  []*Node `json:"kwonlyargs"`
	Vararg      *Node   `json:"vararg"`
	Kwarg       *Node   `json:"kwarg"`

	// Leaves.
	ID     string `json:"id"`     // Name
	Attr   string `json:"attr"`   // Attribute
	Arg    string `json:"arg"`    // arg, keyword
	Module string `json:"module"` // ImportFrom
	Asname string `json:"asname"` // alias
	Level  int    `json:"level"`  // ImportFrom relative level

	// withitem payload.
	ContextExpr  *Node `json:"context_expr"`
	OptionalVars *Node `json:"optional_vars"`
}

// Parse decodes a serialized module and checks the root discriminator.
func Parse(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode python ast: %w", err)
	}
	if n.Type != "Module" {
		return nil, fmt.Errorf("decode python ast: root is %q, want Module", n.Type)
	}
	return &n, nil
}

// ValueNode decodes the polymorphic value slot as a child node.
// Returns nil for absent or null values and for Constant primitives.
func (n *Node) ValueNode() *Node {
	if len(n.Value) == 0 || string(n.Value) == "null" {
		return nil
	}
	if n.Value[0] != '{' {
		return nil
	}
	var child Node
	if err := json.Unmarshal(n.Value, &child); err != nil {
		return nil
	}
	return &child
}

// ConstKind classifies a Constant node's payload.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstStr
	ConstBytes
)

// Const holds the decoded payload of a Constant node.
type Const struct {
	Kind  ConstKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Text  string // raw numeric literal text
}

// Constant decodes the value slot of a Constant node.
func (n *Node) Constant() (Const, error) {
	raw := n.Value
	if len(raw) == 0 || string(raw) == "null" {
		return Const{Kind: ConstNone}, nil
	}
	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstBool, Bool: b}, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstStr, Str: s}, nil
	case '{':
		// Bytes are wrapped by the dump script as {"_type":"bytes","data":"<base64>"}.
		var bw struct {
			Type string `json:"_type"`
			Data []byte `json:"data"`
		}
		if err := json.Unmarshal(raw, &bw); err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstBytes, Bytes: bw.Data}, nil
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return Const{}, err
		}
		text := num.String()
		if isIntLiteral(text) {
			i, err := num.Int64()
			if err != nil {
				return Const{}, err
			}
			return Const{Kind: ConstInt, Int: i, Text: text}, nil
		}
		f, err := num.Float64()
		if err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstFloat, Float: f, Text: text}, nil
	}
}

func isIntLiteral(text string) bool {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', 'e', 'E':
			return false
		}
	}
	return true
}

// CallArgs decodes the args slot of a Call node (an array of expressions).
func (n *Node) CallArgs() []*Node {
	if len(n.Args) == 0 || n.Args[0] != '[' {
		return nil
	}
	var out []*Node
	if err := json.Unmarshal(n.Args, &out); err != nil {
		return nil
	}
	return out
}

// ArgList decodes the args slot of an "arguments" node (an array of arg
// nodes). Shares the array decoding with CallArgs.
func (n *Node) ArgList() []*Node {
	return n.CallArgs()
}

// Arguments decodes the args slot of a FunctionDef/Lambda node
// (an "arguments" object).
func (n *Node) Arguments() *Node {
	if len(n.Args) == 0 || n.Args[0] != '{' {
		return nil
	}
	var out Node
	if err := json.Unmarshal(n.Args, &out); err != nil {
		return nil
	}
	return &out
}

// Aliases decodes the names slot of Import/ImportFrom (alias nodes).
func (n *Node) Aliases() []*Node {
	if len(n.Names) == 0 || n.Names[0] != '[' {
		return nil
	}
	var out []*Node
	if err := json.Unmarshal(n.Names, &out); err != nil {
		return nil
	}
	return out
}

// NameStrings decodes the names slot of Global/Nonlocal (plain strings).
func (n *Node) NameStrings() []string {
	if len(n.Names) == 0 || n.Names[0] != '[' {
		return nil
	}
	var out []string
	if err := json.Unmarshal(n.Names, &out); err != nil {
		return nil
	}
	return out
}
