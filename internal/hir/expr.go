package hir

import (
	"depyler/internal/source"
	"depyler/internal/types"
)

// ExprKind enumerates HIR expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, float, bool, str, bytes, None).
	ExprLiteral ExprKind = iota
	// ExprVar represents a variable reference.
	ExprVar
	// ExprAttribute represents attribute access (expr.attr).
	ExprAttribute
	// ExprIndex represents subscripting (expr[index]).
	ExprIndex
	// ExprSlice represents slicing (expr[lo:hi:step]).
	ExprSlice
	// ExprUnary represents unary operators (-, not, ~).
	ExprUnary
	// ExprBinary represents binary and comparison operators.
	// Chained comparisons are desugared by the bridge into ExprBool chains.
	ExprBinary
	// ExprBool represents short-circuit and/or over two or more operands.
	ExprBool
	// ExprCall represents a free or module-qualified call.
	ExprCall
	// ExprMethodCall represents receiver.method(args).
	ExprMethodCall
	// ExprList, ExprTuple, ExprSet, ExprDict are collection displays.
	ExprList
	ExprTuple
	ExprSet
	ExprDict
	// ExprComp represents list/set/dict/generator comprehensions.
	ExprComp
	// ExprFString represents an f-string as a list of parts.
	ExprFString
	// ExprLambda represents a lambda expression.
	ExprLambda
	// ExprIf represents a conditional (ternary) expression.
	ExprIf
	// ExprNamed represents a walrus assignment expression.
	ExprNamed
	// ExprStarred represents *expr unpacking in call or display position.
	ExprStarred
	// ExprDoubleStarred represents **expr unpacking.
	ExprDoubleStarred
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVar:
		return "Var"
	case ExprAttribute:
		return "Attribute"
	case ExprIndex:
		return "Index"
	case ExprSlice:
		return "Slice"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprBool:
		return "Bool"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprList:
		return "List"
	case ExprTuple:
		return "Tuple"
	case ExprSet:
		return "Set"
	case ExprDict:
		return "Dict"
	case ExprComp:
		return "Comp"
	case ExprFString:
		return "FString"
	case ExprLambda:
		return "Lambda"
	case ExprIf:
		return "If"
	case ExprNamed:
		return "Named"
	case ExprStarred:
		return "Starred"
	case ExprDoubleStarred:
		return "DoubleStarred"
	default:
		return "Unknown"
	}
}

// Expr is an HIR expression. Type starts as Unknown or a fresh unification
// variable and is filled by inference; structure never changes after the
// bridge.
type Expr struct {
	ID   NodeID
	Kind ExprKind
	Span source.Span
	Type *types.Type
	Data ExprData
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitStr
	LitBytes
	LitNone
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind  LiteralKind
	Text  string // raw literal text for numeric literals
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Bytes []byte
}

func (LiteralData) exprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// AttributeData holds data for ExprAttribute.
type AttributeData struct {
	Object *Expr
	Attr   string
}

func (AttributeData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// SliceData holds data for ExprSlice. Any bound may be nil.
type SliceData struct {
	Object *Expr
	Lower  *Expr
	Upper  *Expr
	Step   *Expr
}

func (SliceData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota // -x
	UnaryPos                // +x
	UnaryNot                // not x
	UnaryInvert             // ~x
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryPos:
		return "+"
	case UnaryNot:
		return "not"
	case UnaryInvert:
		return "~"
	default:
		return "?"
	}
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryOp enumerates binary and comparison operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv      // true division
	OpFloorDiv // //
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpBitOr
	OpBitXor
	OpBitAnd
	OpEq
	OpNotEq
	OpLt
	OpLtE
	OpGt
	OpGtE
	OpIn
	OpNotIn
	OpIs
	OpIsNot
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpFloorDiv:
		return "//"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	case OpLShift:
		return "<<"
	case OpRShift:
		return ">>"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpBitAnd:
		return "&"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpLtE:
		return "<="
	case OpGt:
		return ">"
	case OpGtE:
		return ">="
	case OpIn:
		return "in"
	case OpNotIn:
		return "not in"
	case OpIs:
		return "is"
	case OpIsNot:
		return "is not"
	default:
		return "?"
	}
}

// IsComparison reports whether the operator yields bool.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// BoolOp enumerates short-circuit operators.
type BoolOp uint8

const (
	BoolAnd BoolOp = iota
	BoolOr
)

func (op BoolOp) String() string {
	if op == BoolAnd {
		return "and"
	}
	return "or"
}

// BoolData holds data for ExprBool.
type BoolData struct {
	Op     BoolOp
	Values []*Expr
}

func (BoolData) exprData() {}

// Keyword is a keyword argument at a call site.
type Keyword struct {
	Name  string // empty for **kwargs spread
	Value *Expr
}

// CallData holds data for ExprCall. Module is non-empty for calls resolved
// through a module-qualified name (math.sqrt → Module "math", Name "sqrt").
type CallData struct {
	Module   string
	Name     string
	Func     *Expr // non-nil when the callee is a computed expression
	Args     []*Expr
	Keywords []Keyword
}

func (CallData) exprData() {}

// MethodCallData holds data for ExprMethodCall.
type MethodCallData struct {
	Receiver *Expr
	Method   string
	Args     []*Expr
	Keywords []Keyword
}

func (MethodCallData) exprData() {}

// ListData, TupleData, SetData hold display elements.
type ListData struct{ Elems []*Expr }

func (ListData) exprData() {}

type TupleData struct{ Elems []*Expr }

func (TupleData) exprData() {}

type SetData struct{ Elems []*Expr }

func (SetData) exprData() {}

// DictItem is one key/value pair; Key nil marks a **spread item.
type DictItem struct {
	Key   *Expr
	Value *Expr
}

// DictData holds data for ExprDict.
type DictData struct{ Items []DictItem }

func (DictData) exprData() {}

// CompKind distinguishes comprehension flavors.
type CompKind uint8

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

func (k CompKind) String() string {
	switch k {
	case CompList:
		return "list"
	case CompSet:
		return "set"
	case CompDict:
		return "dict"
	default:
		return "generator"
	}
}

// CompClause is one "for target in iter if cond..." clause.
type CompClause struct {
	Target *Target
	Iter   *Expr
	Ifs    []*Expr
}

// CompData holds data for ExprComp. Value is the dict value for CompDict.
type CompData struct {
	Kind    CompKind
	Elt     *Expr
	Value   *Expr
	Clauses []CompClause
}

func (CompData) exprData() {}

// FStringPart is a literal chunk or a formatted expression.
type FStringPart struct {
	Literal string
	Expr    *Expr  // nil for literal chunks
	Spec    string // format spec, e.g. ".2f"
	Conv    rune   // conversion: 'r', 's', 'a' or 0
}

// FStringData holds data for ExprFString.
type FStringData struct{ Parts []FStringPart }

func (FStringData) exprData() {}

// LambdaData holds data for ExprLambda.
type LambdaData struct {
	Params []Param
	Body   *Expr
}

func (LambdaData) exprData() {}

// IfData holds data for ExprIf (ternary).
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

// NamedData holds data for ExprNamed (walrus).
type NamedData struct {
	Name  string
	Value *Expr
}

func (NamedData) exprData() {}

// StarredData holds data for ExprStarred and ExprDoubleStarred.
type StarredData struct{ Value *Expr }

func (StarredData) exprData() {}
