package hir

import (
	"depyler/internal/source"
	"depyler/internal/types"
)

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtAssign represents target(s) = value, including annotated assigns.
	StmtAssign StmtKind = iota
	// StmtAugAssign represents target op= value. The bridge guarantees the
	// target is evaluated exactly once at codegen for index/attribute LHS.
	StmtAugAssign
	// StmtExpr represents a bare expression statement.
	StmtExpr
	// StmtReturn represents return, with optional value.
	StmtReturn
	// StmtIf represents if/elif/else; elif chains are nested in Else.
	StmtIf
	// StmtWhile represents while with optional else.
	StmtWhile
	// StmtFor represents for ... in ... with optional else.
	StmtFor
	// StmtWith represents a scoped resource block.
	StmtWith
	// StmtTry represents try/except/else/finally.
	StmtTry
	// StmtRaise represents raise with optional exception and cause.
	StmtRaise
	// StmtAssert represents assert cond, msg.
	StmtAssert
	StmtPass
	StmtBreak
	StmtContinue
	// StmtGlobal and StmtNonlocal record scope escapes.
	StmtGlobal
	StmtNonlocal
	// StmtDel represents del targets.
	StmtDel
	// StmtFuncDef is a nested function definition.
	StmtFuncDef
	// StmtClassDef is a nested class definition.
	StmtClassDef
	// StmtYield produces one value of a generator function.
	StmtYield
)

func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtAugAssign:
		return "AugAssign"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtFor:
		return "For"
	case StmtWith:
		return "With"
	case StmtTry:
		return "Try"
	case StmtRaise:
		return "Raise"
	case StmtAssert:
		return "Assert"
	case StmtPass:
		return "Pass"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtGlobal:
		return "Global"
	case StmtNonlocal:
		return "Nonlocal"
	case StmtDel:
		return "Del"
	case StmtFuncDef:
		return "FuncDef"
	case StmtClassDef:
		return "ClassDef"
	case StmtYield:
		return "Yield"
	default:
		return "Unknown"
	}
}

// Stmt is an HIR statement.
type Stmt struct {
	ID   NodeID
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific payloads.
type StmtData interface {
	stmtData()
}

// TargetKind enumerates assignment target patterns.
type TargetKind uint8

const (
	// TargetName binds a plain name.
	TargetName TargetKind = iota
	// TargetAttr assigns to obj.attr.
	TargetAttr
	// TargetIndex assigns to obj[index].
	TargetIndex
	// TargetTuple unpacks into nested targets.
	TargetTuple
)

// Target is an assignment pattern.
type Target struct {
	Kind   TargetKind
	Name   string    // TargetName
	Object *Expr     // TargetAttr, TargetIndex
	Attr   string    // TargetAttr
	Index  *Expr     // TargetIndex
	Elems  []*Target // TargetTuple
	Span   source.Span
}

// Names returns all plain names bound by the pattern.
func (t *Target) Names() []string {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TargetName:
		return []string{t.Name}
	case TargetTuple:
		var out []string
		for _, e := range t.Elems {
			out = append(out, e.Names()...)
		}
		return out
	}
	return nil
}

// HasAttrElem reports whether a tuple pattern contains attribute targets.
// Attribute-target tuple unpacking is rejected by the bridge.
func (t *Target) HasAttrElem() bool {
	if t == nil || t.Kind != TargetTuple {
		return false
	}
	for _, e := range t.Elems {
		if e.Kind == TargetAttr || e.HasAttrElem() {
			return true
		}
	}
	return false
}

// AssignData holds data for StmtAssign.
type AssignData struct {
	Target *Target
	Value  *Expr
	Ann    *types.Type // explicit annotation, nil when absent
}

func (AssignData) stmtData() {}

// AugAssignData holds data for StmtAugAssign.
type AugAssignData struct {
	Target *Target
	Op     BinaryOp
	Value  *Expr
}

func (AugAssignData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct{ Value *Expr }

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct{ Value *Expr }

func (ReturnData) stmtData() {}

// IfData holds data for StmtIf.
type IfStmtData struct {
	Cond *Expr
	Then []*Stmt
	Else []*Stmt
}

func (IfStmtData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond   *Expr
	Body   []*Stmt
	Orelse []*Stmt
}

func (WhileData) stmtData() {}

// ForData holds data for StmtFor.
type ForData struct {
	Target *Target
	Iter   *Expr
	Body   []*Stmt
	Orelse []*Stmt
}

func (ForData) stmtData() {}

// WithItem is one acquired resource.
type WithItem struct {
	Context *Expr
	Binding *Target // nil when no "as" clause
}

// WithData holds data for StmtWith.
type WithData struct {
	Items []WithItem
	Body  []*Stmt
}

func (WithData) stmtData() {}

// ExceptHandler is one except clause.
type ExceptHandler struct {
	ExcType string // exception type name, empty for bare except
	Binding string // "as" name, empty when absent
	Body    []*Stmt
}

// TryData holds data for StmtTry.
type TryData struct {
	Body      []*Stmt
	Handlers  []ExceptHandler
	Orelse    []*Stmt
	Finalbody []*Stmt
}

func (TryData) stmtData() {}

// RaiseData holds data for StmtRaise.
type RaiseData struct {
	Exc   *Expr // nil for bare re-raise
	Cause *Expr
}

func (RaiseData) stmtData() {}

// AssertData holds data for StmtAssert.
type AssertData struct {
	Cond *Expr
	Msg  *Expr
}

func (AssertData) stmtData() {}

// ScopeNamesData holds data for StmtGlobal and StmtNonlocal.
type ScopeNamesData struct{ Names []string }

func (ScopeNamesData) stmtData() {}

// DelData holds data for StmtDel.
type DelData struct{ Targets []*Target }

func (DelData) stmtData() {}

// FuncDefData holds data for StmtFuncDef.
type FuncDefData struct{ Func *Func }

func (FuncDefData) stmtData() {}

// ClassDefData holds data for StmtClassDef.
type ClassDefData struct{ Class *Class }

func (ClassDefData) stmtData() {}

// YieldData holds data for StmtYield. From marks "yield from iter".
type YieldData struct {
	Value *Expr
	From  bool
}

func (YieldData) stmtData() {}
