package hir

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/pyast"
	"depyler/internal/source"
	"depyler/internal/types"
)

// ErrUnsupported is returned when the module uses constructs outside the
// supported subset. The pipeline stops after the bridge in that case.
var ErrUnsupported = errors.New("unsupported construct")

// Lower builds a Module from a surface Python AST. Diagnostics are
// collected into the returned bag; the error is non-nil only when an
// unsupported construct makes the module untranslatable.
func Lower(
	root *pyast.Node,
	name string,
	fileID source.FileID,
	fs *source.FileSet,
	reg *directive.Registry,
	maxDiag int,
) (*Module, *diag.Bag, error) {
	l := &lowerer{
		fs:       fs,
		fileID:   fileID,
		bag:      diag.NewBag(maxDiag),
		reg:      reg,
		module:   NewModule(name),
		aliases:  make(map[string]string),
		nextNode: 1,
		nextFn:   1,
	}

	l.lowerModule(root)
	l.module.NextVar = l.nextVar + 1

	if l.failed {
		return nil, l.bag, ErrUnsupported
	}
	return l.module, l.bag, nil
}

// lowerer holds context for the lowering pass.
type lowerer struct {
	fs     *source.FileSet
	fileID source.FileID
	bag    *diag.Bag
	reg    *directive.Registry
	module *Module

	// aliases maps local names to the source modules they import
	// (nprefix -> numpy); consulted when classifying qualified calls.
	aliases map[string]string

	cur      *Func // function whose Locals are being recorded
	nextNode NodeID
	nextVar  types.VarID
	nextFn   FuncID
	failed   bool
}

func (l *lowerer) id() NodeID {
	id := l.nextNode
	l.nextNode++
	return id
}

func (l *lowerer) freshVar() *types.Type {
	l.nextVar++
	return types.Var(l.nextVar)
}

func (l *lowerer) span(n *pyast.Node) source.Span {
	if n == nil || n.Lineno == 0 {
		return source.Span{File: l.fileID}
	}
	end := source.LineCol{Line: n.EndLineno, Col: n.EndColOffset}
	if end.Line == 0 {
		end = source.LineCol{Line: n.Lineno, Col: n.ColOffset + 1}
	}
	return l.fs.SpanFromLineCol(l.fileID,
		source.LineCol{Line: n.Lineno, Col: n.ColOffset}, end)
}

// ident normalizes an identifier the way CPython does (NFKC).
func ident(name string) string {
	return norm.NFKC.String(name)
}

func (l *lowerer) errorf(n *pyast.Node, code diag.Code, format string, args ...any) {
	l.bag.Add(diag.NewError(code, l.span(n), fmt.Sprintf(format, args...)))
	l.failed = true
}

func (l *lowerer) warnf(n *pyast.Node, code diag.Code, format string, args ...any) {
	l.bag.Add(diag.NewWarning(code, l.span(n), fmt.Sprintf(format, args...)))
}

// unsupported reports a construct outside the supported subset.
func (l *lowerer) unsupported(n *pyast.Node, what string) {
	l.errorf(n, diag.BridgeUnsupportedConstruct, "%s is outside the supported subset", what)
}

// recordDef notes a binding site for a local in the current function.
// A second definition marks the binding mutable; codegen reads this to
// choose let vs let mut.
func (l *lowerer) recordDef(name string, site NodeID) {
	if l.cur == nil {
		return
	}
	li := l.cur.Local(name)
	if len(li.DefSites) > 0 || li.IsParam {
		li.Mutated = true
	}
	li.DefSites = append(li.DefSites, site)
}
