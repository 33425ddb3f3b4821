// Package fixup rewrites emitted Rust source line by line, repairing
// cross-cutting patterns the structural code generator cannot see from
// a single expression or statement.
//
// Each pass has one documented purpose and is idempotent: running the
// pipeline over already-processed output changes nothing. Passes run
// in a fixed order with repairs ahead of heuristics, so a heuristic
// can never invalidate a repair's precondition.
package fixup

import (
	"strings"

	"depyler/internal/diag"
	"depyler/internal/source"
)

// Kind classifies the guarantee a pass carries.
type Kind uint8

const (
	// Repair passes are safe: the rewrite is correct whenever the
	// documented precondition holds, and the precondition is checked
	// before any line changes.
	Repair Kind = iota
	// Heuristic passes are best-effort. They can be disabled per file
	// with the skip_fixups directive.
	Heuristic
)

func (k Kind) String() string {
	if k == Repair {
		return "repair"
	}
	return "heuristic"
}

// Pass is a single line-level rewrite.
type Pass struct {
	Name  string
	Kind  Kind
	apply func(st *state, lines []string) bool
}

// Result carries the rewritten source, the names of the passes that
// changed it, and any diagnostics the pipeline recorded.
type Result struct {
	Src   string
	Fired []string
	Bag   *diag.Bag
}

// Passes returns the pipeline in execution order.
func Passes() []Pass {
	return []Pass{
		{Name: "option_params", Kind: Repair, apply: passOptionParams},
		{Name: "bare_return", Kind: Repair, apply: passBareReturn},
		{Name: "double_ok_wrap", Kind: Repair, apply: passDoubleOkWrap},
		{Name: "let_discard_tail", Kind: Repair, apply: passLetDiscardTail},
		{Name: "numeric_cast", Kind: Repair, apply: passNumericCast},
		{Name: "is_none_non_option", Kind: Heuristic, apply: passIsNoneNonOption},
		{Name: "option_field_assign", Kind: Heuristic, apply: passOptionFieldAssign},
		{Name: "contains_key_optional", Kind: Heuristic, apply: passContainsKeyOptional},
		{Name: "guarded_push", Kind: Heuristic, apply: passGuardedPush},
	}
}

// structural names passes that walk brace depth and must not run over
// source with unbalanced braces.
var structural = map[string]bool{
	"bare_return":  true,
	"guarded_push": true,
}

// Run executes every pass not named in skip over src and returns the
// rewritten source. A fired pass is recorded once even when it rewrites
// several lines.
func Run(src string, skip []string, maxDiagnostics int) Result {
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	res := Result{Src: src, Bag: diag.NewBag(maxDiagnostics)}
	lines := strings.Split(src, "\n")
	st := newState()

	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}
	balanced := bracesBalanced(lines)

	for _, p := range Passes() {
		if skipped[p.Name] {
			continue
		}
		if structural[p.Name] && !balanced {
			res.Bag.Add(diag.NewWarning(diag.FixPreconditionSkip, source.Span{},
				"pass "+p.Name+" skipped: unbalanced braces in emitted source"))
			continue
		}
		if p.apply(st, lines) {
			res.Fired = append(res.Fired, p.Name)
			res.Bag.Add(diag.NewInfo(diag.FixPassFired, source.Span{},
				"pass "+p.Name+" rewrote emitted source"))
		}
	}

	res.Src = strings.Join(lines, "\n")
	return res
}
