package assemble

import (
	"fmt"
	"strings"

	"depyler/internal/codegen"
	"depyler/internal/diag"
)

// Report renders the companion summary written next to the Rust output:
// types inference could not resolve, documented fallback decisions, and
// the fix-up passes that rewrote the emitted source.
func Report(sourceName string, ctx *codegen.Context, diags []diag.Diagnostic, firedFixups []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "depyler report for %s\n", sourceName)

	section(&b, "unresolved types", unresolved(diags))
	section(&b, "fallback decisions", ctx.FallbackDecisions)
	section(&b, "fix-up passes fired", firedFixups)
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}

func unresolved(diags []diag.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		switch d.Code {
		case diag.InferUnresolvedType, diag.InferDynamicFallback, diag.GenDynamicCarrier:
			out = append(out, d.Message)
		}
	}
	return out
}
