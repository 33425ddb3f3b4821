// Package assemble turns emitted items into deliverable artifacts: the
// Rust source file with its use-declaration header, the Cargo.toml
// manifest derived from the fired needs flags, and the companion report
// summarizing what the pipeline could not translate faithfully.
package assemble

import (
	"strings"

	"depyler/internal/codegen"
)

// Source renders the complete Rust file: a provenance comment, the
// use-declaration closure of the fired needs flags, then every emitted
// item in order. Support items (the dynamic value carrier) already lead
// the item list.
func Source(out *codegen.Output, sourceName string) string {
	var b strings.Builder
	b.WriteString("// Transpiled from ")
	b.WriteString(sourceName)
	b.WriteString(" by depyler.\n")

	uses := UseLines(out.Ctx)
	if len(uses) > 0 {
		b.WriteByte('\n')
		for _, u := range uses {
			b.WriteString(u)
			b.WriteByte('\n')
		}
	}
	for _, it := range out.Items {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(it.Src, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}

// UseLines promotes needs flags and handler-requested paths into
// use-declarations. Crate-backed flags contribute nothing here: the
// dispatch tables emit those paths fully qualified so a partially
// translated file stays compilable without its manifest.
func UseLines(ctx *codegen.Context) []string {
	var paths []string
	if ctx.Needs.HashMap {
		paths = append(paths, "std::collections::HashMap")
	}
	if ctx.Needs.HashSet {
		paths = append(paths, "std::collections::HashSet")
	}
	if ctx.Needs.Arc {
		paths = append(paths, "std::sync::Arc")
	}
	paths = append(paths, ctx.Imports()...)

	seen := make(map[string]bool, len(paths))
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		lines = append(lines, "use "+p+";")
	}
	return lines
}
