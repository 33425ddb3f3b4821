package assemble

import (
	"strings"
	"testing"

	"depyler/internal/codegen"
	"depyler/internal/diag"
	"depyler/internal/source"
)

func TestSourceHeaderAndUseClosure(t *testing.T) {
	ctx := codegen.NewContext(false)
	ctx.Needs.HashMap = true
	ctx.Needs.HashSet = true
	ctx.AddImport("std::fmt::Write")
	out := &codegen.Output{
		Ctx: ctx,
		Items: []codegen.Item{
			{Kind: codegen.ItemFunc, Name: "main", Src: "pub fn main() {\n}\n"},
		},
	}
	src := Source(out, "tool.py")
	if !strings.HasPrefix(src, "// Transpiled from tool.py by depyler.\n") {
		t.Errorf("missing provenance header:\n%s", src)
	}
	for _, want := range []string{
		"use std::collections::HashMap;",
		"use std::collections::HashSet;",
		"use std::fmt::Write;",
		"pub fn main() {",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
	if strings.Contains(src, "use std::sync::Arc;") {
		t.Errorf("unfired need promoted to a use line:\n%s", src)
	}
}

func TestManifestFromNeeds(t *testing.T) {
	ctx := codegen.NewContext(false)
	ctx.Needs.SerdeJSON = true
	ctx.Needs.Regex = true
	manifest, err := Manifest(ctx.CrateDeps(), "My Tool.py", "")
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	for _, want := range []string{
		`name = "my_tool"`,
		`version = "0.1.0"`,
		`edition = "2021"`,
		`regex = "1"`,
		`serde_json = "1"`,
		"[dependencies.serde]",
		`features = ["derive"]`,
	} {
		if !strings.Contains(manifest, want) {
			t.Errorf("missing %q in manifest:\n%s", want, manifest)
		}
	}
}

func TestManifestWithoutDependencies(t *testing.T) {
	manifest, err := Manifest(nil, "plain", "1.2.3")
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if strings.Contains(manifest, "[dependencies") {
		t.Errorf("empty dependency table emitted:\n%s", manifest)
	}
	if !strings.Contains(manifest, `version = "1.2.3"`) {
		t.Errorf("package version dropped:\n%s", manifest)
	}
}

func TestManifestRejectsBadVersions(t *testing.T) {
	if _, err := Manifest(nil, "x", "not-a-version"); err == nil {
		t.Error("bad package version accepted")
	}
	deps := []codegen.CrateDep{{Name: "regex", Version: "??"}}
	if _, err := Manifest(deps, "x", "0.1.0"); err == nil {
		t.Error("bad crate constraint accepted")
	}
}

func TestMergeDepsKeepsHigherMinimum(t *testing.T) {
	deps := []codegen.CrateDep{
		{Name: "serde", Version: "1", Features: []string{"derive"}},
		{Name: "serde", Version: "1.0.100", Features: []string{"rc"}},
	}
	merged, err := mergeDeps(deps)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("got %d entries, want 1", len(merged))
	}
	if merged[0].Version != "1.0.100" {
		t.Errorf("version = %q, want 1.0.100", merged[0].Version)
	}
	if len(merged[0].Features) != 2 {
		t.Errorf("features = %v, want derive+rc", merged[0].Features)
	}
}

func TestReportSections(t *testing.T) {
	ctx := codegen.NewContext(false)
	ctx.Fallback("re.match emitted as an unanchored search")
	diags := []diag.Diagnostic{
		diag.NewInfo(diag.InferUnresolvedType, source.Span{}, "parameter x stays dynamic"),
		diag.NewInfo(diag.GenInfo, source.Span{}, "unrelated"),
	}
	rep := Report("tool.py", ctx, diags, []string{"bare_return"})
	for _, want := range []string{
		"depyler report for tool.py",
		"parameter x stays dynamic",
		"re.match emitted as an unanchored search",
		"- bare_return",
	} {
		if !strings.Contains(rep, want) {
			t.Errorf("missing %q in report:\n%s", want, rep)
		}
	}
	if strings.Contains(rep, "unrelated") {
		t.Errorf("unrelated diagnostic leaked into report:\n%s", rep)
	}
	empty := Report("tool.py", codegen.NewContext(false), nil, nil)
	if strings.Count(empty, "(none)") != 3 {
		t.Errorf("empty sections not marked:\n%s", empty)
	}
}
