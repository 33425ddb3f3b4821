// Package driver runs the transpile pipeline end to end: external parse,
// lowering, inference, ownership, codegen, fix-up, assembly. The core
// packages are pure; everything that touches the OS (the Python parser
// process, the disk cache, the file system, watch mode) lives here.
package driver

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"depyler/internal/assemble"
	"depyler/internal/codegen"
	"depyler/internal/config"
	"depyler/internal/diag"
	"depyler/internal/directive"
	"depyler/internal/fixup"
	"depyler/internal/hir"
	"depyler/internal/infer"
	"depyler/internal/pyast"
	"depyler/internal/source"
)

// Sentinel errors classifying pipeline failures for exit-code mapping.
var (
	ErrUserInput    = errors.New("user input error")
	ErrInternal     = errors.New("internal error")
	ErrVerification = errors.New("verification failed")
)

// Artifact is everything one transpiled module produces.
type Artifact struct {
	SourceName string // input file name, e.g. "tool.py"
	ModuleName string // module identifier derived from SourceName
	Rust       string // emitted Rust source after fix-ups
	Manifest   string // Cargo.toml text
	Report     string // companion report text
	Fired      []string
	Diags      []diag.Diagnostic
	FromCache  bool

	// FileSet resolves diagnostic spans for rendering.
	FileSet *source.FileSet
}

// HasErrors reports whether any stage recorded an error-severity finding.
func (a *Artifact) HasErrors() bool {
	for _, d := range a.Diags {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

// Options tunes one pipeline invocation beyond the Config.
type Options struct {
	// Observer receives phase boundary events when non-nil.
	Observer PhaseObserver
	// Timings appends an info diagnostic with per-phase durations.
	Timings bool
	// PackageName and PackageVersion override the Cargo manifest
	// identity; empty values derive from the source name.
	PackageName    string
	PackageVersion string
}

// Transpile runs the pure pipeline on an already-parsed AST dump.
// pySrc is the original Python text (scanned for directive comments);
// astJSON is the external parser's output for the same text.
func Transpile(name string, pySrc, astJSON []byte, cfg config.Config) (*Artifact, error) {
	return TranspileWithOptions(name, pySrc, astJSON, cfg, Options{})
}

// TranspileWithOptions is Transpile with phase observation and manifest
// identity control.
func TranspileWithOptions(name string, pySrc, astJSON []byte, cfg config.Config, opts Options) (*Artifact, error) {
	if cfg.MaxDiagnostics <= 0 {
		cfg.MaxDiagnostics = config.Default().MaxDiagnostics
	}
	tm := newTimings(opts.Observer)
	art := &Artifact{
		SourceName: name,
		ModuleName: moduleName(name),
	}

	fs := source.NewFileSet()
	fileID := fs.AddVirtual(name, pySrc)
	art.FileSet = fs

	tm.start("parse")
	root, err := pyast.Parse(astJSON)
	tm.end("parse")
	if err != nil {
		art.Diags = append(art.Diags, diag.NewError(diag.DrvParserFailure, source.Span{}, err.Error()))
		return art, fmt.Errorf("%w: %v", ErrUserInput, err)
	}

	reg := directive.CollectFromSource(string(pySrc))
	unknown := reg.UnknownKeys()
	for _, item := range sortedKeys(unknown) {
		for _, key := range unknown[item] {
			art.Diags = append(art.Diags, diag.NewWarning(diag.DrvBadDirective, source.Span{},
				fmt.Sprintf("unrecognized directive key %q on %s", key, item)))
		}
	}

	tm.start("lower")
	mod, bag, err := hir.Lower(root, art.ModuleName, fileID, fs, reg, cfg.MaxDiagnostics)
	tm.end("lower")
	art.Diags = append(art.Diags, bag.Items()...)
	if err != nil {
		return art, fmt.Errorf("lower %s: %w", name, err)
	}

	tm.start("infer")
	art.Diags = append(art.Diags, infer.Run(mod, cfg.MaxDiagnostics).Items()...)
	tm.end("infer")

	tm.start("ownership")
	plans, ownBag := hir.AnalyzeOwnership(mod, cfg.MaxDiagnostics)
	tm.end("ownership")
	art.Diags = append(art.Diags, ownBag.Items()...)

	tm.start("emit")
	out := codegen.EmitModule(mod, plans, cfg)
	tm.end("emit")
	art.Diags = append(art.Diags, out.Bag.Items()...)
	if hasCode(out.Bag.Items(), diag.GenConstraintViolation) {
		return art, fmt.Errorf("emit %s: %w: unsatisfiable structural constraint", name, ErrUserInput)
	}

	tm.start("fixup")
	fx := fixup.Run(assemble.Source(out, name), skipList(reg), cfg.MaxDiagnostics)
	tm.end("fixup")
	art.Rust = fx.Src
	art.Fired = fx.Fired
	art.Diags = append(art.Diags, fx.Bag.Items()...)

	tm.start("assemble")
	pkg := opts.PackageName
	if pkg == "" {
		pkg = name
	}
	manifest, err := assemble.Manifest(out.Ctx.CrateDeps(), pkg, opts.PackageVersion)
	if err != nil {
		tm.end("assemble")
		return art, fmt.Errorf("manifest for %s: %w: %v", name, ErrInternal, err)
	}
	art.Manifest = manifest
	art.Report = assemble.Report(name, out.Ctx, art.Diags, art.Fired)
	tm.end("assemble")

	if opts.Timings {
		art.Diags = append(art.Diags, tm.diagnostic(name))
	}

	if failures := VerifyArtifact(cfg.VerificationLevel, art); len(failures) > 0 {
		return art, fmt.Errorf("verify %s: %w: %s", name, ErrVerification, strings.Join(failures, "; "))
	}
	if cfg.StrictMode && art.HasErrors() {
		return art, fmt.Errorf("%s: %w: diagnostics present in strict mode", name, ErrUserInput)
	}
	return art, nil
}

// ExitCode maps a pipeline error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrVerification):
		return 3
	case errors.Is(err, ErrUserInput), errors.Is(err, hir.ErrUnsupported):
		return 1
	default:
		return 2
	}
}

func moduleName(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimSuffix(base, ".py")
}

// skipList flattens the directive registry's skip set into the
// deterministic order the fix-up runner expects.
func skipList(reg *directive.Registry) []string {
	set := reg.SkippedFixups()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func hasCode(items []diag.Diagnostic, code diag.Code) bool {
	for _, d := range items {
		if d.Code == code {
			return true
		}
	}
	return false
}
