// Package codegen materializes HIR into Rust surface syntax. The emitter
// produces one item per top-level construct plus a Context recording what
// the emitted code needs from the crate ecosystem; the assembler turns
// that context into use-declarations and manifest entries.
package codegen

import "sort"

// Needs records capability flags fired by dispatch handlers. Every flag
// maps to a use-declaration, a crate requirement, or a support item the
// assembler must materialize.
type Needs struct {
	HashMap         bool // std::collections::HashMap
	HashSet         bool // std::collections::HashSet
	Arc             bool // std::sync::Arc
	Regex           bool // regex crate
	Base64          bool // base64 crate
	Chrono          bool // chrono crate
	Rand            bool // rand crate
	SerdeJSON       bool // serde_json crate
	PercentEncoding bool // percent-encoding crate
	Md5             bool // md-5 crate
	Sha2            bool // sha2 crate
	FnvOrdered      bool // indexmap crate for insertion-ordered dicts
	DepylerValue    bool // the dynamic value carrier enum
	ErrorBox        bool // Box<dyn std::error::Error>
}

// Context is the mutable state threaded through one module's emission.
// It lives for a single compilation and is then discarded.
type Context struct {
	Needs Needs

	// Imports are extra fully-qualified use paths requested by handlers.
	imports map[string]bool

	// PropertyMethods records zero-argument methods lifted from property
	// attributes, keyed by method name.
	PropertyMethods map[string]bool

	// NasaMode wraps heterogeneous and unresolved positions in the
	// dynamic value carrier.
	NasaMode bool

	// ForceDictValueOptionWrap makes every dict value slot Option-wrapped
	// for the duration of an enclosing list/tuple literal.
	ForceDictValueOptionWrap bool

	// FallbackDecisions collects one-line notes for the companion report.
	FallbackDecisions []string
}

// NewContext creates an empty per-module context.
func NewContext(nasaMode bool) *Context {
	return &Context{
		imports:         make(map[string]bool),
		PropertyMethods: make(map[string]bool),
		NasaMode:        nasaMode,
	}
}

// AddImport requests an extra use path (e.g. "std::fmt::Write").
func (c *Context) AddImport(path string) {
	c.imports[path] = true
}

// Imports returns the requested use paths in stable order.
func (c *Context) Imports() []string {
	out := make([]string, 0, len(c.imports))
	for p := range c.imports {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Fallback notes a documented default taken instead of a faithful
// translation; the assembler surfaces these in the companion report.
func (c *Context) Fallback(note string) {
	c.FallbackDecisions = append(c.FallbackDecisions, note)
}

// CrateDep is one manifest entry derived from the fired needs.
type CrateDep struct {
	Name     string
	Version  string
	Features []string
}

// CrateDeps lists the external crates the fired flags require, in a
// stable order. Flags that resolve inside std contribute nothing.
func (c *Context) CrateDeps() []CrateDep {
	var deps []CrateDep
	add := func(on bool, name, version string, features ...string) {
		if on {
			deps = append(deps, CrateDep{Name: name, Version: version, Features: features})
		}
	}
	add(c.Needs.Regex, "regex", "1")
	add(c.Needs.Base64, "base64", "0.22")
	add(c.Needs.Chrono, "chrono", "0.4")
	add(c.Needs.Rand, "rand", "0.8")
	add(c.Needs.SerdeJSON, "serde_json", "1")
	// serde_json implies serde with derive for the emitted structs.
	add(c.Needs.SerdeJSON, "serde", "1", "derive")
	add(c.Needs.PercentEncoding, "percent-encoding", "2")
	add(c.Needs.Md5, "md-5", "0.10")
	add(c.Needs.Sha2, "sha2", "0.10")
	add(c.Needs.FnvOrdered, "indexmap", "2")
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}
