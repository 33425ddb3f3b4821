// Package hir provides the typed High-level Intermediate Representation.
//
// HIR sits between the surface Python AST and the Rust code generator. The
// bridge (lower*.go) builds it once; type inference and the ownership
// analyzer attach annotations but never change the structure. Codegen
// consumes it by reference.
//
// Every node carries a stable NodeID used by diagnostics and by the
// ownership analyzer to attach per-use-site annotations.
package hir

// NodeID is a stable identifier for an HIR expression or statement.
type NodeID uint32

// FuncID identifies a function within a module.
type FuncID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoNodeID NodeID = 0
	NoFuncID FuncID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool { return id != NoNodeID }
func (id FuncID) IsValid() bool { return id != NoFuncID }
