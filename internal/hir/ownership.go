package hir

// UseMode annotates one use site of a binding with the ownership action
// the generated code must take there.
type UseMode uint8

const (
	// UseCopy marks a use of a Copy type; no ownership action is needed.
	UseCopy UseMode = iota
	// UseMove consumes the value; it must be the final use.
	UseMove
	// UseSharedBorrow reads through &T.
	UseSharedBorrow
	// UseUniqueBorrow mutates in place through &mut T.
	UseUniqueBorrow
	// UseCloneOnUse duplicates the value because a move or borrow cannot
	// be satisfied at this site.
	UseCloneOnUse
)

func (m UseMode) String() string {
	switch m {
	case UseCopy:
		return "copy"
	case UseMove:
		return "move"
	case UseSharedBorrow:
		return "&"
	case UseUniqueBorrow:
		return "&mut"
	case UseCloneOnUse:
		return "clone"
	default:
		return "?"
	}
}

// ParamMode is the passing convention a function declares for a parameter.
type ParamMode uint8

const (
	// ParamOwned takes the argument by value.
	ParamOwned ParamMode = iota
	// ParamBorrowed takes &T.
	ParamBorrowed
	// ParamBorrowedMut takes &mut T.
	ParamBorrowedMut
)

func (m ParamMode) String() string {
	switch m {
	case ParamOwned:
		return "owned"
	case ParamBorrowed:
		return "&"
	case ParamBorrowedMut:
		return "&mut"
	default:
		return "?"
	}
}

// Binding aggregates every use site of one local, in program order.
// Node ids are assigned in lowering order, so they double as positions.
type Binding struct {
	Name      string
	Reads     []NodeID
	Writes    []NodeID
	Mutations []NodeID // in-place mutations (append, index store, ...)
	Escapes   bool     // returned, yielded, or stored beyond the scope
}

// LastRead returns the position of the final read, or NoNodeID.
func (b *Binding) LastRead() NodeID {
	last := NoNodeID
	for _, id := range b.Reads {
		if id > last {
			last = id
		}
	}
	return last
}

// OwnershipPlan is the per-function result of the ownership analysis.
// Codegen consults Uses when rendering variable references and Params
// when rendering signatures and call sites.
type OwnershipPlan struct {
	Func     *Func
	Uses     map[NodeID]UseMode // keyed by the ExprVar node id
	Params   map[string]ParamMode
	Bindings map[string]*Binding
}

// Mode returns the annotation for a use site, defaulting to copy.
func (p *OwnershipPlan) Mode(id NodeID) UseMode {
	if p == nil {
		return UseCopy
	}
	return p.Uses[id]
}

// ParamModeOf returns the declared passing mode, defaulting to owned.
func (p *OwnershipPlan) ParamModeOf(name string) ParamMode {
	if p == nil {
		return ParamOwned
	}
	return p.Params[name]
}
