// Package typesystem models the tri-state resolution lattice the
// TypeResolver iterates to a fixed point (§3, §4.7): every Typeable node
// starts Unknown and can only move forward to Resolved, never back.
package typesystem

// Base is the closed set of SQL value types the resolver reasons about.
type Base int

const (
	BaseUnset Base = iota
	Int
	Text
	Real
	Blob
	Boolean
	Null
)

func (b Base) String() string {
	switch b {
	case Int:
		return "int"
	case Text:
		return "text"
	case Real:
		return "real"
	case Blob:
		return "blob"
	case Boolean:
		return "boolean"
	case Null:
		return "null"
	default:
		return "unset"
	}
}

// Hint refines a Base without changing its storage representation, e.g.
// an Int column that is really a timestamp.
type Hint int

const (
	NoHint Hint = iota
	IsDateTime
	IsBoolean
)

// ResolvedType is the concrete type assigned to a Typeable node once
// resolution succeeds.
type ResolvedType struct {
	Base     Base
	Nullable bool
	IsArray  bool
	Hint     Hint
}

// State distinguishes the three positions a node's resolution can be in.
type State int

const (
	StateUnknown State = iota
	StateResolved
	StateNeedsContext
)

// ResolveResult is the value stored in AnalysisContext.Types for every
// Typeable node: Unknown until either resolved outright or found to need
// more context than is currently available (NeedsContext, e.g. a bind
// variable whose enclosing operator hasn't been visited yet).
type ResolveResult struct {
	State State
	Type  ResolvedType
}

// Unknown is the starting state of every Typeable node.
func Unknown() ResolveResult { return ResolveResult{State: StateUnknown} }

// Resolved wraps a concrete type as a terminal resolution.
func Resolved(t ResolvedType) ResolveResult { return ResolveResult{State: StateResolved, Type: t} }

// NeedsContext marks a node whose type depends on information not yet
// available in the current fixed-point iteration.
func NeedsContext() ResolveResult { return ResolveResult{State: StateNeedsContext} }

// IsResolved reports whether r has reached Resolved.
func (r ResolveResult) IsResolved() bool { return r.State == StateResolved }
