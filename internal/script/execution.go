package script

import "prun/internal/value"

// ProcessNode is either a leaf (a process reference with its initial
// inputs) or an internal node combining parallel children and sequential
// dependencies (§3, §4.4). Sequential dependencies are stored innermost
// first (reverse declaration order) to match the grammar's right-depends-
// on-left reading of `>`.
type ProcessNode struct {
	Leaf *ProcessLeaf

	Parallel   []*ProcessNode
	Sequential []*ProcessNode
}

func (n *ProcessNode) IsLeaf() bool { return n.Leaf != nil }

// ProcessLeaf references a Process or an Execution by id -- resolved
// against both namespaces at graph-build time, since a chain may name an
// execution declared later in the same file -- with an optional
// forced-rebuild marker and initial-input overrides supplied as call
// arguments, e.g. `compile(*.c)`.
type ProcessLeaf struct {
	ID     string
	Force  bool
	Inputs []InitialInput
}

// Execution is a named build target: a tree of ProcessNodes plus the
// per-target configuration carried along with it (§3).
type Execution struct {
	ID   string
	Line value.LineInfo
	Root *ProcessNode

	LogPath   string // empty means stderr
	IndexPath string // empty means "<script>.db"
}
