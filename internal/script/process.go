package script

import "prun/internal/value"

// InitialInputKind selects between a filesystem regex scan and an `@file`
// literal file list (§4.3.1).
type InitialInputKind int

const (
	InitialRegex InitialInputKind = iota
	InitialFileList
)

// InitialInput is one `foreach`/`all` input descriptor attached to a
// process leaf at the execution-chain level, not to the ProcessBlock
// itself -- the same Process can be entered with different seed inputs
// from different chains.
type InitialInput struct {
	Kind    InitialInputKind
	Pattern string // InitialRegex: the regex source
	Path    string // InitialFileList: the @file path
}

// Process is a named sequence of ProcessBlocks (§3). Transitions are not
// part of the parsed Process -- they are built per-chain-leaf by
// internal/graph at prepare time, since the same Process can be invoked
// with different initial inputs from different executions.
type Process struct {
	ID     string
	Line   value.LineInfo
	Blocks []ProcessBlock
}
