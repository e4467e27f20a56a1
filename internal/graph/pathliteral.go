// Package graph builds the dependency graph for one execution target:
// resolving a ProcessNode tree's initial inputs, running each
// ProcessBlock's createTransitions, and propagating the TEMPORARY/FORCED
// flags needed to decide what must run (§4.3).
package graph

import (
	"time"

	"prun/internal/value"
)

// Flag is the PathLiteral status bitset (§3). TEMPORARY and PERMANENT are
// mutually exclusive; a literal with neither bit set is PERMANENT by
// default (the zero value), matching "permanent unless declared with ~".
type Flag uint8

const (
	Temporary Flag = 1 << iota
	Modified
	Forced
	Exists
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// PathLiteral is a StringLiteral decorated with the build-status bitset
// and last-modification time (§3). Outputs are shared by reference among
// every Transition that mentions them; this package always hands out a
// single *PathLiteral per distinct resolved path within one Builder run,
// so Go pointer identity already gives the "identity of the pointed-to
// value" comparison §9's design notes call for -- no separate Key wrapper
// is needed.
type PathLiteral struct {
	value.StringLiteral
	Flag    Flag
	ModTime time.Time
}

// NewPathLiteral wraps a resolved literal with no flags set.
func NewPathLiteral(lit value.StringLiteral) *PathLiteral {
	return &PathLiteral{StringLiteral: lit}
}

// Path renders the literal's current path text. Destinations/dependencies
// must be fully resolved (Evaluator.Resolve + SubstDynamic) before this is
// meaningful.
func (p *PathLiteral) Path() string { return p.GetString() }

func (p *PathLiteral) SetFlag(bit Flag)   { p.Flag |= bit }
func (p *PathLiteral) ClearFlag(bit Flag) { p.Flag &^= bit }

// applyStat sets EXISTS and ModTime from a filesystem lookup, clearing
// EXISTS (and leaving ModTime zero) when the lookup finds nothing.
func (p *PathLiteral) applyStat(mtime time.Time, exists bool) {
	if exists {
		p.SetFlag(Exists)
		p.ModTime = mtime
	} else {
		p.ClearFlag(Exists)
		p.ModTime = time.Time{}
	}
}
