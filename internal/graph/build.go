package graph

import (
	"fmt"
	"time"

	"prun/internal/fsscan"
	"prun/internal/script"
	"prun/internal/value"
)

// Builder prepares an Execution's ProcessNode tree into a Prepared graph
// of Transitions (§4.3). It is used once per target and is not safe for
// concurrent use -- prepare is documented as single-threaded (§5).
type Builder struct {
	Script *script.Script
	FS     fsscan.Filesystem
	Force  bool // the CLI's --build/-b flag: treat every transition as stale
	Now    time.Time
}

// NewBuilder returns a Builder ready to Prepare targets from sc.
func NewBuilder(sc *script.Script, fs fsscan.Filesystem, force bool, now time.Time) *Builder {
	return &Builder{Script: sc, FS: fs, Force: force, Now: now}
}

func (b *Builder) evaluator() *value.Evaluator {
	checking := value.CheckOff
	if b.Script.Flags.VariableChecking {
		checking = value.CheckError
	}
	return &value.Evaluator{
		Scopes:   b.Script.Scopes,
		Dynamic:  b.Script.Dynamic,
		FE:       b.FS,
		RE:       b.FS,
		Checking: checking,
	}
}

// PreparedLeaf is a resolved ProcessNode leaf: either a Process's own
// transitions, or (when the leaf names an Execution) that execution's
// flattened transitions, inlined.
type PreparedLeaf struct {
	ID          string
	Transitions []*Transition
	Outputs     []*PathLiteral
}

// PreparedNode mirrors script.ProcessNode, decorated with build results.
type PreparedNode struct {
	Leaf       *PreparedLeaf
	Parallel   []*PreparedNode
	Sequential []*PreparedNode
}

func (n *PreparedNode) IsLeaf() bool { return n != nil && n.Leaf != nil }

// Prepared is the full prepare-time result for one execution target.
type Prepared struct {
	ExecutionID   string
	Root          *PreparedNode
	Transitions   []*Transition // flattened, dependency order
	FlatDependent map[string]map[string]bool
}

// Prepare builds the dependency graph for the named execution: initial
// input resolution, per-block transition construction, duplicate-output
// rejection, and TEMPORARY/FORCED propagation (§4.3 steps 1-5).
func (b *Builder) Prepare(execID string) (*Prepared, error) {
	exec, ok := b.Script.Executions[execID]
	if !ok {
		return nil, fmt.Errorf("%w: execution %q", script.ErrSymbolUnknown, execID)
	}
	root, _, err := b.resolveNode(exec.Root, map[string]bool{})
	if err != nil {
		return nil, err
	}
	var all []*Transition
	collectTransitions(root, &all)
	if err := checkDuplicateOutputs(all); err != nil {
		return nil, err
	}
	flat := buildFlatDependent(all)
	propagateTemporary(all, flat)
	propagateForced(all)
	return &Prepared{ExecutionID: execID, Root: root, Transitions: all, FlatDependent: flat}, nil
}

func collectTransitions(n *PreparedNode, out *[]*Transition) {
	if n == nil {
		return
	}
	for _, s := range n.Sequential {
		collectTransitions(s, out)
	}
	for _, p := range n.Parallel {
		collectTransitions(p, out)
	}
	if n.Leaf != nil {
		*out = append(*out, n.Leaf.Transitions...)
	}
}

// resolveNode solves dependencies in post-order along the `>` chain: since
// script.ProcessNode nests each sequential dependency one level deeper
// (innermost-first, §3), recursing into node.Sequential before resolving
// node.Leaf naturally visits the deepest dependency first and threads its
// outputs forward as the next link's upstream input.
func (b *Builder) resolveNode(node *script.ProcessNode, seen map[string]bool) (*PreparedNode, []*PathLiteral, error) {
	if node == nil {
		return nil, nil, nil
	}
	out := &PreparedNode{}
	var upstream []*PathLiteral

	for _, dep := range node.Sequential {
		prepared, outs, err := b.resolveNode(dep, seen)
		if err != nil {
			return nil, nil, err
		}
		out.Sequential = append(out.Sequential, prepared)
		upstream = append(upstream, outs...)
	}
	for _, par := range node.Parallel {
		prepared, outs, err := b.resolveNode(par, seen)
		if err != nil {
			return nil, nil, err
		}
		out.Parallel = append(out.Parallel, prepared)
		upstream = append(upstream, outs...)
	}
	if node.Leaf != nil {
		leaf, outs, err := b.resolveLeaf(node.Leaf, upstream, seen)
		if err != nil {
			return nil, nil, err
		}
		out.Leaf = leaf
		upstream = outs
	}
	return out, upstream, nil
}

func (b *Builder) resolveLeaf(leaf *script.ProcessLeaf, upstream []*PathLiteral, seen map[string]bool) (*PreparedLeaf, []*PathLiteral, error) {
	if proc, ok := b.Script.Processes[leaf.ID]; ok {
		own, err := b.resolveInitialInputs(leaf.Inputs, proc.Line)
		if err != nil {
			return nil, nil, err
		}
		inputs := own
		switch {
		case len(inputs) == 0:
			// "(or the initial list is empty)": a leaf with no initial-input
			// descriptors of its own is seeded entirely from upstream output.
			inputs = upstream
		case len(upstream) > 0:
			inputs = append(append([]*PathLiteral(nil), inputs...), upstream...)
		}
		transitions, outputs, err := b.createDependencyList(proc, inputs, leaf.Force)
		if err != nil {
			return nil, nil, err
		}
		return &PreparedLeaf{ID: proc.ID, Transitions: transitions, Outputs: outputs}, outputs, nil
	}
	if exec, ok := b.Script.Executions[leaf.ID]; ok {
		if seen[leaf.ID] {
			return nil, nil, fmt.Errorf("%w: execution %q references itself", script.ErrInvalidValue, leaf.ID)
		}
		nested := make(map[string]bool, len(seen)+1)
		for k, v := range seen {
			nested[k] = v
		}
		nested[leaf.ID] = true
		sub, outs, err := b.resolveNode(exec.Root, nested)
		if err != nil {
			return nil, nil, err
		}
		var all []*Transition
		collectTransitions(sub, &all)
		return &PreparedLeaf{ID: exec.ID, Transitions: all, Outputs: outs}, outs, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", script.ErrSymbolUnknown, leaf.ID)
}

// resolveInitialInputs evaluates a leaf's own `foreach`/`all`-style call
// arguments against the filesystem (§4.3.1), deduplicating by path.
func (b *Builder) resolveInitialInputs(inputs []script.InitialInput, li value.LineInfo) ([]*PathLiteral, error) {
	var out []*PathLiteral
	seen := map[string]bool{}
	for _, in := range inputs {
		switch in.Kind {
		case script.InitialRegex:
			matches, err := b.FS.Scan(".", in.Pattern, b.Script.Flags.FullRecursiveMatch)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if seen[m.Path] {
					continue
				}
				seen[m.Path] = true
				out = append(out, b.pathLiteralFromMatch(m, li))
			}
		case script.InitialFileList:
			entries, _, err := b.FS.ReadFileList(in.Path)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if seen[e] {
					continue
				}
				seen[e] = true
				pl := NewPathLiteral(value.NewText(e, li))
				mtime, exists := b.FS.Stat(e)
				pl.applyStat(mtime, exists)
				out = append(out, pl)
			}
		}
	}
	return out, nil
}

func (b *Builder) pathLiteralFromMatch(m fsscan.Match, li value.LineInfo) *PathLiteral {
	lit := value.NewText(m.Path, li)
	if len(m.Numbered) > 0 || len(m.Named) > 0 {
		lit.Captures = capturesFromMatch(m, li)
	}
	pl := NewPathLiteral(lit)
	mtime, exists := b.FS.Stat(m.Path)
	pl.applyStat(mtime, exists)
	return pl
}

func capturesFromMatch(m fsscan.Match, li value.LineInfo) map[string]*value.StringLiteral {
	caps := make(map[string]*value.StringLiteral, len(m.Numbered)+len(m.Named))
	for i, v := range m.Numbered {
		lit := value.NewText(v, li)
		caps[itoa(i+1)] = &lit
	}
	for k, v := range m.Named {
		lit := value.NewText(v, li)
		caps[k] = &lit
	}
	return caps
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// createDependencyList runs createTransitions for every block of proc in
// declaration order, unioning their outputs (§4.3 step 1).
func (b *Builder) createDependencyList(proc *script.Process, inputs []*PathLiteral, leafForce bool) ([]*Transition, []*PathLiteral, error) {
	ev := b.evaluator()
	var allTransitions []*Transition
	var allOutputs []*PathLiteral
	for idx := range proc.Blocks {
		block := &proc.Blocks[idx]
		transitions, outputs, err := b.createTransitionsForBlock(ev, proc, idx, block, inputs, leafForce)
		if err != nil {
			return nil, nil, err
		}
		allTransitions = append(allTransitions, transitions...)
		allOutputs = append(allOutputs, outputs...)
	}
	return allTransitions, allOutputs, nil
}
