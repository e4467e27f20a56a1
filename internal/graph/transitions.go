package graph

import (
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"prun/internal/script"
	"prun/internal/value"
)

// createTransitionsForBlock implements §4.3.2 for one ProcessBlock: filter
// the candidate inputs by the block's regex, then branch on kind.
func (b *Builder) createTransitionsForBlock(ev *value.Evaluator, proc *script.Process, blockIdx int, block *script.ProcessBlock, inputs []*PathLiteral, leafForce bool) ([]*Transition, []*PathLiteral, error) {
	candidates := inputs
	if len(candidates) == 0 && block.Kind != script.None {
		// A block with nothing upstream (no leaf call args, no dependency
		// output) scans the filesystem using its own regex as the seed
		// pattern, matching the concrete grammar's S1-style usage where a
		// bare `foreach "regex" { ... }` is both the discovery pattern and
		// the filter -- there is no separate initial-input syntax at the
		// top of a chain.
		scanned, err := b.scanBlockPattern(block)
		if err != nil {
			return nil, nil, err
		}
		candidates = scanned
	}
	filtered, err := b.filterInputs(block, candidates)
	if err != nil {
		return nil, nil, err
	}
	refsList := commandsReferenceList(block.Commands)

	switch block.Kind {
	case script.None:
		t, err := b.buildTransition(ev, proc, blockIdx, block, nil, nil, nil, leafForce)
		if err != nil {
			return nil, nil, err
		}
		return []*Transition{t}, t.Outputs, nil

	case script.All:
		if len(filtered) == 0 {
			return nil, nil, nil
		}
		// Open Question (§9): destinations for ALL are evaluated in the
		// scope of the *first* filtered input.
		t, err := b.buildTransition(ev, proc, blockIdx, block, filtered, filtered[0], filtered, leafForce)
		if err != nil {
			return nil, nil, err
		}
		return []*Transition{t}, t.Outputs, nil

	case script.Foreach:
		var transitions []*Transition
		var outputs []*PathLiteral
		for _, in := range filtered {
			deps := []*PathLiteral{in}
			if refsList {
				deps = filtered
			}
			t, err := b.buildTransition(ev, proc, blockIdx, block, []*PathLiteral{in}, in, deps, leafForce)
			if err != nil {
				return nil, nil, err
			}
			transitions = append(transitions, t)
			outputs = append(outputs, t.Outputs...)
		}
		return transitions, outputs, nil
	}
	return nil, nil, nil
}

// commandsReferenceList reports whether any of block's commands reference
// the "*" or "@*" dynamic variables, which widens a FOREACH transition's
// dependency set to the whole filtered input set (§4.3.2).
func commandsReferenceList(cmds []script.Command) bool {
	for _, c := range cmds {
		if literalReferences(c.Command, "*") || literalReferences(c.Command, "@*") {
			return true
		}
	}
	return false
}

func literalReferences(lit value.StringLiteral, name string) bool {
	for _, g := range lit.Groups {
		for _, p := range g.Parts {
			if !p.IsText() && p.Var == name {
				return true
			}
		}
	}
	return false
}

// scanBlockPattern scans the filesystem using block's own regex, for a
// block that has no upstream input to filter (the top of a chain with no
// explicit leaf call args).
func (b *Builder) scanBlockPattern(block *script.ProcessBlock) ([]*PathLiteral, error) {
	matches, err := b.FS.Scan(".", block.Filter, b.Script.Flags.FullRecursiveMatch)
	if err != nil {
		return nil, err
	}
	out := make([]*PathLiteral, 0, len(matches))
	for _, m := range matches {
		out = append(out, b.pathLiteralFromMatch(m, block.Line))
	}
	return out, nil
}

func (b *Builder) caseSensitive() bool {
	return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
}

func (b *Builder) compileFilter(pattern string) (*regexp.Regexp, error) {
	if !b.caseSensitive() {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// filterInputs applies a block's regex filter, overlaying any captures it
// produces on top of a copy's existing ones (the filter's captures win on
// a name clash, per §4.3.2's "captures from the filter overlay earlier
// captures").
func (b *Builder) filterInputs(block *script.ProcessBlock, inputs []*PathLiteral) ([]*PathLiteral, error) {
	if block.Kind == script.None {
		return nil, nil
	}
	re, err := b.compileFilter(block.Filter)
	if err != nil {
		return nil, err
	}
	var out []*PathLiteral
	for _, in := range inputs {
		overlaid, matched := filterOne(re, in, block.Invert)
		if matched {
			out = append(out, overlaid)
		}
	}
	return out, nil
}

func filterOne(re *regexp.Regexp, pl *PathLiteral, invert bool) (*PathLiteral, bool) {
	sub := re.FindStringSubmatch(pl.Path())
	matched := sub != nil
	if invert {
		matched = !matched
	}
	if !matched {
		return nil, false
	}
	if sub == nil {
		return pl, true
	}
	lit := pl.StringLiteral
	caps := make(map[string]*value.StringLiteral, len(lit.Captures)+len(sub))
	for k, v := range lit.Captures {
		caps[k] = v
	}
	for i, v := range sub[1:] {
		vv := value.NewText(v, pl.Line)
		caps[strconv.Itoa(i+1)] = &vv
	}
	for i, n := range re.SubexpNames() {
		if i == 0 || n == "" {
			continue
		}
		vv := value.NewText(sub[i], pl.Line)
		caps[n] = &vv
	}
	lit.Captures = caps
	return &PathLiteral{StringLiteral: lit, Flag: pl.Flag, ModTime: pl.ModTime}, true
}

// buildTransition materialises one transition: its dependencies, outputs,
// and commands, evaluated in the scope composition of §4.3.2 (outermost to
// innermost: global -> block-captured -> per-input capture -> destinations/
// dependencies).
func (b *Builder) buildTransition(ev *value.Evaluator, proc *script.Process, blockIdx int, block *script.ProcessBlock, txInputs []*PathLiteral, scopeInput *PathLiteral, txDeps []*PathLiteral, leafForce bool) (*Transition, error) {
	scopes := ev.Scopes
	scopes.Push()
	defer scopes.Pop()
	for k, v := range block.CapturedScope {
		scopes.Set(k, v)
	}
	if scopeInput != nil {
		scopes.Push()
		defer scopes.Pop()
		for k, v := range scopeInput.Captures {
			scopes.Set(k, *v)
		}
	}

	dyn := dynamicValues(txInputs, scopeInput)

	// Free assignments are only meaningful when nested-variables is enabled
	// (§4.2); with the flag off they parse but have no effect. When on, they
	// bind into the innermost active frame so later destination/dependency/
	// command literals can reference them by name, e.g. `out =
	// "${?:file}.out"` then `${out}`.
	if b.Script.Flags.NestedVariables {
		for _, fv := range block.FreeVars {
			resolved, err := b.resolveLiteral(ev, fv.Lit, dyn)
			if err != nil {
				return nil, err
			}
			scopes.Set(fv.Name, resolved)
		}
	}

	t := &Transition{
		Line:         block.Line,
		ProcessID:    proc.ID,
		BlockIndex:   blockIdx,
		Inputs:       txInputs,
		MissingInput: map[string]bool{},
	}

	var deps []*PathLiteral
	deps = append(deps, txDeps...)
	for _, d := range block.Dependencies {
		resolved, err := b.resolveLiteral(ev, d.Lit, dyn)
		if err != nil {
			return nil, err
		}
		// Bound under "dependency[<idx>]" so command lines can reference
		// the resolved path, e.g. `${dependency[0]}`.
		scopes.Set("dependency["+d.Name+"]", resolved)
		pl := NewPathLiteral(resolved)
		mtime, exists := b.FS.Stat(pl.Path())
		pl.applyStat(mtime, exists)
		deps = append(deps, pl)
	}
	t.Dependencies = deps

	for _, ref := range append(append([]*PathLiteral(nil), txInputs...), deps...) {
		if !ref.Flag.Has(Exists) && !ref.Flag.Has(Temporary) {
			t.MissingInput[ref.Path()] = true
		}
	}

	refsList := commandsReferenceList(block.Commands)
	forced := leafForce || b.Force
	for _, ref := range append(append([]*PathLiteral(nil), txInputs...), deps...) {
		if ref.Flag.Has(Forced) {
			forced = true
		}
	}

	for _, d := range block.Destinations {
		resolved, err := b.resolveLiteral(ev, d.Lit, dyn)
		if err != nil {
			return nil, err
		}
		// Bound under "destination[<idx>]" so command lines can reference
		// the resolved path, e.g. `${destination[0]}`.
		scopes.Set("destination["+d.Name+"]", resolved)
		out := NewPathLiteral(resolved)
		b.applyOutputFlags(out, d.Temporary, append(append([]*PathLiteral(nil), txInputs...), deps...), forced)
		if !refsList {
			for _, in := range txInputs {
				if in.Flag.Has(Temporary) && in.Path() == out.Path() {
					out.SetFlag(Temporary)
				}
			}
		}
		t.Outputs = append(t.Outputs, out)
	}

	for _, cmd := range block.Commands {
		resolved, _, _ := ev.Resolve(cmd.Command)
		resolved = ev.SubstDynamic(resolved, dyn)
		clone := cmd.Clone()
		clone.Command = resolved
		t.Commands = append(t.Commands, clone)
	}

	return t, nil
}

func (b *Builder) resolveLiteral(ev *value.Evaluator, lit value.StringLiteral, dyn map[string]string) (value.StringLiteral, error) {
	resolved, _, _ := ev.Resolve(lit)
	resolved = ev.SubstDynamic(resolved, dyn)
	return resolved, nil
}

// dynamicValues computes the per-transition "?"/"*"/"@*" bindings (§3).
// PP_THREAD is deliberately absent: it is resolved once per worker at
// execute time by internal/runner, not here at prepare time.
func dynamicValues(inputs []*PathLiteral, current *PathLiteral) map[string]string {
	paths := make([]string, len(inputs))
	quoted := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.Path()
		quoted[i] = strconv.Quote(in.Path())
	}
	cur := ""
	if current != nil {
		cur = current.Path()
	}
	return map[string]string{
		"?":  cur,
		"*":  strings.Join(paths, " "),
		"@*": strings.Join(quoted, " "),
	}
}

// applyOutputFlags sets EXISTS/ModTime from the filesystem and computes
// MODIFIED/TEMPORARY/FORCED per §4.3.2.
func (b *Builder) applyOutputFlags(out *PathLiteral, declaredTemp bool, refs []*PathLiteral, forced bool) {
	mtime, exists := b.FS.Stat(out.Path())
	out.applyStat(mtime, exists)
	if declaredTemp {
		out.SetFlag(Temporary)
	}

	modified := b.Force
	if !exists && !declaredTemp {
		modified = true
	}
	if !modified {
		for _, ref := range refs {
			if ref.Flag.Has(Exists) && ref.ModTime.Sub(out.ModTime) >= time.Second {
				modified = true
				break
			}
			if ref.Flag.Has(Modified) || ref.Flag.Has(Forced) {
				modified = true
				break
			}
		}
	}
	if modified {
		out.SetFlag(Modified)
	}
	if forced {
		out.SetFlag(Forced)
	}
}
