package value

// Evaluator bundles the collaborators needed to resolve and fold a
// StringLiteral: the active scope stack, the dynamic-variable set, and the
// (optional) filesystem predicates used by `exists`/`rexists`.
type Evaluator struct {
	Scopes   *Scopes
	Dynamic  DynamicSet
	FE       FileExister
	RE       RegexExister
	Checking VariableChecking
}

// ReplaceVars resolves every Var part whose name is not in e.Dynamic,
// splicing in the referenced variable's value (recursively resolved) with
// its function chain applied. It implements the "passthrough substitution"
// rule: a literal consisting of exactly one Var part with no function chain
// and a non-dynamic name is replaced wholesale by the looked-up literal,
// including its regex captures, with the original LineInfo preserved
// (invariant 2, §8).
//
// ok is false if any referenced variable had no binding; unknown names the
// first such variable encountered. Callers apply §7's variable_checking
// policy (ignore / warn / error) using ok and unknown.
func (e *Evaluator) ReplaceVars(lit StringLiteral) (StringLiteral, bool, string) {
	if !lit.isSet {
		return lit, true, ""
	}

	if isPassthrough(lit) {
		name := lit.Groups[0].Parts[0].Var
		if e.Dynamic.Has(name) {
			return lit, true, ""
		}
		val, found := e.Scopes.Lookup(name)
		if !found {
			return lit, false, name
		}
		out := val
		out.Line = lit.Line
		if lit.Captures != nil || val.Captures != nil {
			out.Captures = mergeCaptures(lit.Captures, val.Captures)
		}
		return out, true, ""
	}

	out := StringLiteral{Line: lit.Line, isSet: true, Captures: cloneCaptures(lit.Captures)}
	okAll := true
	unknown := ""

	for _, g := range lit.Groups {
		var parts []Part
		for _, p := range g.Parts {
			if p.IsText() {
				parts = append(parts, p)
				continue
			}
			if e.Dynamic.Has(p.Var) {
				parts = append(parts, p)
				continue
			}
			val, found := e.Scopes.Lookup(p.Var)
			if !found {
				if okAll {
					okAll = false
					unknown = p.Var
				}
				continue
			}
			resolved, subOK, subUnknown := e.ReplaceVars(val)
			if !subOK && okAll {
				okAll = false
				unknown = subUnknown
			}
			folded := e.Fold(resolved, true)
			text := folded.GetString()
			for _, fn := range p.Fns {
				applied, err := ApplyFn(text, fn, e.FE, e.RE)
				if err != nil {
					// A function that fails (unknown name, wrong
					// arguments) is skipped and the text carries on to
					// the next function rather than aborting the whole
					// literal; names and arities are not checked at
					// parse time.
					continue
				}
				text = applied
			}
			parts = append(parts, Part{Text: text})
			if folded.Captures != nil {
				out.Captures = mergeCaptures(out.Captures, folded.Captures)
			}
		}
		out.Groups = append(out.Groups, CaptureGroup{Names: g.Names, Parts: parts})
	}

	return out, okAll, unknown
}

func isPassthrough(lit StringLiteral) bool {
	return len(lit.Groups) == 1 &&
		len(lit.Groups[0].Parts) == 1 &&
		!lit.Groups[0].Parts[0].IsText() &&
		len(lit.Groups[0].Parts[0].Fns) == 0
}

func cloneCaptures(m map[string]*StringLiteral) map[string]*StringLiteral {
	if m == nil {
		return nil
	}
	out := make(map[string]*StringLiteral, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeCaptures(a, b map[string]*StringLiteral) map[string]*StringLiteral {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]*StringLiteral, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Fold normalises lit's AST: adjacent Text parts within a group are merged.
// When final is true, any remaining Var part outside e.Dynamic is dropped
// (treated as having resolved to the empty string); dynamic Var parts are
// always kept, since they are resolved per-transition/per-worker, not here.
//
// Fold is idempotent (invariant 4, §8): Fold(Fold(x)) == Fold(x), and it
// never changes GetString()'s projection of an already-fully-resolved
// literal.
func (e *Evaluator) Fold(lit StringLiteral, final bool) StringLiteral {
	if !lit.isSet {
		return lit
	}
	out := StringLiteral{Line: lit.Line, isSet: true, Captures: lit.Captures}
	for _, g := range lit.Groups {
		var merged []Part
		var pendingText string
		hasPending := false
		flush := func() {
			if hasPending {
				merged = append(merged, Part{Text: pendingText})
				pendingText = ""
				hasPending = false
			}
		}
		for _, p := range g.Parts {
			if p.IsText() {
				pendingText += p.Text
				hasPending = true
				continue
			}
			if final && !e.Dynamic.Has(p.Var) {
				// Dropped: treated as resolved-to-empty when final folding
				// runs without every variable having been substituted.
				continue
			}
			flush()
			merged = append(merged, p)
		}
		flush()
		out.Groups = append(out.Groups, CaptureGroup{Names: g.Names, Parts: merged})
	}
	return out
}

// Resolve is the common entry point: ReplaceVars then a final Fold, matching
// how a transition's commands are materialised (§4.3.2).
func (e *Evaluator) Resolve(lit StringLiteral) (StringLiteral, bool, string) {
	replaced, ok, unknown := e.ReplaceVars(lit)
	folded := e.Fold(replaced, true)
	return folded, ok, unknown
}

// SubstDynamic fills in dynamic Var parts (§3's "?", "*", "@*", "PP_THREAD"
// and any user-declared dynamic name) whose current value is known, leaving
// any dynamic name absent from values untouched for a later pass (the
// runner resolves PP_THREAD per worker at execute time; "?"/"*"/"@*" are
// resolved once per transition at prepare time -- see internal/graph).
// Function chains on a substituted Var still apply, in order, matching
// ReplaceVars' non-passthrough branch.
func (e *Evaluator) SubstDynamic(lit StringLiteral, values map[string]string) StringLiteral {
	if !lit.isSet {
		return lit
	}
	out := StringLiteral{Line: lit.Line, isSet: true, Captures: lit.Captures}
	for _, g := range lit.Groups {
		var parts []Part
		for _, p := range g.Parts {
			if p.IsText() {
				parts = append(parts, p)
				continue
			}
			text, known := values[p.Var]
			if !known {
				parts = append(parts, p)
				continue
			}
			for _, fn := range p.Fns {
				applied, err := ApplyFn(text, fn, e.FE, e.RE)
				if err != nil {
					continue
				}
				text = applied
			}
			parts = append(parts, Part{Text: text})
		}
		out.Groups = append(out.Groups, CaptureGroup{Names: g.Names, Parts: parts})
	}
	return out
}
