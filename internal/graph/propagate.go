package graph

import (
	"fmt"
	"strconv"

	"prun/internal/script"
	"prun/internal/value"
)

// checkDuplicateOutputs rejects any two transitions in the same prepared
// tree that produce the same output path (§4.3 step 3, invariant 6).
// Iteration is over transitions in their already-deterministic build
// order, so the reported location pair is itself deterministic.
func checkDuplicateOutputs(transitions []*Transition) error {
	type seen struct {
		first value.LineInfo
		count int
		dupe  value.LineInfo
	}
	order := make([]string, 0, len(transitions))
	locs := map[string]*seen{}
	for _, t := range transitions {
		for _, out := range t.Outputs {
			path := out.Path()
			s, ok := locs[path]
			if !ok {
				locs[path] = &seen{first: t.Line, count: 1}
				order = append(order, path)
				continue
			}
			s.count++
			if s.count == 2 {
				s.dupe = t.Line
			}
		}
	}
	for _, path := range order {
		s := locs[path]
		if s.count > 1 {
			return &script.SyntaxError{
				Line:    s.first,
				Message: fmt.Sprintf("duplicate output %q also produced at %s", path, s.dupe.String()),
			}
		}
	}
	return nil
}

// consumerKey gives a stable identifier for transition t from its process
// id, its block index and idx, its position in the flattened transition
// list, used as the flat dependent map's value-set element.
func consumerKey(t *Transition, idx int) string {
	return t.ProcessID + "#" + strconv.Itoa(t.BlockIndex) + "#" + strconv.Itoa(idx)
}

// ConsumerKey exposes consumerKey to internal/cleanup, which needs to
// recompute the same identifier against Prepared.Transitions to clear a
// finished transition's own entry out of FlatDependent (§4.6 step 2).
func ConsumerKey(t *Transition, idx int) string { return consumerKey(t, idx) }

// buildFlatDependent builds the bottom-up output-path -> set<consumer>
// map (§4.3 step 2): for every transition that reads a path as an input
// or dependency, record it against that path. internal/cleanup removes a
// transition's own key from each of its dependencies' sets once that
// transition finishes successfully (§4.6 step 2); a TEMPORARY output is
// safe to delete once its set is empty (invariant 9).
func buildFlatDependent(transitions []*Transition) map[string]map[string]bool {
	flat := map[string]map[string]bool{}
	for i, t := range transitions {
		key := consumerKey(t, i)
		for _, ref := range refsOf(t) {
			p := ref.Path()
			if flat[p] == nil {
				flat[p] = map[string]bool{}
			}
			flat[p][key] = true
		}
	}
	return flat
}

func refsOf(t *Transition) []*PathLiteral {
	out := make([]*PathLiteral, 0, len(t.Inputs)+len(t.Dependencies))
	out = append(out, t.Inputs...)
	out = append(out, t.Dependencies...)
	return out
}

// propagateTemporary implements the "a temporary must be produced when any
// of its permanent successors will be produced" rule (§4.3 step 4): if a
// transition must build, every TEMPORARY path it reads is marked MODIFIED
// so its own producing transition also rebuilds it. Iterated to a fixpoint
// since a chain of temporaries may need to propagate more than one hop.
func propagateTemporary(transitions []*Transition, _ map[string]map[string]bool) {
	for iter, changed := 0, true; changed && iter <= len(transitions); iter++ {
		changed = false
		for _, t := range transitions {
			must, _ := MustBuild(t, false)
			if !must {
				continue
			}
			for _, ref := range refsOf(t) {
				if ref.Flag.Has(Temporary) && !ref.Flag.Has(Modified) {
					ref.SetFlag(Modified)
					changed = true
				}
			}
		}
	}
}

// propagateForced implements §4.3 step 5: if any input or dependency of a
// transition carries FORCED, all of its outputs are marked FORCED too.
// Most of this already happens inline in buildTransition, since upstream
// outputs are shared by reference with the downstream transitions that
// consume them; this pass is the defensive fixpoint closure for any
// ordering this package's single prepare pass didn't already cover.
func propagateForced(transitions []*Transition) {
	for iter, changed := 0, true; changed && iter <= len(transitions); iter++ {
		changed = false
		for _, t := range transitions {
			forced := false
			for _, ref := range refsOf(t) {
				if ref.Flag.Has(Forced) {
					forced = true
					break
				}
			}
			if !forced {
				continue
			}
			for _, o := range t.Outputs {
				if !o.Flag.Has(Forced) {
					o.SetFlag(Forced)
					changed = true
				}
			}
		}
	}
}
