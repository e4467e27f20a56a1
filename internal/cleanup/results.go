package cleanup

import (
	"prun/internal/graph"
	"prun/internal/schedule"
)

// logResults implements §4.6 step 1, grouping transitions by process in
// the order they first appear in p.Transitions (already dependency order).
// Missing inputs are collected from every transition regardless of whether
// it ran, matching the original's unconditional collection pass; command
// results are only reported for transitions the Scheduler actually
// attempted.
func logResults(p *graph.Prepared, byTransition map[*graph.Transition]*schedule.Outcome, fs FileStat, log Logger) {
	if log == nil {
		return
	}

	var order []string
	groups := map[string]*ProcessLog{}
	group := func(id string) *ProcessLog {
		g, ok := groups[id]
		if !ok {
			g = &ProcessLog{ID: id}
			groups[id] = g
			order = append(order, id)
		}
		return g
	}

	for _, t := range p.Transitions {
		g := group(t.ProcessID)
		for missing := range t.MissingInput {
			g.MissingInputs = append(g.MissingInputs, missing)
		}

		o, attempted := byTransition[t]
		if !attempted {
			continue
		}
		tl := TransitionLog{Transition: t, Reason: o.Reason, Cancelled: o.Cancelled, Err: o.Err}
		if len(t.MissingInput) == 0 {
			for _, out := range t.Outputs {
				if _, _, exists := fs.Stat(out.Path()); !exists {
					tl.MissingOutputs = append(tl.MissingOutputs, out.Path())
				}
			}
		}
		g.Transitions = append(g.Transitions, tl)
	}

	for _, id := range order {
		log.LogProcess(*groups[id])
	}
}

// updateFlatDependent implements §4.6 step 2: once a transition finishes
// successfully and an output it produced is actually present on disk, the
// transition no longer needs any of its own referenced paths -- so its
// consumer key is dropped from each of those paths' entries in
// p.FlatDependent (§4.3's bottom-up map, grounded on
// internal/graph/propagate.go's buildFlatDependent).
func updateFlatDependent(p *graph.Prepared, byTransition map[*graph.Transition]*schedule.Outcome, fs FileStat) {
	for i, t := range p.Transitions {
		o, attempted := byTransition[t]
		if !attemptedFinishedOK(o, attempted) {
			continue
		}
		producedSomething := false
		for _, out := range t.Outputs {
			if _, _, exists := fs.Stat(out.Path()); exists {
				producedSomething = true
				break
			}
		}
		if !producedSomething {
			continue
		}

		key := graph.ConsumerKey(t, i)
		for _, ref := range append(append([]*graph.PathLiteral(nil), t.Inputs...), t.Dependencies...) {
			if consumers, ok := p.FlatDependent[ref.Path()]; ok {
				delete(consumers, key)
			}
		}
	}
}
