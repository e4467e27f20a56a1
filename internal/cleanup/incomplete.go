package cleanup

import (
	"prun/internal/graph"
	"prun/internal/schedule"
	"prun/internal/script"
)

// cleanUpIncompletes implements §4.6 step 4: a transition that needed to
// build but whose commands didn't all reach a terminal state -- cancelled
// before it could run, or aborted partway through -- has its existing
// outputs deleted and their EXISTS flag cleared, so a later run treats
// them as missing rather than trusting a partial result.
func cleanUpIncompletes(p *graph.Prepared, byTransition map[*graph.Transition]*schedule.Outcome, fs FileStat, log Logger, force bool) error {
	for _, t := range p.Transitions {
		if len(t.MissingInput) != 0 {
			continue
		}
		must, _ := graph.MustBuild(t, force)
		if !must {
			continue
		}
		o, attempted := byTransition[t]
		if !attempted {
			continue
		}
		if isComplete(t, o) {
			continue
		}
		for _, out := range t.Outputs {
			path := out.Path()
			if _, _, exists := fs.Stat(path); !exists {
				continue
			}
			err := fs.Remove(path)
			if log != nil {
				log.LogRemoval("clean-up-incompletes", path, err)
			}
			if err == nil {
				out.ClearFlag(graph.Exists)
			}
		}
	}
	return nil
}

// isComplete reports whether every command of t reached a terminal state
// (FINISHED or FAILED). A cancelled outcome, or one aborted by
// command-checking partway through, leaves later commands IDLE.
func isComplete(t *graph.Transition, o *schedule.Outcome) bool {
	if o.Cancelled {
		return false
	}
	for i := range t.Commands {
		switch t.Commands[i].State {
		case script.Finished, script.Failed:
		default:
			return false
		}
	}
	return true
}
