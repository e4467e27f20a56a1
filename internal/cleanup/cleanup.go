// Package cleanup runs the post-run maintenance steps that follow a
// Scheduler.Run (§4.6): logging results, releasing temporaries nothing
// depends on anymore, deleting outputs left behind by a transition that
// never finished, and sweeping stale entries out of the output index.
package cleanup

import (
	"fmt"
	"time"

	"prun/internal/graph"
	"prun/internal/index"
	"prun/internal/schedule"
)

// FileStat is the narrow filesystem surface this package needs: existence
// and size/mtime probing for index bookkeeping, and removal. It is
// deliberately smaller than fsscan.Filesystem, which also knows how to
// scan directories and read file-list files -- concerns this package never
// touches.
type FileStat interface {
	Stat(path string) (size int64, mtime time.Time, exists bool)
	Remove(path string) error
}

// Logger renders the results Complete decides need reporting (§4.6 step 1,
// §6's "Log output"). internal/logging implements this against the styled
// `process : <id> { ... }` block format; this package only decides what to
// log and in what order.
type Logger interface {
	LogProcess(p ProcessLog)
	LogRemoval(section, path string, err error)
}

// ProcessLog is one process's post-run log block: its transitions' missing
// inputs (collected regardless of whether the transition ran) followed by
// the command results of transitions that were actually attempted.
type ProcessLog struct {
	ID            string
	MissingInputs []string
	Transitions   []TransitionLog
}

// TransitionLog is one attempted transition's log entry.
type TransitionLog struct {
	Transition     *graph.Transition
	Reason         graph.Reason
	Cancelled      bool
	Err            error
	MissingOutputs []string
}

// Options gates steps 3-5 behind the script's @enable/@disable flags
// (§4.2) and carries the --build/-b force flag needed to recompute
// MustBuild for transitions the Scheduler never attempted.
type Options struct {
	Force              bool
	RemoveTemporaries  bool
	CleanUpIncompletes bool
	RemoveRemains      bool
}

// Complete runs §4.6's five steps in order, synchronously, once a
// Scheduler.Run has returned. idx may be nil; step 5 is then skipped,
// mirroring the original's "removeRemains && db.isOpen()" guard.
func Complete(p *graph.Prepared, outcomes []*schedule.Outcome, fs FileStat, idx *index.Store, log Logger, opts Options) error {
	byTransition := make(map[*graph.Transition]*schedule.Outcome, len(outcomes))
	for _, o := range outcomes {
		byTransition[o.Transition] = o
	}

	logResults(p, byTransition, fs, log)
	updateFlatDependent(p, byTransition, fs)

	if opts.RemoveTemporaries {
		if err := removeTemporaries(p, fs, log); err != nil {
			return err
		}
	}
	if opts.CleanUpIncompletes {
		if err := cleanUpIncompletes(p, byTransition, fs, log, opts.Force); err != nil {
			return err
		}
	}
	if opts.RemoveRemains && idx != nil {
		if err := removeRemains(p, fs, idx, log); err != nil {
			return err
		}
	}
	return nil
}

func attemptedFinishedOK(o *schedule.Outcome, attempted bool) bool {
	return attempted && !o.Cancelled && o.Err == nil
}

func wrapf(format string, args ...any) error {
	return fmt.Errorf("cleanup: "+format, args...)
}
