package cleanup

import "prun/internal/graph"

// removeTemporaries implements §4.6 step 3: any TEMPORARY output whose
// FlatDependent set is now empty -- nothing still depends on it -- is
// deleted from disk (invariant 9). Candidates are collected by path first
// so a temporary shared by more than one transition is only considered
// once.
func removeTemporaries(p *graph.Prepared, fs FileStat, log Logger) error {
	seen := map[string]bool{}
	for _, t := range p.Transitions {
		for _, out := range t.Outputs {
			path := out.Path()
			if !out.Flag.Has(graph.Temporary) || seen[path] {
				continue
			}
			seen[path] = true
			if len(p.FlatDependent[path]) != 0 {
				continue
			}
			if _, _, exists := fs.Stat(path); !exists {
				continue
			}
			err := fs.Remove(path)
			if log != nil {
				log.LogRemoval("remove-temporaries", path, err)
			}
		}
	}
	return nil
}
