package cleanup

import (
	"prun/internal/graph"
	"prun/internal/index"
)

// removeRemains implements §4.6 step 5, grounded on
// original_source/src/pp/Execution.cpp's complete(): reset every index
// row's flags to 1, then mark every path this run's tree actually
// produces back to 0. Whatever is still flagged 1 afterwards belonged to a
// prior run but isn't part of this one anymore, so it's deleted from disk
// and from the index. Finally every produced output's flags are set to its
// live PathLiteral bitset for the next run to compare against, and
// directory rows with no remaining file are pruned.
func removeRemains(p *graph.Prepared, fs FileStat, idx *index.Store, log Logger) error {
	if err := idx.SetAllFlags(1); err != nil {
		return wrapf("reset index flags: %w", err)
	}

	for _, t := range p.Transitions {
		for _, out := range t.Outputs {
			size, mtime, _ := fs.Stat(out.Path())
			if err := idx.UpdateFile(out.Path(), size, mtime, 0); err != nil {
				return wrapf("mark output %s: %w", out.Path(), err)
			}
		}
	}

	iterErr := idx.ForEachFileByFlag(1, func(rec index.Record) bool {
		if _, _, exists := fs.Stat(rec.Path); !exists {
			return true
		}
		err := fs.Remove(rec.Path)
		if log != nil {
			log.LogRemoval("remove-remains", rec.Path, err)
		}
		if err != nil {
			idx.SetFlags(rec.Path, 0) // try again next time
		}
		return true
	})
	if iterErr != nil {
		return wrapf("iterate remains: %w", iterErr)
	}

	if _, err := idx.DeleteFilesByFlag(1); err != nil {
		return wrapf("delete remain rows: %w", err)
	}

	for _, t := range p.Transitions {
		for _, out := range t.Outputs {
			if err := idx.SetFlags(out.Path(), uint32(out.Flag)); err != nil {
				return wrapf("set flags for %s: %w", out.Path(), err)
			}
		}
	}

	if err := idx.CleanUp(); err != nil {
		return wrapf("prune directories: %w", err)
	}
	return nil
}
