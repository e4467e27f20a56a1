package cleanup

import (
	"os"
	"time"
)

// OS implements FileStat against the real filesystem, grounded on
// internal/fsscan's OS adapter -- the same os.Stat/os.Remove pattern,
// extended to also report size since the output index needs it.
type OS struct{}

func (OS) Stat(path string) (int64, time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, false
	}
	return info.Size(), info.ModTime(), true
}

func (OS) Remove(path string) error {
	return os.Remove(path)
}
