// Package cpuinfo resolves the --jobs/-j flag (§6) to a worker-pool size:
// an absolute count, or a percentage of logical CPUs detected on the host.
package cpuinfo

import (
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
)

// LogicalCount returns the number of logical CPUs gopsutil detects,
// grounded on the teacher's own use of gopsutil/v4 (cmd/tcpo's net/process
// subpackages) applied here to the cpu subpackage. Falls back to 1 if the
// host doesn't report anything usable, so a caller never ends up dividing
// by (or spawning) zero workers.
func LogicalCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// ParseJobs resolves a --jobs value against the given logical CPU count.
// An empty string means "default all" (logical). A trailing "%" scales
// logical proportionally, rounded up, and floored at 1. A bare positive
// integer is used as-is. Anything else, including zero or a negative
// count, is ErrInvalidJobs.
func ParseJobs(spec string, logical int) (int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return max(logical, 1), nil
	}

	if pct, ok := strings.CutSuffix(spec, "%"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil {
			return 0, wrapf("%w: %q", ErrInvalidJobs, spec)
		}
		if n <= 0 {
			return 0, wrapf("%w: %q", ErrInvalidJobs, spec)
		}
		jobs := (logical*n + 99) / 100
		return max(jobs, 1), nil
	}

	n, err := strconv.Atoi(spec)
	if err != nil || n <= 0 {
		return 0, wrapf("%w: %q", ErrInvalidJobs, spec)
	}
	return n, nil
}
