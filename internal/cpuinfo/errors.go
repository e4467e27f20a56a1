package cpuinfo

import (
	"errors"
	"fmt"
)

var ErrInvalidJobs = errors.New("invalid jobs value")

func wrapf(format string, args ...any) error {
	return fmt.Errorf("cpuinfo: "+format, args...)
}
