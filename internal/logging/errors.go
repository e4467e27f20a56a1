package logging

import (
	"errors"
	"fmt"
)

var ErrInvalidLevel = errors.New("invalid verbosity level")

func wrapf(format string, args ...any) error {
	return fmt.Errorf("logging: "+format, args...)
}
