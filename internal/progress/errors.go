package progress

import "fmt"

func wrapf(format string, args ...any) error {
	return fmt.Errorf("progress: "+format, args...)
}
