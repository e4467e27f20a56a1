//go:build !windows

package runner

import "os/exec"

// applyRawCmdLine is a no-op outside Windows: os/exec on POSIX always takes
// argv directly, so there is no separate "native command line" to bypass.
func applyRawCmdLine(cmd *exec.Cmd, path, line string) {}
