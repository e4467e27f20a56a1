//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// applyRawCmdLine bypasses exec's own argv quoting by handing Windows the
// already-templated line verbatim, per §4.5's "raw disables argv quoting on
// Windows when the template is already a native command line".
func applyRawCmdLine(cmd *exec.Cmd, path, line string) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: line}
	cmd.Args = []string{path}
}
