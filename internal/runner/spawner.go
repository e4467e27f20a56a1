package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// OSSpawner runs a child process via os/exec, merging stdout and stderr into
// one binary-safe buffer and leaving stdin closed (§4.5).
type OSSpawner struct{}

func (OSSpawner) Spawn(ctx context.Context, req SpawnRequest) ([]byte, int, error) {
	var cmd *exec.Cmd
	if req.Raw {
		cmd = exec.CommandContext(ctx, req.Path)
		applyRawCmdLine(cmd, req.Path, req.RawLine)
	} else {
		cmd = exec.CommandContext(ctx, req.Path, req.Argv...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), exitErr.ExitCode(), nil
		}
		return out.Bytes(), -1, err
	}
	return out.Bytes(), 0, nil
}
