// Package runner builds and spawns the shell invocation for one transition's
// commands (§4.5). It implements internal/schedule's narrow Runner
// interface; the worker pool itself lives there.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"prun/internal/graph"
	"prun/internal/script"
	"prun/internal/value"
)

// SpawnRequest is everything a Spawner needs to start one child process.
// Argv is used unless Raw is set, in which case RawLine is the full,
// already-templated command line and the platform decides how to honour it
// (§4.5's "raw disables argv quoting on Windows").
type SpawnRequest struct {
	Path    string
	Argv    []string
	Raw     bool
	RawLine string
}

// Spawner runs one child process to completion and returns its merged
// stdout+stderr bytes and exit code. stdin is always closed: no command in
// this domain reads from one (§4.5).
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (output []byte, exitCode int, err error)
}

// Runner implements schedule.Runner, executing a Transition's commands in
// order on behalf of one worker.
type Runner struct {
	Spawner  Spawner
	Checking bool // script.Flags.CommandChecking
}

// NewRunner returns a Runner that checks exit codes when checking is true.
func NewRunner(spawner Spawner, checking bool) *Runner {
	return &Runner{Spawner: spawner, Checking: checking}
}

// Run executes t's commands sequentially, resolving PP_THREAD to workerID in
// each (§4.4/§4.5). A non-zero exit marks the command FAILED; with
// command-checking it also aborts the remaining commands and returns an
// error, which the scheduler records against the transition's outcome.
func (r *Runner) Run(ctx context.Context, workerID int, t *graph.Transition) error {
	for i := range t.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd := &t.Commands[i]

		line, req, err := buildSpawnRequest(cmd, workerID)
		if err != nil {
			return fmt.Errorf("transition %s: %w", t.ProcessID, err)
		}

		cmd.State = script.Running
		cmd.Start = time.Now()
		output, exitCode, spawnErr := r.Spawner.Spawn(ctx, req)
		cmd.End = time.Now()
		cmd.ExitCode = exitCode
		cmd.Output = decodeOutput(output, cmd.Shell.OutputEncoding)

		if spawnErr != nil {
			cmd.State = script.Failed
			return fmt.Errorf("transition %s: %s: %w", t.ProcessID, line, spawnErr)
		}
		if exitCode != 0 {
			cmd.State = script.Failed
			if r.Checking {
				return fmt.Errorf("transition %s: command exited %d: %s", t.ProcessID, exitCode, line)
			}
			continue
		}
		cmd.State = script.Finished
	}
	return nil
}

// buildSpawnRequest resolves PP_THREAD, applies the shell's replace rules,
// splices the result into the shell's cmdline template, and tokenizes the
// outcome into argv unless the shell is raw (§4.5).
func buildSpawnRequest(cmd *script.Command, workerID int) (string, SpawnRequest, error) {
	ev := &value.Evaluator{}
	resolved := ev.SubstDynamic(cmd.Command, map[string]string{"PP_THREAD": strconv.Itoa(workerID)})
	text := resolved.GetString()

	for _, rule := range cmd.Shell.Replacements {
		re, err := compileReplace(rule.Pattern)
		if err != nil {
			return "", SpawnRequest{}, err
		}
		text = re.ReplaceAllString(text, rule.Replacement)
	}

	line := spliceCommandLine(cmd.Shell.CmdLine.GetString(), text)

	if cmd.Shell.RawCmdLine {
		return line, SpawnRequest{Path: cmd.Shell.Path, Raw: true, RawLine: line}, nil
	}

	argv, err := tokenize(line)
	if err != nil {
		return "", SpawnRequest{}, err
	}
	return line, SpawnRequest{Path: cmd.Shell.Path, Argv: argv}, nil
}

// spliceCommandLine replaces whichever placeholder the template declares
// with the resolved command text; a custom shell uses exactly one of the
// two per §3's Shell definition.
func spliceCommandLine(template, resolved string) string {
	if idx := indexOf(template, "{@*}"); idx >= 0 {
		return template[:idx] + resolved + template[idx+len("{@*}"):]
	}
	if idx := indexOf(template, "{?}"); idx >= 0 {
		return template[:idx] + resolved + template[idx+len("{?}"):]
	}
	return template
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
