package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"prun/internal/cleanup"
	"prun/internal/cpuinfo"
	"prun/internal/fsscan"
	"prun/internal/graph"
	"prun/internal/index"
	"prun/internal/logging"
	"prun/internal/progress"
	"prun/internal/runner"
	"prun/internal/schedule"
	"prun/internal/script"
	"prun/internal/value"
)

var (
	flagBuild     bool
	flagChangeDir string
	flagFile      string
	flagJobs      string
	flagPrintOnly bool
	flagVerbosity string
	flagProgress  string
)

var rootCmd = &cobra.Command{
	Use:   "prun [flags] [target...] [KEY=VALUE...]",
	Short: "Parallel build runner driven by a process.parallel script",
	Long: "prun parses a process.parallel script into a tree of processes and\n" +
		"executions, builds the dependency graph for each requested target,\n" +
		"schedules its stale transitions onto a worker pool, and records what\n" +
		"it built in a persistent output index.",
	RunE:              runRoot,
	ValidArgsFunction: completeTargets,
	SilenceUsage:      true,
}

func init() {
	rootCmd.Flags().BoolVarP(&flagBuild, "build", "b", false, "treat every transition as stale")
	rootCmd.Flags().StringVarP(&flagChangeDir, "change-directory", "C", "", "change to dir before doing anything else")
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", defaultScriptName, `script to read ("-" for stdin)`)
	rootCmd.Flags().StringVarP(&flagJobs, "jobs", "j", "", "worker count: absolute, or N% of logical CPUs")
	rootCmd.Flags().BoolVarP(&flagPrintOnly, "print-only", "n", false, "print the resolved build plan instead of running it")
	rootCmd.Flags().StringVarP(&flagVerbosity, "verbosity", "v", "", "ERROR|WARN|INFO|DEBUG (default: the script's @verbosity, else WARN)")
	rootCmd.Flags().StringVar(&flagProgress, "progress", "line", "line|tui|none")
	rootCmd.Flags().Bool("license", false, "print the license notice and exit")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(evalCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if license, _ := cmd.Flags().GetBool("license"); license {
		fmt.Println(licenseNotice)
		return nil
	}

	if flagChangeDir != "" {
		if err := os.Chdir(flagChangeDir); err != nil {
			return fmt.Errorf("change-directory: %w", err)
		}
	}

	targets, overrides := splitArgs(args)

	file := flagFile
	if !cmd.Flags().Changed("file") {
		file = defaultScriptPath()
	}

	scriptPath := file
	if scriptPath == "-" {
		scriptPath = defaultScriptName
	}

	src, err := readScriptSource(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	logical := cpuinfo.LogicalCount()
	jobs, err := cpuinfo.ParseJobs(flagJobs, logical)
	if err != nil {
		return err
	}

	sc := script.NewScript()
	script.PopulatePredefined(sc.Scopes, sc.Dynamic, script.PredefinedConfig{
		Path:    executablePath(),
		Version: version,
		OS:      runtime.GOOS,
		Now:     time.Now(),
		Threads: jobs,
		Targets: targets,
		Script:  scriptPath,
	})

	fs := fsscan.New()
	if err := script.Parse(scriptPath, src, fs, sc); err != nil {
		return err
	}

	if sc.Flags.EnvironmentVariables {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				sc.Scopes.Set(k, value.NewText(v, value.LineInfo{}))
			}
		}
	}
	for k, v := range overrides {
		sc.Scopes.Set(k, value.NewText(v, value.LineInfo{}))
	}

	verbosity := flagVerbosity
	if verbosity == "" {
		verbosity = sc.Verbosity
	}
	level, err := logging.ParseLevel(verbosity)
	if err != nil {
		return err
	}

	targets, err = resolveTargets(sc, targets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	for _, target := range targets {
		if err := runTarget(ctx, sc, fs, scriptPath, target, jobs, level); err != nil {
			return fmt.Errorf("target %s: %w", target, err)
		}
	}
	return nil
}

// splitArgs separates plain target names from KEY=VALUE overrides, per
// §6's "extra KEY=VALUE positionals add/override environment entries".
func splitArgs(args []string) (targets []string, overrides map[string]string) {
	overrides = map[string]string{}
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok && isVarName(k) {
			overrides[k] = v
			continue
		}
		targets = append(targets, a)
	}
	return targets, overrides
}

func isVarName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// resolveTargets applies §6's "positional targets (default `default`)",
// enriched with an interactive fuzzy picker (DOMAIN STACK: go-fuzzyfinder)
// when no targets were given and the session is a real terminal.
func resolveTargets(sc *script.Script, targets []string) ([]string, error) {
	if len(targets) > 0 {
		return targets, nil
	}
	if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
		t, err := pickTarget(sc)
		if err != nil {
			return nil, err
		}
		return []string{t}, nil
	}
	return []string{"default"}, nil
}

func pickTarget(sc *script.Script) (string, error) {
	ids := sc.ExecutionIDs()
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: script defines no executions", script.ErrSymbolUnknown)
	}
	idx, err := fuzzyfinder.Find(ids, func(i int) string { return ids[i] })
	if err != nil {
		return "", fmt.Errorf("selecting target: %w", err)
	}
	return ids[idx], nil
}

func runTarget(ctx context.Context, sc *script.Script, fs fsscan.Filesystem, scriptPath, target string, jobs int, level logging.Level) error {
	exec, ok := sc.Executions[target]
	if !ok {
		return fmt.Errorf("%w: target %q", script.ErrSymbolUnknown, target)
	}

	builder := graph.NewBuilder(sc, fs, flagBuild, time.Now())
	prepared, err := builder.Prepare(target)
	if err != nil {
		return err
	}

	if flagPrintOnly {
		out, err := printTree(prepared, flagBuild)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	}

	logOut, closeLog, err := openLogSink(exec.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.New(logOut, level)

	progressFn, closeProgress, err := setupProgress()
	if err != nil {
		return err
	}
	defer closeProgress()

	run := runner.NewRunner(runner.OSSpawner{}, sc.Flags.CommandChecking)
	sched := schedule.NewScheduler(run, jobs, flagBuild, progressFn)
	outcomes := sched.Run(ctx, prepared)

	idx := index.NewStore()
	indexPath := resolveIndexPath(scriptPath, exec.IndexPath)
	if err := idx.Open(indexPath); err != nil {
		return err
	}
	defer idx.Close()

	opts := cleanup.Options{
		Force:              flagBuild,
		RemoveTemporaries:  sc.Flags.RemoveTemporaries,
		CleanUpIncompletes: sc.Flags.CleanUpIncompletes,
		RemoveRemains:      sc.Flags.RemoveRemains,
	}
	return cleanup.Complete(prepared, outcomes, cleanup.OS{}, idx, logger, opts)
}

// openLogSink resolves Execution.LogPath: empty means stderr (§3's
// "Execution: ... log sink"), matching the original's per-target log file
// override.
func openLogSink(logPath string) (io.Writer, func(), error) {
	if logPath == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log %s: %w", logPath, err)
	}
	return f, func() { f.Close() }, nil
}

const defaultProgressTemplate = "[%p%%] %c/%t commands  %ra  ETA %re"

func setupProgress() (schedule.ProgressFunc, func(), error) {
	switch flagProgress {
	case "none":
		return func(int, int) {}, func() {}, nil
	case "tui":
		prog := progress.NewProgram(os.Stdout)
		done := make(chan struct{})
		go func() {
			prog.Run()
			close(done)
		}()
		fn := func(doneN, total int) {
			prog.Send(progress.ProgressMsg{Done: doneN, Total: total, At: time.Now()})
		}
		closer := func() {
			prog.Quit()
			<-done
		}
		return fn, closer, nil
	default: // "line"
		w, err := progress.Open("stderr")
		if err != nil {
			return nil, nil, err
		}
		sink := progress.NewSink(w, defaultProgressTemplate, time.Second)
		return sink.Func(), func() {}, nil
	}
}

// completeTargets backs cobra shell completion by loading whatever script
// --file currently names and listing its executions, the same shape as
// the teacher's cmd_root.go dynamicCompletion but driven by script targets
// instead of a devshell node tree.
func completeTargets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	file := flagFile
	if !cmd.Flags().Changed("file") {
		file = defaultScriptPath()
	}
	src, err := readScriptSource(file)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sc := script.NewScript()
	if err := script.Parse(file, src, fsscan.New(), sc); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return sc.ExecutionIDs(), cobra.ShellCompDirectiveNoFileComp
}
