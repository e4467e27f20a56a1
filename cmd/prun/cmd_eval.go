package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"prun/internal/fsscan"
	"prun/internal/script"
	"prun/internal/value"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate string literals and boolean expressions against a loaded script",
	Long: "Start a REPL that parses a script (for its variable scope) and then\n" +
		"evaluates each entered line as either a boolean expression (`is`,\n" +
		"`and`, `or`, ...) or a quoted string literal, substituting variables\n" +
		"from the script's global scope the same way process blocks do.",
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringP("file", "f", defaultScriptName, "script to load before evaluating (\"-\" for stdin)")
}

func runEval(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") {
		file = defaultScriptPath()
	}

	sc := script.NewScript()
	fs := fsscan.New()
	if src, err := readScriptSource(file); err == nil {
		if err := script.Parse(file, src, fs, sc); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (continuing with an empty scope)\n", err)
			sc = script.NewScript()
		}
	}

	rl, err := readline.New("prun> ")
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	defer rl.Close()

	ev := &value.Evaluator{Scopes: sc.Scopes, Dynamic: sc.Dynamic, FE: fs, RE: fs, Checking: value.CheckWarn}
	env := &value.Env{Scopes: sc.Scopes, Dynamic: sc.Dynamic, FE: fs, IsDir: isDir}

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		evalLine(cmd.OutOrStdout(), ev, env, line)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func evalLine(out io.Writer, ev *value.Evaluator, env *value.Env, line string) {
	if expr, err := value.ParseBoolExpr(line); err == nil {
		result, err := value.Eval(expr, env)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%v\n", result)
		return
	}

	lit, err := script.ParseLiteralText(line, value.LineInfo{})
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	resolved := ev.Fold(lit, true)
	fmt.Fprintln(out, resolved.GetString())
}
