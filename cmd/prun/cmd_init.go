package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively scaffold a starter script",
	Long: "Ask a few questions about the first process to build -- its id, the\n" +
		"input pattern it should match, and the command to run per match -- then\n" +
		"write a minimal script file ready to run with `prun`.",
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("file", "f", defaultScriptName, "path to write the starter script to")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") {
		path = defaultScriptPath()
	}
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	var processID, pattern, command string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First process id").
				Placeholder("build").
				Value(&processID),
			huh.NewInput().
				Title("Input regex for that process").
				Placeholder(`.*\.c$`).
				Value(&pattern),
			huh.NewInput().
				Title("Command to run per match (use {?} for the input path)").
				Placeholder(`gcc -c "{?}" -o "{destination}"`).
				Value(&command),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("init wizard: %w", err)
	}

	if processID == "" {
		processID = "build"
	}
	if pattern == "" {
		pattern = `.*\.c$`
	}
	if command == "" {
		command = `gcc -c "{?}" -o "{destination}"`
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	src := renderStarterScript(processID, pattern, command)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	fmt.Fprintln(os.Stderr, "run `prun list` to see its targets")
	return nil
}

func renderStarterScript(processID, pattern, command string) string {
	return fmt.Sprintf(
		"process: %s {\n"+
			"  foreach \"%s\" {\n"+
			"    destination = \"{?:directory}/{?:file}.o\"\n"+
			"    %s\n"+
			"  }\n"+
			"}\n\n"+
			"execution: default { %s }\n",
		processID, pattern, command, processID,
	)
}
