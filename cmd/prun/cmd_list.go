package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prun/internal/fsscan"
	"prun/internal/script"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate the targets defined in a script",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("file", "f", defaultScriptName, "script to read (\"-\" for stdin)")
}

func runList(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") {
		file = defaultScriptPath()
	}

	src, err := readScriptSource(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	sc := script.NewScript()
	if err := script.Parse(file, src, fsscan.New(), sc); err != nil {
		return err
	}

	for _, id := range sc.ExecutionIDs() {
		fmt.Fprintln(os.Stdout, id)
	}
	return nil
}
