// Command prun parses a process.parallel script and drives the parallel
// build it describes: dependency graph construction, worker-pool
// scheduling, command spawning, and post-run index maintenance.
package main

import (
	"prun/pkg/lib"
)

const version = "0.1.0"

const licenseNotice = "prun -- a parallel build runner.\n" +
	"See the LICENSE file distributed with this binary for full terms."

func main() {
	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}
