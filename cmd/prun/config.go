package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "prun"

var envConfigDir = strings.ToUpper(appName) + "_CONFIG_DIR"

// resolveConfigDir follows the same priority chain the teacher's devshell
// binary used for its own config directory: an app-specific override, then
// XDG_CONFIG_HOME, then the user's home directory. prun uses the directory
// only as defaultScriptPath's fallback location for the default script.
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultScriptName is the script file used when --file/-f is not given
// (§6).
const defaultScriptName = "process.parallel"

// defaultScriptPath resolves the script to use when --file/-f was not
// given on the command line: the default name in the working directory,
// falling back to the same name under the resolved config directory
// (§AMBIENT STACK's "config.go pattern ... reused for resolving the
// default script path ... when not given on the command line").
func defaultScriptPath() string {
	if _, err := os.Stat(defaultScriptName); err == nil {
		return defaultScriptName
	}
	if dir, err := resolveConfigDir(); err == nil {
		candidate := filepath.Join(dir, defaultScriptName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultScriptName
}

// resolveIndexPath returns the output-index database path for a target:
// the execution's own override if the script set one, else "<script>.db"
// alongside the script file (§4.7/§6).
func resolveIndexPath(scriptPath, execIndexPath string) string {
	if execIndexPath != "" {
		return execIndexPath
	}
	dir := filepath.Dir(scriptPath)
	base := filepath.Base(scriptPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".db")
}
