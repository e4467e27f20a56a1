package script

// Flags holds the boolean `@enable`/`@disable` switches from §4.2. All
// default off. Flags are script-global and immutable once parsing finishes.
type Flags struct {
	EnvironmentVariables bool
	VariableChecking     bool
	CommandChecking      bool
	NestedVariables      bool
	FullRecursiveMatch   bool
	RemoveTemporaries    bool
	CleanUpIncompletes   bool
	RemoveRemains        bool
}

// Set applies @enable/@disable <name> to the matching field. An unknown
// flag name is reported to the caller rather than silently ignored.
func (f *Flags) Set(name string, on bool) bool {
	switch name {
	case "environment-variables":
		f.EnvironmentVariables = on
	case "variable-checking":
		f.VariableChecking = on
	case "command-checking":
		f.CommandChecking = on
	case "nested-variables":
		f.NestedVariables = on
	case "full-recursive-match":
		f.FullRecursiveMatch = on
	case "remove-temporaries":
		f.RemoveTemporaries = on
	case "clean-up-incompletes":
		f.CleanUpIncompletes = on
	case "remove-remains":
		f.RemoveRemains = on
	default:
		return false
	}
	return true
}
