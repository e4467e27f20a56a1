package script

import (
	"strings"
	"time"

	"prun/internal/value"
)

// PredefinedConfig supplies the host facts used to seed the pre-defined
// PP_* variables before parsing begins (§4.2).
type PredefinedConfig struct {
	Path    string
	Version string
	OS      string
	Now     time.Time
	Threads int
	Targets []string
	Script  string
}

// PopulatePredefined sets PP_PATH, PP_VERSION, PP_OS, PP_TIME, PP_DATE,
// PP_THREADS, PP_TARGETS and PP_SCRIPT in the global scope, and marks
// PP_THREAD/?/*/@* as dynamic.
func PopulatePredefined(scopes *value.Scopes, dyn value.DynamicSet, cfg PredefinedConfig) {
	set := func(name, v string) {
		scopes.Set(name, value.NewText(v, value.LineInfo{}))
	}
	set("PP_PATH", cfg.Path)
	set("PP_VERSION", cfg.Version)
	set("PP_OS", cfg.OS)
	set("PP_TIME", cfg.Now.Format("15:04:05"))
	set("PP_DATE", cfg.Now.Format("2006-01-02"))
	set("PP_THREADS", itoa(cfg.Threads))
	set("PP_TARGETS", strings.Join(cfg.Targets, " "))
	set("PP_SCRIPT", cfg.Script)

	dyn.Add("PP_THREAD")
	dyn.Add("?")
	dyn.Add("*")
	dyn.Add("@*")
}

// UpdateScriptVar re-sets PP_SCRIPT when an @include/@import enters a new
// source file, per §4.2's "auto-updated per source file entering".
func UpdateScriptVar(scopes *value.Scopes, path string) {
	scopes.Set("PP_SCRIPT", value.NewText(path, value.LineInfo{}))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
