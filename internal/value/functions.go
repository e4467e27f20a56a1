package value

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// RegexExister is implemented by callers that can answer "does any path
// matching this regex exist" for the `rexists` function. It is satisfied by
// internal/fsscan.Scanner; kept here as a narrow interface so internal/value
// has no dependency on the filesystem package.
type RegexExister interface {
	RegexExists(pattern string) bool
}

// FileExister answers plain existence checks for the `exists` function.
type FileExister interface {
	Exists(path string) bool
}

// ApplyFn applies a single named function to s, in the style of §4.1's
// fixed function set. fe/re may be nil; `exists`/`rexists` then
// conservatively return "false".
func ApplyFn(s string, fn FnCall, fe FileExister, re RegexExister) (string, error) {
	switch {
	case fn.Name == "win":
		return strings.ReplaceAll(s, "/", `\`), nil
	case fn.Name == "unix":
		return strings.ReplaceAll(s, `\`, "/"), nil
	case fn.Name == "native":
		if runtime.GOOS == "windows" {
			return strings.ReplaceAll(s, "/", `\`), nil
		}
		return strings.ReplaceAll(s, `\`, "/"), nil
	case fn.Name == "esc":
		return escape(s), nil
	case fn.Name == "upper":
		return strings.ToUpper(s), nil
	case fn.Name == "lower":
		return strings.ToLower(s), nil
	case fn.Name == "directory":
		return filepath.ToSlash(filepath.Dir(filepath.FromSlash(s))), nil
	case fn.Name == "filename":
		return filepath.Base(filepath.FromSlash(s)), nil
	case fn.Name == "file":
		base := filepath.Base(filepath.FromSlash(s))
		ext := filepath.Ext(base)
		return strings.TrimSuffix(base, ext), nil
	case fn.Name == "extension":
		return filepath.Ext(filepath.FromSlash(s)), nil
	case fn.Name == "exists":
		if fe == nil {
			return "false", nil
		}
		return boolStr(fe.Exists(s)), nil
	case fn.Name == "rexists":
		if len(fn.Args) != 1 {
			return "", fmt.Errorf("%w: rexists takes one regex argument", ErrBadFunctionArgs)
		}
		if re == nil {
			return "false", nil
		}
		return boolStr(re.RegexExists(fn.Args[0])), nil
	case fn.Name == "regexreplace":
		return regexReplace(s, fn.Args)
	case fn.Name == "substring":
		return substring(s, fn.Args)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, fn.Name)
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// escape backslash-escapes '\' and '"', per §4.1's `esc` function.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// regexReplace implements `$<sep><regex><sep><repl><sep>`; fn.Args is
// [pattern, replacement] as already split by the separator at parse time.
func regexReplace(s string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w: regex replace takes pattern and replacement", ErrBadFunctionArgs)
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadFunctionArgs, err)
	}
	// Go regexp replacement uses $1 for numbered groups like the source's
	// ECMAScript-style replacement syntax; both agree on that convention.
	return re.ReplaceAllString(s, args[1]), nil
}

// substring implements `<int>[,<int>]` per §4.1 and the Open Question in
// DESIGN.md: zero length with a negative start returns "".
func substring(s string, args []string) (string, error) {
	r := []rune(s)
	n := len(r)
	switch len(args) {
	case 1:
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadFunctionArgs, err)
		}
		start := wrapIndex(from, n)
		if start >= n {
			return "", nil
		}
		return string(r[start:]), nil
	case 2:
		start, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadFunctionArgs, err)
		}
		length, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadFunctionArgs, err)
		}
		return substringStartLength(r, start, length), nil
	default:
		return "", fmt.Errorf("%w: substring takes one or two integer arguments", ErrBadFunctionArgs)
	}
}

// wrapIndex resolves a 1-arg substring "from" index: non-negative indexes
// from the start, negative indexes back from the end.
func wrapIndex(from, n int) int {
	if from < 0 {
		idx := n + from
		if idx < 0 {
			return 0
		}
		return idx
	}
	if from > n {
		return n
	}
	return from
}

// substringStartLength resolves the 2-arg form. Negative start counts from
// the end; negative length counts back from start; an out-of-range start
// yields "". This is locked down by tests per the Open Question.
func substringStartLength(r []rune, start, length int) string {
	n := len(r)

	s := start
	if s < 0 {
		s = n + s
	}
	if s < 0 || s > n {
		return ""
	}

	var e int
	if length < 0 {
		e = s
		s = s + length
		if s < 0 {
			s = 0
		}
	} else {
		e = s + length
		if e > n {
			e = n
		}
	}
	if s >= e {
		return ""
	}
	return string(r[s:e])
}
