package script

import (
	"strings"

	"prun/internal/value"
)

// ParseLiteralText turns a raw (already quote-unescaped) string into a
// value.StringLiteral, expanding `${name}` and `${name:fn:fn(args)...}`
// interpolations (§4.1's function chains) and the inline regex-replace and
// substring shorthands.
//
// Concretely:
//
//	${NAME}                         plain variable reference
//	${NAME:upper:lower}             chained named functions
//	${NAME:3}  ${NAME:3,5}          substring shorthand (see §4.1)
//	${NAME:/foo/bar/}               regex-replace shorthand, separator is the first rune
func ParseLiteralText(raw string, li value.LineInfo) (value.StringLiteral, error) {
	r := []rune(raw)
	var parts []value.Part
	var text strings.Builder
	i := 0
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, value.Part{Text: text.String()})
			text.Reset()
		}
	}
	for i < len(r) {
		if r[i] == '$' && i+1 < len(r) && r[i+1] == '{' {
			flush()
			end, part, err := parseInterpolation(r, i, li)
			if err != nil {
				return value.StringLiteral{}, err
			}
			parts = append(parts, part)
			i = end
			continue
		}
		text.WriteRune(r[i])
		i++
	}
	flush()
	lit := value.StringLiteral{
		Line:   li,
		Groups: []value.CaptureGroup{{Parts: parts}},
	}
	lit.MarkSet()
	return lit, nil
}

func parseInterpolation(r []rune, start int, li value.LineInfo) (int, value.Part, error) {
	i := start + 2 // skip "${"
	nameStart := i
	for i < len(r) && r[i] != ':' && r[i] != '}' {
		i++
	}
	if i >= len(r) {
		return 0, value.Part{}, newSyntaxError(li, "unterminated ${...} interpolation")
	}
	name := string(r[nameStart:i])
	var fns []value.FnCall
	for i < len(r) && r[i] == ':' {
		i++
		fn, next, err := parseChainSegment(r, i, li)
		if err != nil {
			return 0, value.Part{}, err
		}
		fns = append(fns, fn)
		i = next
	}
	if i >= len(r) || r[i] != '}' {
		return 0, value.Part{}, newSyntaxError(li, "expected '}' to close ${%s...}", name)
	}
	i++ // consume '}'
	return i, value.Part{Var: name, Fns: fns}, nil
}

func parseChainSegment(r []rune, i int, li value.LineInfo) (value.FnCall, int, error) {
	if i >= len(r) {
		return value.FnCall{}, i, newSyntaxError(li, "expected a function after ':'")
	}

	// substring shorthand: <int>[,<int>]
	if r[i] == '-' || (r[i] >= '0' && r[i] <= '9') {
		start := i
		i++
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		first := string(r[start:i])
		if i < len(r) && r[i] == ',' {
			i++
			start2 := i
			if i < len(r) && r[i] == '-' {
				i++
			}
			for i < len(r) && r[i] >= '0' && r[i] <= '9' {
				i++
			}
			second := string(r[start2:i])
			return value.FnCall{Name: "substring", Args: []string{first, second}}, i, nil
		}
		return value.FnCall{Name: "substring", Args: []string{first}}, i, nil
	}

	// regex-replace shorthand: <sep><pattern><sep><repl><sep>
	if !isIdentStart(r[i]) {
		sep := r[i]
		i++
		patStart := i
		for i < len(r) && r[i] != sep {
			i++
		}
		if i >= len(r) {
			return value.FnCall{}, i, newSyntaxError(li, "unterminated regex-replace shorthand")
		}
		pattern := string(r[patStart:i])
		i++ // consume separator
		replStart := i
		for i < len(r) && r[i] != sep {
			i++
		}
		if i >= len(r) {
			return value.FnCall{}, i, newSyntaxError(li, "unterminated regex-replace shorthand")
		}
		repl := string(r[replStart:i])
		i++ // consume closing separator
		return value.FnCall{Name: "regexreplace", Args: []string{pattern, repl}}, i, nil
	}

	// named function, optionally with a parenthesised argument list.
	nameStart := i
	for i < len(r) && isIdentPart(r[i]) {
		i++
	}
	name := string(r[nameStart:i])
	if i < len(r) && r[i] == '(' {
		i++
		argStart := i
		for i < len(r) && r[i] != ')' {
			i++
		}
		if i >= len(r) {
			return value.FnCall{}, i, newSyntaxError(li, "unterminated argument list for %s(...)", name)
		}
		raw := string(r[argStart:i])
		i++ // consume ')'
		var args []string
		if raw != "" {
			for _, a := range strings.Split(raw, ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}
		return value.FnCall{Name: name, Args: args}, i, nil
	}
	return value.FnCall{Name: name}, i, nil
}
