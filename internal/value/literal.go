// Package value implements the string-literal value model: variable
// references, chained transformation functions, regex captures, scoped
// variable resolution, and the boolean expression evaluator used by
// `if` pragmas.
package value

import "strings"

// LineInfo attaches a source location to a parsed value for diagnostics.
type LineInfo struct {
	File   string
	Line   int
	Column int
}

func (li LineInfo) String() string {
	if li.File == "" {
		return "<unknown>"
	}
	return li.File + ":" + itoa(li.Line) + ":" + itoa(li.Column)
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

// Part is one element of a capture group: either literal text or a
// variable reference with an ordered chain of transformation functions.
type Part struct {
	Text string   // used when Var == ""
	Var  string   // variable name; empty means this part is plain Text
	Fns  []FnCall // transformation chain applied after substitution, in order
}

// FnCall is one function invocation in a Var part's transformation chain.
type FnCall struct {
	Name string   // "win", "unix", "native", "esc", "upper", "lower", "directory", ...
	Args []string // regex-replace: [pattern, replacement]; substring: ["from"] or ["start","length"]
}

// IsText reports whether p is a literal text fragment.
func (p Part) IsText() bool { return p.Var == "" }

// CaptureGroup is an ordered list of parts, together with the set of
// regex capture names visible while evaluating it.
type CaptureGroup struct {
	Names []string
	Parts []Part
}

// StringLiteral is an ordered sequence of capture groups plus side-map of
// regex captures attached by the filesystem/regex matcher that produced it.
type StringLiteral struct {
	Line     LineInfo
	Groups   []CaptureGroup
	Captures map[string]*StringLiteral // regex capture name -> literal value
	isSet    bool
}

// Unset returns the zero StringLiteral, explicitly marked unset.
func Unset() StringLiteral {
	return StringLiteral{}
}

// NewText builds a set, non-variable literal from a plain string.
func NewText(s string, li LineInfo) StringLiteral {
	return StringLiteral{
		Line:   li,
		Groups: []CaptureGroup{{Parts: []Part{{Text: s}}}},
		isSet:  true,
	}
}

// NewVar builds a set literal consisting of exactly one variable reference.
func NewVar(name string, fns []FnCall, li LineInfo) StringLiteral {
	return StringLiteral{
		Line:   li,
		Groups: []CaptureGroup{{Parts: []Part{{Var: name, Fns: fns}}}},
		isSet:  true,
	}
}

// IsSet reports whether the literal carries a value at all.
func (s StringLiteral) IsSet() bool { return s.isSet }

// MarkSet marks the literal as holding a value (used by the parser when
// assembling multi-group literals field by field).
func (s *StringLiteral) MarkSet() { s.isSet = true }

// IsVariable reports whether any Var part survives in the literal, i.e.
// the literal still needs substitution before its text can be read.
func (s StringLiteral) IsVariable() bool {
	for _, g := range s.Groups {
		for _, p := range g.Parts {
			if !p.IsText() {
				return true
			}
		}
	}
	return false
}

// GetString renders the literal's current projection: concatenation of all
// Text parts across all groups. Var parts not yet substituted are skipped
// (callers should Fold+ReplaceVars first).
func (s StringLiteral) GetString() string {
	var b strings.Builder
	for _, g := range s.Groups {
		for _, p := range g.Parts {
			if p.IsText() {
				b.WriteString(p.Text)
			}
		}
	}
	return b.String()
}

// AllCaptureNames returns the union of capture names declared by any group.
func (s StringLiteral) AllCaptureNames() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, g := range s.Groups {
		for _, n := range g.Names {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	return out
}

// Equal compares two literals by their folded text projection, per the
// "two literals compare equal iff their folded AST compares equal" invariant.
// Callers are expected to pass already-folded literals; Equal itself performs
// a final fold with no scope (text-only literals) to normalize adjacent Text parts.
func Equal(a, b StringLiteral) bool {
	if a.isSet != b.isSet {
		return false
	}
	if !a.isSet {
		return true
	}
	return foldText(a) == foldText(b)
}

func foldText(s StringLiteral) string {
	return s.GetString()
}

// Concat appends the groups of b after a, used when splicing a substituted
// literal back into the owner during ReplaceVars.
func Concat(a, b StringLiteral) StringLiteral {
	out := StringLiteral{Line: a.Line, isSet: a.isSet || b.isSet}
	out.Groups = append(out.Groups, a.Groups...)
	out.Groups = append(out.Groups, b.Groups...)
	if a.Captures != nil || b.Captures != nil {
		out.Captures = map[string]*StringLiteral{}
		for k, v := range a.Captures {
			out.Captures[k] = v
		}
		for k, v := range b.Captures {
			out.Captures[k] = v
		}
	}
	return out
}

// WithCapture returns a copy of s with the named regex capture attached.
func (s StringLiteral) WithCapture(name string, lit *StringLiteral) StringLiteral {
	out := s
	out.Captures = make(map[string]*StringLiteral, len(s.Captures)+1)
	for k, v := range s.Captures {
		out.Captures[k] = v
	}
	out.Captures[name] = lit
	return out
}
