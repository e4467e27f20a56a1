package script

import (
	"testing"

	"prun/internal/value"
)

func TestParseLiteralTextPlain(t *testing.T) {
	lit, err := ParseLiteralText("hello world", value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit.GetString() != "hello world" {
		t.Fatalf("got %q", lit.GetString())
	}
}

func TestParseLiteralTextVarRef(t *testing.T) {
	lit, err := ParseLiteralText("out/${NAME}.o", value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lit.IsVariable() {
		t.Fatalf("expected a variable part to survive")
	}
	parts := lit.Groups[0].Parts
	if len(parts) != 3 || parts[1].Var != "NAME" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestParseLiteralTextFunctionChain(t *testing.T) {
	lit, err := ParseLiteralText("${NAME:upper:lower}", value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := lit.Groups[0].Parts[0]
	if len(p.Fns) != 2 || p.Fns[0].Name != "upper" || p.Fns[1].Name != "lower" {
		t.Fatalf("unexpected chain: %+v", p.Fns)
	}
}

func TestParseLiteralTextFunctionArgs(t *testing.T) {
	lit, err := ParseLiteralText("${NAME:rexists(.*\\.go$)}", value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := lit.Groups[0].Parts[0].Fns[0]
	if fn.Name != "rexists" || len(fn.Args) != 1 || fn.Args[0] != ".*\\.go$" {
		t.Fatalf("unexpected fn: %+v", fn)
	}
}

func TestParseLiteralTextSubstringShorthand(t *testing.T) {
	lit, err := ParseLiteralText("${NAME:2,-1}", value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := lit.Groups[0].Parts[0].Fns[0]
	if fn.Name != "substring" || len(fn.Args) != 2 || fn.Args[0] != "2" || fn.Args[1] != "-1" {
		t.Fatalf("unexpected fn: %+v", fn)
	}
}

func TestParseLiteralTextRegexReplaceShorthand(t *testing.T) {
	lit, err := ParseLiteralText(`${NAME:/foo/bar/}`, value.LineInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := lit.Groups[0].Parts[0].Fns[0]
	if fn.Name != "regexreplace" || fn.Args[0] != "foo" || fn.Args[1] != "bar" {
		t.Fatalf("unexpected fn: %+v", fn)
	}
}

func TestParseLiteralTextUnterminated(t *testing.T) {
	if _, err := ParseLiteralText("out/${NAME", value.LineInfo{}); err == nil {
		t.Fatalf("expected a syntax error for an unterminated interpolation")
	}
}

func TestParseLiteralTextDynamicNames(t *testing.T) {
	for _, name := range []string{"?", "*", "@*", "PP_THREAD"} {
		lit, err := ParseLiteralText("${"+name+"}", value.LineInfo{})
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
		if lit.Groups[0].Parts[0].Var != name {
			t.Fatalf("got var %q, want %q", lit.Groups[0].Parts[0].Var, name)
		}
	}
}
