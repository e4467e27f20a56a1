package value

import "testing"

type fakeFileExister map[string]bool

func (f fakeFileExister) Exists(path string) bool { return f[path] }

type fakeRegexExister map[string]bool

func (f fakeRegexExister) RegexExists(pattern string) bool { return f[pattern] }

func TestApplyFnPathFunctions(t *testing.T) {
	cases := []struct {
		fn   string
		in   string
		want string
	}{
		{"win", "a/b/c", `a\b\c`},
		{"unix", `a\b\c`, "a/b/c"},
		{"upper", "abC", "ABC"},
		{"lower", "abC", "abc"},
		{"filename", "a/b/c.txt", "c.txt"},
		{"file", "a/b/c.txt", "c"},
		{"extension", "a/b/c.txt", ".txt"},
		{"directory", "a/b/c.txt", "a/b"},
	}
	for _, tc := range cases {
		got, err := ApplyFn(tc.in, FnCall{Name: tc.fn}, nil, nil)
		if err != nil {
			t.Fatalf("%s(%q): unexpected error %v", tc.fn, tc.in, err)
		}
		if got != tc.want {
			t.Errorf("%s(%q) = %q, want %q", tc.fn, tc.in, got, tc.want)
		}
	}
}

func TestApplyFnEsc(t *testing.T) {
	got, err := ApplyFn(`he said "hi\there"`, FnCall{Name: "esc"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `he said \"hi\\there\"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyFnExists(t *testing.T) {
	fe := fakeFileExister{"a.txt": true}
	got, err := ApplyFn("a.txt", FnCall{Name: "exists"}, fe, nil)
	if err != nil || got != "true" {
		t.Fatalf("got (%q, %v), want (true, nil)", got, err)
	}
	got, err = ApplyFn("b.txt", FnCall{Name: "exists"}, fe, nil)
	if err != nil || got != "false" {
		t.Fatalf("got (%q, %v), want (false, nil)", got, err)
	}
	// nil FileExister conservatively reports false.
	got, err = ApplyFn("a.txt", FnCall{Name: "exists"}, nil, nil)
	if err != nil || got != "false" {
		t.Fatalf("got (%q, %v), want (false, nil) with nil FileExister", got, err)
	}
}

func TestApplyFnRexists(t *testing.T) {
	re := fakeRegexExister{`.*\.go$`: true}
	got, err := ApplyFn("ignored", FnCall{Name: "rexists", Args: []string{`.*\.go$`}}, nil, re)
	if err != nil || got != "true" {
		t.Fatalf("got (%q, %v), want (true, nil)", got, err)
	}
	if _, err := ApplyFn("x", FnCall{Name: "rexists"}, nil, re); err == nil {
		t.Fatalf("expected error for missing rexists argument")
	}
}

func TestApplyFnUnknown(t *testing.T) {
	_, err := ApplyFn("x", FnCall{Name: "bogus"}, nil, nil)
	if err == nil {
		t.Fatalf("expected an error for an unknown function")
	}
}

func TestRegexReplace(t *testing.T) {
	got, err := ApplyFn("hello world", FnCall{Name: "regexreplace", Args: []string{`o`, "0"}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hell0 w0rld" {
		t.Fatalf("got %q", got)
	}
}

func TestRegexReplaceBadPattern(t *testing.T) {
	_, err := ApplyFn("x", FnCall{Name: "regexreplace", Args: []string{"(", "y"}}, nil, nil)
	if err == nil {
		t.Fatalf("expected error for an invalid regex")
	}
}

func TestSubstringOneArg(t *testing.T) {
	cases := []struct {
		from int
		want string
	}{
		{0, "abcdef"},
		{2, "cdef"},
		{-2, "ef"},
		{-100, "abcdef"},
		{100, ""},
	}
	for _, tc := range cases {
		got, err := substring("abcdef", []string{itoa(tc.from)})
		if err != nil {
			t.Fatalf("substring(%d): unexpected error %v", tc.from, err)
		}
		if got != tc.want {
			t.Errorf("substring(%d) = %q, want %q", tc.from, got, tc.want)
		}
	}
}

// TestSubstringZeroLengthNegativeStart locks down the Open Question: a
// negative start combined with zero length returns the empty string, not an
// error and not a clamped nonempty slice.
func TestSubstringZeroLengthNegativeStart(t *testing.T) {
	got, err := substring("abcdef", []string{"-3", "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestSubstringTwoArg(t *testing.T) {
	cases := []struct {
		start, length int
		want          string
	}{
		{0, 3, "abc"},
		{2, 2, "cd"},
		{-3, 2, "de"},
		{4, -2, "cd"},
		{0, -1, ""},
		{10, 2, ""},
		{-100, 2, ""},
		{3, 100, "def"},
	}
	for _, tc := range cases {
		got, err := substring("abcdef", []string{itoa(tc.start), itoa(tc.length)})
		if err != nil {
			t.Fatalf("substring(%d,%d): unexpected error %v", tc.start, tc.length, err)
		}
		if got != tc.want {
			t.Errorf("substring(%d,%d) = %q, want %q", tc.start, tc.length, got, tc.want)
		}
	}
}

func TestSubstringBadArgs(t *testing.T) {
	if _, err := substring("abc", nil); err == nil {
		t.Fatalf("expected error for zero arguments")
	}
	if _, err := substring("abc", []string{"x"}); err == nil {
		t.Fatalf("expected error for non-integer argument")
	}
	if _, err := substring("abc", []string{"0", "1", "2"}); err == nil {
		t.Fatalf("expected error for too many arguments")
	}
}
