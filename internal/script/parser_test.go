package script

import (
	"fmt"
	"testing"

	"prun/internal/value"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) (string, error) {
	if s, ok := m[path]; ok {
		return s, nil
	}
	return "", fmt.Errorf("no such file: %s", path)
}

func TestParseAssignmentAndUnset(t *testing.T) {
	sc := NewScript()
	src := `NAME = "widget"
unset NAME`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sc.Scopes.Lookup("NAME"); ok {
		t.Fatalf("expected NAME to be unset")
	}
}

func TestParseEnableDisable(t *testing.T) {
	sc := NewScript()
	src := `@enable command-checking
@disable command-checking`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Flags.CommandChecking {
		t.Fatalf("expected command-checking to end disabled")
	}
}

func TestParseUnknownFlag(t *testing.T) {
	sc := NewScript()
	if err := Parse("t.prun", `@enable bogus-flag`, nil, sc); err == nil {
		t.Fatalf("expected an error for an unknown flag")
	}
}

func TestParseProcessBlock(t *testing.T) {
	sc := NewScript()
	src := `process: compile {
  foreach "(.*)\.c$" {
    destination[0] = "${1}.o"
    dependency[0] = "common.h"
    "gcc -c ${?} -o ${destination[0]}"
  }
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proc, ok := sc.Processes["compile"]
	if !ok {
		t.Fatalf("expected a process named compile")
	}
	if len(proc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(proc.Blocks))
	}
	b := proc.Blocks[0]
	if b.Kind != Foreach {
		t.Fatalf("expected Foreach kind")
	}
	if len(b.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(b.Commands))
	}
	if dest, ok := b.Destinations.Get("0"); !ok || dest.Lit.GetString() != ".o" {
		t.Fatalf("unexpected destination: %+v ok=%v", dest, ok)
	}
}

func TestParseProcessTemporaryDestination(t *testing.T) {
	sc := NewScript()
	src := `process: p {
  all "x" {
    destination[0] = ~"tmp.o"
  }
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dest, _ := sc.Processes["p"].Blocks[0].Destinations.Get("0")
	if !dest.Temporary {
		t.Fatalf("expected the destination to be marked temporary")
	}
}

func TestParseInvertedAll(t *testing.T) {
	sc := NewScript()
	src := `process: p {
  !all "\.o$" { }
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := sc.Processes["p"].Blocks[0]
	if b.Kind != All || !b.Invert {
		t.Fatalf("expected an inverted all block, got %+v", b)
	}
}

func TestParseProcessIncludeSplicesBlocks(t *testing.T) {
	sc := NewScript()
	src := `process: base {
  foreach "\.c$" {
    destination[0] = "${1}.o"
  }
}
process: combined {
  @include base
  all "x" { }
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	combined, ok := sc.Processes["combined"]
	if !ok {
		t.Fatalf("expected a process named combined")
	}
	if len(combined.Blocks) != 2 {
		t.Fatalf("expected 2 blocks (1 spliced + 1 own), got %d", len(combined.Blocks))
	}
	if combined.Blocks[0].Kind != Foreach || combined.Blocks[0].Filter != `\.c$` {
		t.Fatalf("expected the spliced foreach block first, got %+v", combined.Blocks[0])
	}
	if combined.Blocks[1].Kind != All {
		t.Fatalf("expected combined's own all block second, got %+v", combined.Blocks[1])
	}
}

func TestParseProcessIncludeUnknownID(t *testing.T) {
	sc := NewScript()
	src := `process: p {
  @include missing
}`
	if err := Parse("t.prun", src, nil, sc); err == nil {
		t.Fatalf("expected an error for an unknown process id")
	}
}

func TestParseExecutionChainPrecedence(t *testing.T) {
	sc := NewScript()
	// '|' binds tighter than '>': "a | b > c" means (a|b) depends-into c.
	src := `execution: e {
  a | b > c
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := sc.Executions["e"].Root
	if root.Leaf == nil || root.Leaf.ID != "c" {
		t.Fatalf("expected root leaf c, got %+v", root)
	}
	if len(root.Sequential) != 1 {
		t.Fatalf("expected one sequential dependency, got %d", len(root.Sequential))
	}
	dep := root.Sequential[0]
	if len(dep.Parallel) != 2 || dep.Parallel[0].Leaf.ID != "a" || dep.Parallel[1].Leaf.ID != "b" {
		t.Fatalf("expected a parallel group [a,b], got %+v", dep)
	}
}

func TestParseExecutionChainGrouping(t *testing.T) {
	sc := NewScript()
	src := `execution: e {
  (a > b) | c
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := sc.Executions["e"].Root
	if len(root.Parallel) != 2 {
		t.Fatalf("expected a top-level parallel group, got %+v", root)
	}
	grouped := root.Parallel[0]
	if grouped.Leaf == nil || grouped.Leaf.ID != "b" || len(grouped.Sequential) != 1 || grouped.Sequential[0].Leaf.ID != "a" {
		t.Fatalf("expected grouped chain b<-a, got %+v", grouped)
	}
}

func TestParseExecutionForceAndArgs(t *testing.T) {
	sc := NewScript()
	src := `execution: e {
  compile!("*.c", @"files.txt")
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf := sc.Executions["e"].Root.Leaf
	if !leaf.Force {
		t.Fatalf("expected force flag")
	}
	if len(leaf.Inputs) != 2 || leaf.Inputs[0].Pattern != "*.c" || leaf.Inputs[1].Path != "files.txt" {
		t.Fatalf("unexpected inputs: %+v", leaf.Inputs)
	}
}

func TestParseExecutionChainInclude(t *testing.T) {
	sc := NewScript()
	src := `execution: e {
  @include compile | lint
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := sc.Executions["e"].Root
	if len(root.Parallel) != 2 {
		t.Fatalf("expected a parallel group of 2, got %+v", root)
	}
	if root.Parallel[0].Leaf == nil || root.Parallel[0].Leaf.ID != "compile" {
		t.Fatalf("expected @include to produce a leaf referencing compile, got %+v", root.Parallel[0])
	}
	if root.Parallel[1].Leaf == nil || root.Parallel[1].Leaf.ID != "lint" {
		t.Fatalf("expected the second atom to be a plain leaf lint, got %+v", root.Parallel[1])
	}
}

func TestParseExecutionChainIncludeForwardReference(t *testing.T) {
	// Unlike the process-body form, @include in a chain defers resolution
	// to internal/graph at build time, so it can reference a process or
	// execution declared later in the file.
	sc := NewScript()
	src := `execution: e {
  @include later
}
execution: later {
  compile
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf := sc.Executions["e"].Root.Leaf
	if leaf == nil || leaf.ID != "later" {
		t.Fatalf("expected a leaf referencing later, got %+v", sc.Executions["e"].Root)
	}
}

func TestParseProcessIncludeRejectsOtherPragmas(t *testing.T) {
	sc := NewScript()
	src := `process: p {
  @enable command-checking
}`
	if err := Parse("t.prun", src, nil, sc); err == nil {
		t.Fatalf("expected an error for a non-include @-keyword inside a process body")
	}
}

func TestParseExecutionChainRejectsOtherPragmas(t *testing.T) {
	sc := NewScript()
	src := `execution: e {
  @enable command-checking
}`
	if err := Parse("t.prun", src, nil, sc); err == nil {
		t.Fatalf("expected an error for a non-include @-keyword inside an execution chain")
	}
}

func TestParseIfTakesTrueBranch(t *testing.T) {
	sc := NewScript()
	sc.Scopes.Set("MODE", value.NewText("release", value.LineInfo{}))
	src := `@if (MODE is "release") {
  OPT = "yes"
} @else {
  OPT = "no"
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := sc.Scopes.Lookup("OPT")
	if !ok || v.GetString() != "yes" {
		t.Fatalf("expected OPT=yes, got %q ok=%v", v.GetString(), ok)
	}
}

func TestParseIfElseifChain(t *testing.T) {
	sc := NewScript()
	sc.Scopes.Set("MODE", value.NewText("debug", value.LineInfo{}))
	src := `@if (MODE is "release") {
  OPT = "a"
} @elseif (MODE is "debug") {
  OPT = "b"
} @else {
  OPT = "c"
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := sc.Scopes.Lookup("OPT")
	if v.GetString() != "b" {
		t.Fatalf("got %q, want b", v.GetString())
	}
}

func TestParseIfFalseBranchNotApplied(t *testing.T) {
	sc := NewScript()
	sc.Scopes.Set("MODE", value.NewText("debug", value.LineInfo{}))
	src := `@if (MODE is "release") {
  OPT = "a"
}`
	if err := Parse("t.prun", src, nil, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sc.Scopes.Lookup("OPT"); ok {
		t.Fatalf("OPT should not be set when the condition is false")
	}
}

func TestParseInclude(t *testing.T) {
	sc := NewScript()
	fs := memFS{"sub.prun": `NAME = "from-sub"`}
	src := `@include "sub.prun"`
	if err := Parse("main.prun", src, fs, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := sc.Scopes.Lookup("NAME")
	if !ok || v.GetString() != "from-sub" {
		t.Fatalf("expected NAME to be set by the included file, got %q ok=%v", v.GetString(), ok)
	}
}

func TestParseImportDeduplicated(t *testing.T) {
	sc := NewScript()
	fs := memFS{"sub.prun": `COUNT = "${COUNT}x"`}
	src := `@import "sub.prun"
@import "sub.prun"`
	if err := Parse("main.prun", src, fs, sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// COUNT references itself (unresolved the first time); the key check
	// is that importing twice didn't error and didn't re-run the file --
	// proven indirectly by not tripping AddProcess/AddExecution duplicate
	// checks in a larger script; here we just confirm no parse failure.
	if _, ok := sc.Scopes.Lookup("COUNT"); !ok {
		t.Fatalf("expected COUNT to be set once")
	}
}

func TestParseIncludeMissingFile(t *testing.T) {
	sc := NewScript()
	src := `@include "missing.prun"`
	if err := Parse("main.prun", src, memFS{}, sc); err == nil {
		t.Fatalf("expected an error for a missing include")
	}
}

func TestParseScriptErrorPragma(t *testing.T) {
	sc := NewScript()
	err := Parse("t.prun", `@error "no thanks"`, nil, sc)
	if err == nil {
		t.Fatalf("expected an error")
	}
	se, ok := err.(*ScriptError)
	if !ok {
		t.Fatalf("expected a *ScriptError, got %T", err)
	}
	if se.Message != "no thanks" {
		t.Fatalf("got %q", se.Message)
	}
}

func TestParseDuplicateProcessID(t *testing.T) {
	sc := NewScript()
	src := `process: p { none { } }
process: p { none { } }`
	if err := Parse("t.prun", src, nil, sc); err == nil {
		t.Fatalf("expected a duplicate-id error")
	}
}
