package runner

import (
	"context"
	"sync"
	"testing"

	"prun/internal/graph"
	"prun/internal/script"
	"prun/internal/value"
)

// fakeSpawner records every SpawnRequest and returns a scripted exit
// code/output for each successive call.
type fakeSpawner struct {
	mu       sync.Mutex
	requests []SpawnRequest
	results  []struct {
		output []byte
		code   int
		err    error
	}
}

func (f *fakeSpawner) push(output string, code int, err error) {
	f.results = append(f.results, struct {
		output []byte
		code   int
		err    error
	}{[]byte(output), code, err})
}

func (f *fakeSpawner) Spawn(ctx context.Context, req SpawnRequest) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.results) {
		return nil, 0, nil
	}
	r := f.results[i]
	return r.output, r.code, r.err
}

func mustParse(t *testing.T, raw string) value.StringLiteral {
	t.Helper()
	lit, err := script.ParseLiteralText(raw, value.LineInfo{Line: 1})
	if err != nil {
		t.Fatalf("ParseLiteralText(%q): %v", raw, err)
	}
	return lit
}

func posixShell() *script.Shell {
	return &script.Shell{
		ID:             "default",
		Path:           "/bin/sh",
		CmdLine:        value.NewText(`-c "{?}"`, value.LineInfo{}),
		OutputEncoding: script.UTF8,
	}
}

func TestRunSpawnsWithResolvedCommandLine(t *testing.T) {
	sh := posixShell()
	tr := &graph.Transition{
		ProcessID: "p",
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "echo hi")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("hi\n", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sp.requests) != 1 {
		t.Fatalf("got %d spawn requests, want 1", len(sp.requests))
	}
	req := sp.requests[0]
	wantArgv := []string{"-c", "echo hi"}
	if len(req.Argv) != 2 || req.Argv[0] != wantArgv[0] || req.Argv[1] != wantArgv[1] {
		t.Errorf("argv = %v, want %v", req.Argv, wantArgv)
	}
	if req.Path != "/bin/sh" {
		t.Errorf("path = %q, want /bin/sh", req.Path)
	}

	got := tr.Commands[0]
	if got.State != script.Finished {
		t.Errorf("state = %v, want Finished", got.State)
	}
	if got.Output != "hi\n" {
		t.Errorf("output = %q, want %q", got.Output, "hi\n")
	}
	if got.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", got.ExitCode)
	}
}

func TestRunResolvesPPThreadPerWorker(t *testing.T) {
	sh := posixShell()
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "worker ${PP_THREAD}")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 3, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := sp.requests[0]
	want := "worker 3"
	if len(req.Argv) != 2 || req.Argv[1] != want {
		t.Errorf("argv[1] = %q, want %q", req.Argv[1], want)
	}
}

func TestRunAppliesShellReplacements(t *testing.T) {
	sh := posixShell()
	sh.Replacements = []script.ReplaceRule{
		{Pattern: `\\`, Replacement: `\\`},
		{Pattern: `"`, Replacement: `\"`},
	}
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, `echo "a\b"`)},
		},
	}
	sp := &fakeSpawner{}
	sp.push("", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := sp.requests[0]
	want := `echo \"a\\b\"`
	if len(req.Argv) != 2 || req.Argv[1] != want {
		t.Errorf("argv[1] = %q, want %q", req.Argv[1], want)
	}
}

func TestRunAbortsOnFailureWithChecking(t *testing.T) {
	sh := posixShell()
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "false")},
			{Shell: sh, Command: mustParse(t, "echo never")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("", 1, nil)
	sp.push("", 0, nil)

	r := NewRunner(sp, true)
	err := r.Run(context.Background(), 0, tr)
	if err == nil {
		t.Fatal("Run: got nil error, want a command-checking abort error")
	}
	if len(sp.requests) != 1 {
		t.Fatalf("spawned %d commands, want 1 (second should be skipped)", len(sp.requests))
	}
	if tr.Commands[0].State != script.Failed {
		t.Errorf("command[0] state = %v, want Failed", tr.Commands[0].State)
	}
}

func TestRunContinuesOnFailureWithoutChecking(t *testing.T) {
	sh := posixShell()
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "false")},
			{Shell: sh, Command: mustParse(t, "echo still-runs")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("", 1, nil)
	sp.push("", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sp.requests) != 2 {
		t.Fatalf("spawned %d commands, want 2", len(sp.requests))
	}
	if tr.Commands[0].State != script.Failed {
		t.Errorf("command[0] state = %v, want Failed", tr.Commands[0].State)
	}
	if tr.Commands[1].State != script.Finished {
		t.Errorf("command[1] state = %v, want Finished", tr.Commands[1].State)
	}
}

func TestRunDecodesUTF16Output(t *testing.T) {
	sh := posixShell()
	sh.OutputEncoding = script.UTF16
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "echo hi")},
		},
	}
	// "hi\r\n" encoded little-endian UTF-16.
	raw := []byte{'h', 0, 'i', 0, '\r', 0, '\n', 0}
	sp := &fakeSpawner{}
	sp.push(string(raw), 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Commands[0].Output != "hi\n" {
		t.Errorf("output = %q, want %q", tr.Commands[0].Output, "hi\n")
	}
}

func TestRunKeepsBytesWhenUTF16DecodeFails(t *testing.T) {
	sh := posixShell()
	sh.OutputEncoding = script.UTF16
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "echo hi")},
		},
	}
	// Odd byte count: not valid UTF-16, decodeOutput must leave it alone.
	sp := &fakeSpawner{}
	sp.push("abc", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Commands[0].Output != "abc" {
		t.Errorf("output = %q, want %q", tr.Commands[0].Output, "abc")
	}
}

func TestRunHonoursRawShell(t *testing.T) {
	sh := &script.Shell{
		ID:         "native",
		Path:       `C:\Windows\System32\cmd.exe`,
		CmdLine:    value.NewText(`/C {?}`, value.LineInfo{}),
		RawCmdLine: true,
	}
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "dir")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("", 0, nil)

	r := NewRunner(sp, false)
	if err := r.Run(context.Background(), 0, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	req := sp.requests[0]
	if !req.Raw {
		t.Fatal("request.Raw = false, want true")
	}
	if req.RawLine != "/C dir" {
		t.Errorf("RawLine = %q, want %q", req.RawLine, "/C dir")
	}
}

func TestRunStopsBeforeNextCommandWhenCancelled(t *testing.T) {
	sh := posixShell()
	tr := &graph.Transition{
		Commands: []script.Command{
			{Shell: sh, Command: mustParse(t, "echo one")},
			{Shell: sh, Command: mustParse(t, "echo two")},
		},
	}
	sp := &fakeSpawner{}
	sp.push("one\n", 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(sp, false)
	err := r.Run(ctx, 0, tr)
	if err == nil {
		t.Fatal("Run: got nil error, want context cancellation error")
	}
	if len(sp.requests) != 0 {
		t.Fatalf("spawned %d commands after cancellation, want 0", len(sp.requests))
	}
}
