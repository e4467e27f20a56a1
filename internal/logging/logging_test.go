package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"prun/internal/cleanup"
	"prun/internal/graph"
	"prun/internal/script"
	"prun/internal/value"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"ERROR": Error, "WARN": Warn, "INFO": Info, "DEBUG": Debug}
	for s, want := range cases {
		got, err := ParseLevel(s)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseLevel("TRACE"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("ParseLevel(TRACE): got %v, want ErrInvalidLevel", err)
	}
}

func TestLoggerGatesBySeverity(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	l.Debugf("hidden")
	l.Infof("also hidden")
	l.Warnf("shown")
	l.Errorf("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected Debug/Info suppressed at Warn level, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "shown too") {
		t.Errorf("expected Warn/Error lines present, got %q", out)
	}
}

func cmdLiteral(s string) value.StringLiteral {
	return value.NewText(s, value.LineInfo{})
}

func TestLogProcessRendersMissingInputsAndOutputs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)

	l.LogProcess(cleanup.ProcessLog{
		ID:            "compile",
		MissingInputs: []string{"src/a.c"},
		Transitions: []cleanup.TransitionLog{
			{
				Transition:     &graph.Transition{},
				Reason:         graph.ReasonMissing,
				MissingOutputs: []string{"out/a.o"},
			},
		},
	})

	out := buf.String()
	if !strings.HasPrefix(out, "process : compile {") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(out, "Missing input path: src/a.c") {
		t.Errorf("missing input line absent: %q", out)
	}
	if !strings.Contains(out, "Missing output path: out/a.o") {
		t.Errorf("missing output line absent: %q", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "}") {
		t.Errorf("block not closed: %q", out)
	}
}

func TestLogProcessRendersCommandResult(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cmd := script.Command{
		Command:  cmdLiteral("cc -c a.c -o a.o"),
		State:    script.Finished,
		Start:    start,
		End:      start.Add(2 * time.Second),
		Output:   "compiling\r\ndone\r\n",
		ExitCode: 0,
	}
	transition := &graph.Transition{Commands: []script.Command{cmd}}

	l.LogProcess(cleanup.ProcessLog{
		ID: "compile",
		Transitions: []cleanup.TransitionLog{
			{Transition: transition, Reason: graph.ReasonForced},
		},
	})

	out := buf.String()
	if strings.Contains(out, "\r") {
		t.Errorf("carriage returns not stripped: %q", out)
	}
	if !strings.Contains(out, "[F--]") {
		t.Errorf("reason tag missing: %q", out)
	}
	if !strings.Contains(out, "cc -c a.c -o a.o") {
		t.Errorf("command line missing: %q", out)
	}
	if !strings.Contains(out, "compiling\ndone") {
		t.Errorf("output missing: %q", out)
	}
	if !strings.Contains(out, "finished successfully after 2 seconds") {
		t.Errorf("footer missing: %q", out)
	}
}

func TestLogProcessRendersFailure(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cmd := script.Command{
		Command:  cmdLiteral("false"),
		State:    script.Failed,
		Start:    start,
		End:      start.Add(1 * time.Second),
		ExitCode: 1,
	}
	transition := &graph.Transition{Commands: []script.Command{cmd}}

	l.LogProcess(cleanup.ProcessLog{
		ID:          "check",
		Transitions: []cleanup.TransitionLog{{Transition: transition, Reason: graph.ReasonMissing}},
	})

	out := buf.String()
	if !strings.Contains(out, "failed with exit code 1 after 1 seconds") {
		t.Errorf("failure footer missing: %q", out)
	}
}

func TestLogRemovalGatedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	l.LogRemoval("remove-temporaries", "scratch.tmp", nil)
	if buf.Len() != 0 {
		t.Errorf("expected removal suppressed below Info, got %q", buf.String())
	}

	l2 := New(&buf, Info)
	l2.LogRemoval("remove-temporaries", "scratch.tmp", nil)
	if !strings.Contains(buf.String(), "removed scratch.tmp") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	l2.LogRemoval("remove-remains", "stale.out", errors.New("permission denied"))
	if !strings.Contains(buf.String(), "failed to remove stale.out") {
		t.Errorf("got %q", buf.String())
	}
}
