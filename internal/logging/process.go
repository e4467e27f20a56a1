package logging

import (
	"fmt"
	"strings"

	"prun/internal/cleanup"
	"prun/internal/graph"
	"prun/internal/script"
)

// LogProcess renders one process's post-run block (§4.6 step 1), grounded
// on original_source/src/pp/Process.hpp's print(ostream&, bool&): missing
// inputs first, then missing outputs, then each attempted transition's
// command results, matching that ordering exactly.
func (l *Logger) LogProcess(p cleanup.ProcessLog) {
	if l.level < Warn {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "process : %s {", p.ID)
	wrote := false

	for _, mi := range p.MissingInputs {
		fmt.Fprintf(&b, "\n%s", l.errLine("Missing input path: "+mi))
		wrote = true
	}

	for _, tl := range p.Transitions {
		for _, mo := range tl.MissingOutputs {
			fmt.Fprintf(&b, "\n%s", l.errLine("Missing output path: "+mo))
			wrote = true
		}
	}

	for _, tl := range p.Transitions {
		if tl.Cancelled {
			fmt.Fprintf(&b, "\n%s", l.errLine(fmt.Sprintf("Transition cancelled (%s)", tl.Reason.Tag())))
			wrote = true
			continue
		}
		for i := range tl.Transition.Commands {
			b.WriteString(l.renderCommand(&tl.Transition.Commands[i], tl.Reason))
			wrote = true
		}
		if tl.Err != nil {
			fmt.Fprintf(&b, "\n%s", l.errLine(tl.Err.Error()))
		}
	}

	if !wrote {
		b.WriteByte('\n')
	}
	b.WriteByte('}')

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, b.String())
}

// renderCommand matches Command.hpp's printResults(): a date-stamped
// "[FMC] <command>" line, the command's merged output with \r stripped,
// and a footer reporting success/failure, exit code and elapsed seconds.
func (l *Logger) renderCommand(c *script.Command, reason graph.Reason) string {
	var b strings.Builder
	if c.Start.IsZero() {
		fmt.Fprintf(&b, "\n%s", l.errLine("Command was not executed: "+c.Command.GetString()))
		return b.String()
	}

	tag := reason.Tag()
	if l.styled {
		tag = styleTag(tag)
	}
	fmt.Fprintf(&b, "\n%s: %s %s\n", c.Start.Format(timeFormat), tag, c.Command.GetString())

	out := stripCR(c.Output)
	if strings.TrimSpace(out) != "" {
		b.WriteString(out)
		if !strings.HasSuffix(out, "\n") {
			b.WriteByte('\n')
		}
	}

	seconds := c.Duration().Seconds()
	if c.ExitCode == 0 {
		footer := fmt.Sprintf("%s: Command finished successfully after %.0f seconds.", c.End.Format(timeFormat), seconds)
		if l.styled {
			footer = styleOK.Render(footer)
		}
		fmt.Fprintln(&b, footer)
	} else {
		footer := fmt.Sprintf("%s: Command failed with exit code %d after %.0f seconds.", c.End.Format(timeFormat), c.ExitCode, seconds)
		if l.styled {
			footer = styleErr.Render(footer)
		}
		fmt.Fprintln(&b, footer)
	}
	return b.String()
}

func (l *Logger) errLine(msg string) string {
	line := "Error: " + msg
	if l.styled {
		return styleErr.Render(line)
	}
	return line
}

func stripCR(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return strings.ReplaceAll(s, "\r", "")
}

const timeFormat = "2006-01-02 15:04:05"

// LogRemoval reports one cleanup deletion attempt (§4.6 steps 3-5).
func (l *Logger) LogRemoval(section, path string, err error) {
	if l.level < Info {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		msg := fmt.Sprintf("%s: failed to remove %s: %v", section, path, err)
		if l.styled {
			msg = styleErr.Render(msg)
		}
		fmt.Fprintln(l.out, msg)
		return
	}
	fmt.Fprintf(l.out, "%s: removed %s\n", section, path)
}
