package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// placeholders, longest-prefix first so "%ga"/"%ge" don't get clipped by a
// bare "%g" rule -- there isn't one, but keeping the ordering defensive
// matches how the original's ProgressClock-style format string is meant to
// be read literally rather than parsed by a generic printf engine.
var placeholderOrder = []string{
	"%dY", "%dM", "%dD", "%lH", "%lM", "%lS",
	"%re", "%ge", "%ra", "%ga", "%P", "%c", "%t", "%p", "%%",
}

// Format renders tmpl against s, substituting the placeholders from §6:
// %c/%t current/total, %p/%P percent (integer/one-decimal), %re/%ge
// recent/global ETA, %ra/%ga recent/global average speed, plus the
// default format string's date-time pieces (%dY-%dM-%dD %lH:%lM:%lS).
func Format(tmpl string, s Snapshot) string {
	values := map[string]string{
		"%dY": pad2(s.Now.Year() % 100),
		"%dM": pad2(int(s.Now.Month())),
		"%dD": pad2(s.Now.Day()),
		"%lH": pad2(s.Now.Hour()),
		"%lM": pad2(s.Now.Minute()),
		"%lS": pad2(s.Now.Second()),
		"%c":  strconv.Itoa(s.Current),
		"%t":  strconv.Itoa(s.Total),
		"%p":  strconv.Itoa(int(s.Percent)),
		"%P":  fmt.Sprintf("%.1f", s.Percent),
		"%re": etaString(s.RecentETA),
		"%ge": etaString(s.GlobalETA),
		"%ra": rateString(s.RecentRate),
		"%ga": rateString(s.GlobalRate),
		"%%":  "%",
	}

	var b strings.Builder
	for i := 0; i < len(tmpl); {
		matched := false
		for _, ph := range placeholderOrder {
			if strings.HasPrefix(tmpl[i:], ph) {
				b.WriteString(values[ph])
				i += len(ph)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(tmpl[i])
			i++
		}
	}
	return b.String()
}

func pad2(n int) string {
	return fmt.Sprintf("%02d", n)
}

func etaString(d time.Duration) string {
	if d <= 0 {
		return "--:--:--"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func rateString(r float64) string {
	if r <= 0 {
		return "0.0/s"
	}
	return fmt.Sprintf("%.1f/s", r)
}
