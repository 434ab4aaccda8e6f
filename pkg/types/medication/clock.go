package medication

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClockLayout is the canonical stored reminder time format (24-hour, zero padded).
const ClockLayout = "15:04"

var (
	clock12Re = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([AaPp])\.?\s*[Mm]\.?$`)
	clock24Re = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// FormatMinute renders t as "HH:MM" in t's location.
func FormatMinute(t time.Time) string {
	return t.Format(ClockLayout)
}

// ToCanonicalClock converts "8:00 AM", "8 pm", "08:00" or "20:00" into the
// stored "HH:MM" form.
func ToCanonicalClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := clock12Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || minute > 59 {
			return "", fmt.Errorf("clock time out of range: %q", s)
		}
		pm := strings.EqualFold(m[3], "p")
		switch {
		case h == 12 && !pm:
			h = 0
		case h != 12 && pm:
			h += 12
		}
		return fmt.Sprintf("%02d:%02d", h, minute), nil
	}
	if m := clock24Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h > 23 || minute > 59 {
			return "", fmt.Errorf("clock time out of range: %q", s)
		}
		return fmt.Sprintf("%02d:%02d", h, minute), nil
	}
	return "", fmt.Errorf("unrecognized clock time: %q", s)
}

// ToDisplayClock renders a stored "HH:MM" value as "H:MM AM/PM". Values that
// are not canonical are returned unchanged.
func ToDisplayClock(s string) string {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return s
	}
	return t.Format("3:04 PM")
}

// CanonicalizeTimes converts every entry to "HH:MM", dropping duplicates and
// sorting. Entries that cannot be parsed are reported in the error but the
// remaining values are still returned.
func CanonicalizeTimes(times []string) ([]string, error) {
	seen := make(map[string]struct{}, len(times))
	out := make([]string, 0, len(times))
	var bad []string
	for _, raw := range times {
		c, err := ToCanonicalClock(raw)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	if len(bad) > 0 {
		return out, fmt.Errorf("invalid reminder times: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

//Personal.AI order the ending
