package prayer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockRe accepts "5:07", "05:07 PM", "5.07pm" and "15:02 (BST)".
var clockRe = regexp.MustCompile(`^\s*(\d{1,2})\s*[:.]\s*(\d{1,2})\s*(?:([AaPp])\.?\s*[Mm]\.?)?`)

// ParseClock parses a time-of-day label into hour and minute. Values are
// clamped to 0..23 and 0..59. Unparsable input yields 00:00.
func ParseClock(s string) (hour, minute int) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])

	switch strings.ToUpper(m[3]) {
	case "A":
		hour %= 12
	case "P":
		hour = hour%12 + 12
	}

	return clamp(hour, 0, 23), clamp(minute, 0, 59)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OccurrenceForDate resolves p against ref.
//
// A pinned prayer returns its own instant and ignores ref, so a long-running
// display does not drift onto another day. Otherwise the time-of-day label
// is placed on ref's calendar date in ref's location.
func OccurrenceForDate(p Prayer, ref time.Time) time.Time {
	if p.Pinned() {
		return time.Unix(p.Timestamp, 0).In(ref.Location())
	}
	h, m := ParseClock(p.Time)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, 0, 0, ref.Location())
}

// UpcomingOccurrence is OccurrenceForDate moved forward by whole calendar
// days until it is strictly after ref. An occurrence equal to ref rolls.
func UpcomingOccurrence(p Prayer, ref time.Time) time.Time {
	t := OccurrenceForDate(p, ref)
	for !t.After(ref) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
