package prayer

import (
	"time"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// Scheduler builds daily schedules. *Calculator implements it.
type Scheduler interface {
	Calculate(date time.Time, loc geo.Location, methodName string) DailySchedule
}

// Upcoming returns the first prayer among names after now at loc.
//
// When every selected entry of today has passed, tomorrow's schedule is
// built and its first selected entry returned, so the result carries
// tomorrow's own time rather than today's time shifted by a day.
// ok is false when names selects nothing.
func Upcoming(s Scheduler, loc geo.Location, methodName string, names []Name, now time.Time) (p Prayer, at time.Time, ok bool) {
	zone, _ := tz.Zone(loc)
	ref := now.In(zone)

	today := s.Calculate(ref, loc, methodName).Filter(names)
	next, nextAt := NextOccurrence(today, ref)
	if next == nil {
		return Prayer{}, time.Time{}, false
	}
	if OccurrenceForDate(*next, ref).After(ref) {
		return *next, nextAt, true
	}

	tomorrow := s.Calculate(tz.DayStart(ref, loc).AddDate(0, 0, 1), loc, methodName).Filter(names)
	if tn, tAt := NextOccurrence(tomorrow, ref); tn != nil {
		return *tn, tAt, true
	}
	return *next, nextAt, true
}

// WindowAt returns the progress window around now for today's selected
// prayers at loc.
func WindowAt(s Scheduler, loc geo.Location, methodName string, names []Name, now time.Time) (Window, bool) {
	zone, _ := tz.Zone(loc)
	ref := now.In(zone)
	return ProgressWindow(s.Calculate(ref, loc, methodName).Filter(names), ref)
}
