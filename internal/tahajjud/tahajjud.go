// Package tahajjud derives the night window between Isha and the next Fajr
// and the late-night reminder time placed inside it.
package tahajjud

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// Strategy selects how the reminder time is placed in the night.
type Strategy string

const (
	// Custom uses Options.CustomTime and skips the astronomy entirely.
	Custom Strategy = "custom"
	// LastThird fires at Fajr minus a third of the night.
	LastThird Strategy = "lastThird"
	// Middle fires halfway between Isha and Fajr.
	Middle Strategy = "middle"
)

// DefaultClock is used when neither the night nor Options.Fallback give a time.
const DefaultClock = "02:30"

// MaxLeadMinutes caps Options.LeadMinutes.
const MaxLeadMinutes = 180

// ErrNoWindow is returned when no positive Isha to Fajr span could be computed.
var ErrNoWindow = errors.New("no night window")

// ParseStrategy accepts the strategy names case-insensitively, along with
// "last-third" and "last_third". Anything else is reported as unknown.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)) {
	case "custom":
		return Custom, true
	case "lastthird":
		return LastThird, true
	case "middle":
		return Middle, true
	}
	return "", false
}

// Options are the persisted reminder settings.
type Options struct {
	Method      string   // independent of the main schedule's method
	Strategy    Strategy // empty means LastThird
	CustomTime  string   // "HH:MM", used by Custom
	Fallback    string   // "HH:MM", used when the night cannot be computed
	LeadMinutes int      // subtracted from the reminder, clamped to 0..180
}

// Calculator is the schedule source, usually a *prayer.Calculator.
type Calculator interface {
	Calculate(date time.Time, loc geo.Location, methodName string) prayer.DailySchedule
}

// NightWindow spans from one evening's Isha to the following Fajr.
type NightWindow struct {
	Isha time.Time `json:"isha"`
	Fajr time.Time `json:"fajr"`
}

// Duration is the length of the night.
func (w NightWindow) Duration() time.Duration {
	return w.Fajr.Sub(w.Isha)
}

// LastThird returns the start of the last third of the night.
func (w NightWindow) LastThird() time.Time {
	return w.Fajr.Add(-w.Duration() / 3)
}

// Middle returns the midpoint of the night.
func (w NightWindow) Middle() time.Time {
	return w.Isha.Add(w.Duration() / 2)
}

// Compute returns the night that starts with Isha on ref's calendar day at
// loc and ends with Fajr on the following day. Both schedules use the same
// method. A fallback schedule on either day is an error.
func Compute(calc Calculator, loc geo.Location, ref time.Time, methodName string) (NightWindow, error) {
	day := tz.DayStart(ref, loc)
	today := calc.Calculate(day, loc, methodName)
	tomorrow := calc.Calculate(day.AddDate(0, 0, 1), loc, methodName)
	if !today.Calculated() || !tomorrow.Calculated() {
		return NightWindow{}, fmt.Errorf("%w: schedule unavailable for %s", ErrNoWindow, tz.DateString(ref, loc))
	}

	isha, ok := today.Get(prayer.Isha)
	if !ok {
		return NightWindow{}, fmt.Errorf("%w: no Isha on %s", ErrNoWindow, today.Date)
	}
	fajr, ok := tomorrow.Get(prayer.Fajr)
	if !ok {
		return NightWindow{}, fmt.Errorf("%w: no Fajr on %s", ErrNoWindow, tomorrow.Date)
	}

	w := NightWindow{
		Isha: prayer.OccurrenceForDate(isha, day),
		Fajr: prayer.OccurrenceForDate(fajr, day.AddDate(0, 0, 1)),
	}
	if !w.Fajr.After(w.Isha) {
		w.Fajr = w.Fajr.AddDate(0, 0, 1)
	}
	if w.Duration() <= 0 {
		return NightWindow{}, fmt.Errorf("%w: Fajr %s not after Isha %s", ErrNoWindow, w.Fajr, w.Isha)
	}
	return w, nil
}

// ReminderClock returns the local "HH:MM" of the reminder for the night
// starting on ref's day. It never fails: when the night cannot be computed
// it returns opts.Fallback, or DefaultClock when that is empty.
func ReminderClock(calc Calculator, loc geo.Location, ref time.Time, opts Options) string {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = LastThird
	}

	if strategy == Custom {
		if strings.TrimSpace(opts.CustomTime) == "" {
			return fallbackClock(opts)
		}
		return normalizeClock(opts.CustomTime)
	}

	w, err := Compute(calc, loc, ref, opts.Method)
	if err != nil {
		log.Warn().Err(err).
			Str("location", loc.Label()).
			Str("strategy", string(strategy)).
			Msg("[tahajjud] using fallback reminder time")
		return fallbackClock(opts)
	}

	switch strategy {
	case Middle:
		return tz.Clock(w.Middle(), loc)
	default:
		return tz.Clock(w.LastThird(), loc)
	}
}

// FireTime returns the next instant after now at which the reminder should
// fire: the reminder clock on now's day at loc, minus the lead time, moved
// forward by whole days until it is after now.
func FireTime(calc Calculator, loc geo.Location, now time.Time, opts Options) time.Time {
	h, m := prayer.ParseClock(ReminderClock(calc, loc, now, opts))

	zone, _ := tz.Zone(loc)
	local := now.In(zone)
	t := time.Date(local.Year(), local.Month(), local.Day(), h, m, 0, 0, zone)
	t = t.Add(-time.Duration(clampLead(opts.LeadMinutes)) * time.Minute)

	for !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func clampLead(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxLeadMinutes {
		return MaxLeadMinutes
	}
	return n
}

func fallbackClock(opts Options) string {
	if strings.TrimSpace(opts.Fallback) != "" {
		return normalizeClock(opts.Fallback)
	}
	return DefaultClock
}

func normalizeClock(s string) string {
	h, m := prayer.ParseClock(s)
	return fmt.Sprintf("%02d:%02d", h, m)
}
