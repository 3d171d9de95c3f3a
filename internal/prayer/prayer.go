package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/astro"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// Name identifies one of the daily solar events.
type Name string

const (
	Fajr    Name = "Fajr"
	Sunrise Name = "Sunrise"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Sunset  Name = "Sunset"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Order lists every name in solar order. A successful DailySchedule always
// holds exactly these entries in this order.
var Order = []Name{Fajr, Sunrise, Dhuhr, Asr, Sunset, Maghrib, Isha}

// DefaultNames are shown by default. Sunset coincides with Maghrib for most
// methods and is hidden.
var DefaultNames = []Name{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps prayer names to one or two letter abbreviations.
var ShortNames = map[Name]string{
	Fajr:    "F",
	Sunrise: "S",
	Dhuhr:   "D",
	Asr:     "A",
	Sunset:  "St",
	Maghrib: "M",
	Isha:    "I",
}

// IsPrayer reports whether n is one of the five obligatory prayers.
// Sunrise and Sunset are computed but never notified.
func (n Name) IsPrayer() bool {
	return n != Sunrise && n != Sunset
}

// ParseName matches s case-insensitively against Order.
func ParseName(s string) (Name, bool) {
	s = strings.TrimSpace(s)
	for _, n := range Order {
		if strings.EqualFold(string(n), s) {
			return n, true
		}
	}
	return "", false
}

// ParseNames parses a comma-separated list such as "Fajr,Dhuhr,Isha".
func ParseNames(list string) ([]Name, error) {
	var names []Name
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, ok := ParseName(part)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", strings.TrimSpace(part))
		}
		names = append(names, n)
	}
	return names, nil
}

// Prayer is one named prayer within a day.
type Prayer struct {
	Name Name   `json:"name"`
	Time string `json:"time"` // local "HH:MM", 24-hour

	// Timestamp is the Unix time in seconds. Zero means the prayer has not
	// been resolved to an absolute instant and only Time is meaningful.
	Timestamp int64 `json:"timestamp"`
}

// Pinned reports whether p carries an authoritative absolute instant.
func (p Prayer) Pinned() bool {
	return p.Timestamp > 0
}

// DailySchedule is one day's prayers for one location.
type DailySchedule struct {
	Date    string   `json:"date"` // YYYY-MM-DD in the location's zone
	Prayers []Prayer `json:"prayers"`
	Hijri   string   `json:"hijri,omitempty"`
}

// Calculated is false for the fallback schedule, whose timestamps are all zero.
func (s DailySchedule) Calculated() bool {
	if len(s.Prayers) == 0 {
		return false
	}
	for _, p := range s.Prayers {
		if !p.Pinned() {
			return false
		}
	}
	return true
}

// Get returns the entry called name.
func (s DailySchedule) Get(name Name) (Prayer, bool) {
	for _, p := range s.Prayers {
		if p.Name == name {
			return p, true
		}
	}
	return Prayer{}, false
}

// Filter returns the entries whose names are in names, keeping schedule order.
func (s DailySchedule) Filter(names []Name) []Prayer {
	want := make(map[Name]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]Prayer, 0, len(names))
	for _, p := range s.Prayers {
		if want[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// fallbackTimes are illustrative only.
var fallbackTimes = map[Name]string{
	Fajr:    "05:00",
	Sunrise: "06:15",
	Dhuhr:   "12:30",
	Asr:     "15:45",
	Sunset:  "18:20",
	Maghrib: "18:25",
	Isha:    "19:45",
}

// Fallback returns the static schedule used when calculation fails. Every
// timestamp is zero.
func Fallback(date time.Time, loc geo.Location) DailySchedule {
	prayers := make([]Prayer, len(Order))
	for i, n := range Order {
		prayers[i] = Prayer{Name: n, Time: fallbackTimes[n]}
	}
	return DailySchedule{Date: tz.DateString(date, loc), Prayers: prayers}
}

// Calculator builds daily schedules from an astronomical provider. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	provider astro.Provider
	locale   string
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLocale sets the BCP 47 locale of the Hijri date string.
func WithLocale(locale string) Option {
	return func(c *Calculator) { c.locale = locale }
}

// NewCalculator returns a Calculator backed by p, or by astro.Solar when p is nil.
func NewCalculator(p astro.Provider, opts ...Option) *Calculator {
	if p == nil {
		p = astro.Solar{}
	}
	c := &Calculator{provider: p}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var std = NewCalculator(nil)

// Calculate builds the schedule with the local solar provider.
func Calculate(date time.Time, loc geo.Location, methodName string) DailySchedule {
	return std.Calculate(date, loc, methodName)
}

// Calculate returns the schedule of the calendar day that date falls on at
// loc. Only that calendar day matters, not the time of day.
//
// It never fails: on any error the cause is logged and Fallback is returned.
func (c *Calculator) Calculate(date time.Time, loc geo.Location, methodName string) DailySchedule {
	s, err := c.build(date, loc, methodName)
	if err != nil {
		log.Error().Err(err).
			Str("location", loc.Label()).
			Str("method", methodName).
			Time("date", date).
			Msg("[prayer] calculation failed, using fallback schedule")
		return Fallback(date, loc)
	}
	return s
}

func (c *Calculator) build(date time.Time, loc geo.Location, methodName string) (s DailySchedule, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	if err := loc.Validate(); err != nil {
		return DailySchedule{}, err
	}

	preset := method.Resolve(methodName)
	zone, _ := tz.Zone(loc)
	y, m, d := tz.CalendarDate(date, loc)

	raw, err := c.provider.Times(astro.Request{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Year:      y,
		Month:     m,
		Day:       d,
		Zone:      zone,
	}, preset)
	if err != nil {
		return DailySchedule{}, fmt.Errorf("provider (%s): %w", preset.Name, err)
	}

	instants := []time.Time{raw.Fajr, raw.Sunrise, raw.Dhuhr, raw.Asr, raw.Sunset, raw.Maghrib, raw.Isha}
	prayers := make([]Prayer, len(Order))
	for i, name := range Order {
		t := instants[i]
		if t.IsZero() {
			return DailySchedule{}, fmt.Errorf("provider returned no time for %s", name)
		}
		if i > 0 && t.Before(instants[i-1]) {
			return DailySchedule{}, fmt.Errorf("provider returned %s before %s", name, Order[i-1])
		}
		prayers[i] = Prayer{Name: name, Time: tz.Clock(t, loc), Timestamp: t.Unix()}
	}

	return DailySchedule{
		Date:    fmt.Sprintf("%04d-%02d-%02d", y, int(m), d),
		Prayers: prayers,
		Hijri:   tz.Hijri(date, loc, c.locale),
	}, nil
}
