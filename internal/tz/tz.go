// Package tz isolates the timezone arithmetic of the engine: which calendar
// day a location is on, and how an instant reads on its wall clock.
//
// Nothing here fails. A timezone name that cannot be loaded degrades to a
// fixed offset derived from the location's longitude.
package tz

import (
	"fmt"
	"math"
	"time"

	"github.com/smokyabdulrahman/salah/internal/geo"
)

// Zone resolves the location's IANA zone. ok is false when the name was
// empty or unknown and a longitude based offset was used instead.
func Zone(loc geo.Location) (zone *time.Location, ok bool) {
	if loc.Timezone != "" {
		if z, err := time.LoadLocation(loc.Timezone); err == nil {
			return z, true
		}
	}
	return LongitudeZone(loc.Longitude), false
}

// LongitudeZone returns a fixed zone of round(lon/15) hours.
func LongitudeZone(lon float64) *time.Location {
	hours := 0
	if !math.IsNaN(lon) && !math.IsInf(lon, 0) {
		hours = int(math.Round(lon / 15))
	}
	if hours > 14 {
		hours = 14
	} else if hours < -12 {
		hours = -12
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d", hours), hours*3600)
}

// CalendarDate returns the (year, month, day) observed at loc for instant t.
//
// The caller's own zone is irrelevant: 23:30 UTC is already the next day in
// Asia/Tokyo and still the same day in America/New_York.
func CalendarDate(t time.Time, loc geo.Location) (year int, month time.Month, day int) {
	z, _ := Zone(loc)
	return t.In(z).Date()
}

// DayStart returns local midnight of the day t falls on at loc.
func DayStart(t time.Time, loc geo.Location) time.Time {
	z, _ := Zone(loc)
	y, m, d := t.In(z).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, z)
}

// DateString formats the location's calendar day as YYYY-MM-DD.
func DateString(t time.Time, loc geo.Location) string {
	y, m, d := CalendarDate(t, loc)
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// Clock formats t as the location's 24-hour "HH:MM" wall-clock time.
func Clock(t time.Time, loc geo.Location) string {
	z, _ := Zone(loc)
	return t.In(z).Format("15:04")
}
