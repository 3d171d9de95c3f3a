package reminder

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/notify"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// PrayerKeyPrefix prefixes the registry key of every prayer alert.
const PrayerKeyPrefix = "prayer:"

// PrayerAlerts books one reminder per enabled prayer.
type PrayerAlerts struct {
	Registry    *Registry
	Calc        tahajjud.Calculator
	Location    geo.Location
	Method      string
	Enabled     []prayer.Name
	LeadMinutes int

	// OnFire runs after each alert is delivered. The daemon uses it to
	// book the following day.
	OnFire func(Booking)
}

// Bookings computes the next alert of every enabled prayer after now. An
// empty enabled set yields no bookings. A day whose schedule fell back to
// the static placeholder times books nothing.
func (a *PrayerAlerts) Bookings(now time.Time) []Booking {
	if len(a.Enabled) == 0 {
		return nil
	}

	zone, _ := tz.Zone(a.Location)
	now = now.In(zone)
	lead := time.Duration(clampLead(a.LeadMinutes)) * time.Minute

	type day struct {
		ref      time.Time
		schedule prayer.DailySchedule
	}
	var days []day
	for _, ref := range []time.Time{now, now.AddDate(0, 0, 1)} {
		s := a.Calc.Calculate(ref, a.Location, a.Method)
		if !s.Calculated() {
			log.Warn().
				Str("date", s.Date).
				Str("location", a.Location.Label()).
				Msg("[reminder] schedule not calculated, no alerts booked for the day")
			continue
		}
		days = append(days, day{ref: ref, schedule: s})
	}

	var out []Booking
	for _, name := range a.Enabled {
		var (
			at    time.Time
			found bool
			last  prayer.Prayer
		)
		for _, d := range days {
			p, ok := d.schedule.Get(name)
			if !ok {
				continue
			}
			last = p
			if cand := prayer.OccurrenceForDate(p, d.ref); cand.Add(-lead).After(now) {
				at, found = cand, true
				break
			}
		}
		if !found {
			if last.Name == "" {
				continue
			}
			at = prayer.UpcomingOccurrence(last, now.Add(lead))
		}
		at = at.In(zone)

		out = append(out, Booking{
			Key:     PrayerKeyPrefix + string(name),
			At:      at.Add(-lead),
			Message: prayerMessage(name, at, lead),
			OnFire:  a.OnFire,
		})
	}
	return out
}

// Reschedule cancels every pending prayer alert and books the next ones.
func (a *PrayerAlerts) Reschedule(now time.Time) ([]Booking, error) {
	bs := a.Bookings(now)
	return bs, a.Registry.Replace(PrayerKeyPrefix, bs)
}

// prayerMessage formats at on its own wall clock; callers pass it in the
// location's zone.
func prayerMessage(name prayer.Name, at time.Time, lead time.Duration) notify.Message {
	body := fmt.Sprintf("%s is at %s", name, at.Format("15:04"))
	if lead > 0 {
		body = fmt.Sprintf("%s in %s (%s)", name, prayer.FormatTimeRemaining(lead), at.Format("15:04"))
	}
	return notify.Message{
		Key:   PrayerKeyPrefix + string(name),
		Title: fmt.Sprintf("Time for %s", name),
		Body:  body,
		At:    at,
	}
}

func clampLead(n int) int {
	if n < 0 {
		return 0
	}
	if n > tahajjud.MaxLeadMinutes {
		return tahajjud.MaxLeadMinutes
	}
	return n
}
