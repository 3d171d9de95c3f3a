package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

func runToday(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	_, day := s.day(0)
	prayers := day.Filter(s.names)

	// Find current and next prayers.
	now := s.now.In(s.zone())
	var current *prayer.Prayer
	if prev, at := prayer.PreviousPrayer(prayers, now); prev != nil && sameDate(at, now) {
		current = prev
	}
	next, nextAt, hasNext := prayer.Upcoming(s.calc, s.loc, s.cfg.Method, s.names, now)

	if FlagJSON {
		out := todayJSON{
			Location: locationJSON(s),
			Date:     todayJSONDate{Gregorian: day.Date, Hijri: day.Hijri},
			Method:   method.Resolve(s.cfg.Method).Name,
			Timings:  timingsJSON(prayers, now, s.layout),
		}
		if current != nil {
			out.Current = strings.ToLower(string(current.Name))
		}
		if hasNext {
			out.Next = &todayJSONNext{
				Prayer:    strings.ToLower(string(next.Name)),
				Time:      nextAt.In(s.zone()).Format(s.layout),
				Remaining: prayer.FormatTimeRemaining(nextAt.Sub(now)),
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintf(w, "  %s\n", s.zone())
	fmt.Fprintf(w, "  %s\n", now.Format("Monday 02 January 2006"))
	if day.Hijri != "" {
		fmt.Fprintf(w, "  %s\n", day.Hijri)
	}
	fmt.Fprintf(w, "  %s\n", display.Gray(method.Resolve(s.cfg.Method).Name))
	if !day.Calculated() {
		fmt.Fprintf(w, "  %s\n", display.Yellow("Times could not be calculated; showing approximate defaults."))
	}
	fmt.Fprintln(w)

	printPrayerLines(w, prayers, current, next, nextAt, hasNext, now, s.layout)
	fmt.Fprintln(w)
	return nil
}

// printPrayerLines renders one aligned line per prayer, dimming the current
// one and marking the next with its countdown.
func printPrayerLines(w io.Writer, prayers []prayer.Prayer, current *prayer.Prayer, next prayer.Prayer, nextAt time.Time, hasNext bool, now time.Time, layout string) {
	// Find the max prayer name length for alignment.
	maxNameLen := 0
	for _, p := range prayers {
		if len(p.Name) > maxNameLen {
			maxNameLen = len(p.Name)
		}
	}

	for _, p := range prayers {
		at := prayer.OccurrenceForDate(p, now)
		line := fmt.Sprintf("  %s  %s", padRight(string(p.Name), maxNameLen), at.In(now.Location()).Format(layout))

		switch {
		case hasNext && p.Name == next.Name && sameDate(nextAt, now):
			suffix := fmt.Sprintf("  <- next in %s", prayer.FormatTimeRemaining(nextAt.Sub(now)))
			fmt.Fprintln(w, display.Accent(line)+display.Accent(suffix))
		case current != nil && p.Name == current.Name:
			fmt.Fprintln(w, display.Dim(line))
		default:
			fmt.Fprintln(w, line)
		}
	}
}

// sameDate reports whether a and b fall on the same calendar day in b's zone.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// padRight pads a string to the given width with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Method   string            `json:"method"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *todayJSONNext    `json:"next"`
}

type todayJSONLocation struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

func locationJSON(s *session) todayJSONLocation {
	return todayJSONLocation{
		City:      s.loc.City,
		Country:   s.loc.Country,
		Timezone:  s.zone().String(),
		Latitude:  s.loc.Latitude,
		Longitude: s.loc.Longitude,
	}
}

func timingsJSON(prayers []prayer.Prayer, ref time.Time, layout string) map[string]string {
	timings := make(map[string]string, len(prayers))
	for _, p := range prayers {
		timings[strings.ToLower(string(p.Name))] = prayer.OccurrenceForDate(p, ref).In(ref.Location()).Format(layout)
	}
	return timings
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
