package tahajjud

import (
	"errors"
	"testing"
	"time"

	"github.com/smokyabdulrahman/salah/internal/astro"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

var utcLoc = geo.Location{Latitude: 21.4, Longitude: 39.8, City: "Test", Timezone: "UTC"}

// nightProvider puts Isha at 20:00 and Fajr at 05:00 on every day.
func nightProvider(methods *[]string) astro.ProviderFunc {
	return func(req astro.Request, p method.Preset) (astro.Times, error) {
		if methods != nil {
			*methods = append(*methods, p.Key)
		}
		at := func(h, m int) time.Time {
			return time.Date(req.Year, req.Month, req.Day, h, m, 0, 0, req.Zone)
		}
		return astro.Times{
			Fajr: at(5, 0), Sunrise: at(6, 20), Dhuhr: at(12, 15), Asr: at(15, 30),
			Sunset: at(18, 10), Maghrib: at(18, 10), Isha: at(20, 0),
		}, nil
	}
}

func failingCalc() *prayer.Calculator {
	return prayer.NewCalculator(astro.ProviderFunc(func(astro.Request, method.Preset) (astro.Times, error) {
		return astro.Times{}, errors.New("no sun")
	}))
}

func day(h, m int) time.Time {
	return time.Date(2026, 3, 1, h, m, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	var methods []string
	calc := prayer.NewCalculator(nightProvider(&methods))

	w, err := Compute(calc, utcLoc, day(14, 0), "karachi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Isha.Equal(day(20, 0)) {
		t.Errorf("Isha = %v, want %v", w.Isha, day(20, 0))
	}
	if want := day(5, 0).AddDate(0, 0, 1); !w.Fajr.Equal(want) {
		t.Errorf("Fajr = %v, want %v", w.Fajr, want)
	}
	if w.Duration() != 9*time.Hour {
		t.Errorf("Duration = %v, want 9h", w.Duration())
	}
	if !w.Fajr.After(w.Isha) {
		t.Error("Fajr must be after Isha")
	}
	for _, m := range methods {
		if m != "karachi" {
			t.Errorf("schedule computed with %q, want karachi", m)
		}
	}
}

func TestCompute_FallbackScheduleIsError(t *testing.T) {
	_, err := Compute(failingCalc(), utcLoc, day(14, 0), "mwl")
	if !errors.Is(err, ErrNoWindow) {
		t.Errorf("err = %v, want ErrNoWindow", err)
	}
}

func TestNightWindow_Points(t *testing.T) {
	w := NightWindow{Isha: day(20, 0), Fajr: day(5, 0).AddDate(0, 0, 1)}
	if want := day(2, 0).AddDate(0, 0, 1); !w.LastThird().Equal(want) {
		t.Errorf("LastThird = %v, want %v", w.LastThird(), want)
	}
	if want := day(0, 30).AddDate(0, 0, 1); !w.Middle().Equal(want) {
		t.Errorf("Middle = %v, want %v", w.Middle(), want)
	}
}

func TestReminderClock(t *testing.T) {
	calc := prayer.NewCalculator(nightProvider(nil))

	tests := []struct {
		name string
		calc Calculator
		opts Options
		want string
	}{
		{"default strategy is last third", calc, Options{}, "02:00"},
		{"last third", calc, Options{Strategy: LastThird}, "02:00"},
		{"middle", calc, Options{Strategy: Middle}, "00:30"},
		{"custom ignores astronomy", failingCalc(), Options{Strategy: Custom, CustomTime: "3:15"}, "03:15"},
		{"custom without a time falls back", calc, Options{Strategy: Custom, Fallback: "01:10"}, "01:10"},
		{"failure uses caller fallback", failingCalc(), Options{Strategy: Middle, Fallback: "01:45"}, "01:45"},
		{"failure uses default", failingCalc(), Options{Strategy: LastThird}, DefaultClock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReminderClock(tt.calc, utcLoc, day(14, 0), tt.opts); got != tt.want {
				t.Errorf("ReminderClock = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFireTime(t *testing.T) {
	calc := prayer.NewCalculator(nightProvider(nil))

	tests := []struct {
		name string
		now  time.Time
		opts Options
		want time.Time
	}{
		{"evening rolls to next night", day(22, 0), Options{LeadMinutes: 15}, day(1, 45).AddDate(0, 0, 1)},
		{"after midnight stays today", day(1, 0), Options{}, day(2, 0)},
		{"negative lead clamps to zero", day(1, 0), Options{LeadMinutes: -30}, day(2, 0)},
		{"lead clamps to 180", day(0, 0), Options{Strategy: Custom, CustomTime: "06:00", LeadMinutes: 500}, day(3, 0)},
		{"lead pushes into past", day(1, 50), Options{LeadMinutes: 15}, day(1, 45).AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FireTime(calc, utcLoc, tt.now, tt.opts)
			if !got.Equal(tt.want) {
				t.Errorf("FireTime = %v, want %v", got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("FireTime %v not after now %v", got, tt.now)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"lastThird", LastThird, true},
		{"last-third", LastThird, true},
		{"MIDDLE", Middle, true},
		{"custom", Custom, true},
		{"dawn", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStrategy(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
