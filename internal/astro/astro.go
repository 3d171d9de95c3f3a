// Package astro defines the astronomical time provider consumed by the
// schedule builder, and a local implementation backed by sj14/astral.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/smokyabdulrahman/salah/internal/method"
)

// Request identifies one calendar day at one place. Year/Month/Day are the
// calendar fields as observed in Zone.
type Request struct {
	Latitude  float64
	Longitude float64
	Year      int
	Month     time.Month
	Day       int
	Zone      *time.Location
}

// Date returns local midnight of the requested day.
func (r Request) Date() time.Time {
	z := r.Zone
	if z == nil {
		z = time.UTC
	}
	return time.Date(r.Year, r.Month, r.Day, 0, 0, 0, 0, z)
}

// Times are the raw instants of one day, in solar order.
type Times struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Sunset  time.Time
	Maghrib time.Time
	Isha    time.Time
}

// Provider derives raw prayer instants from coordinates, a date and a preset.
type Provider interface {
	Times(req Request, preset method.Preset) (Times, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(req Request, preset method.Preset) (Times, error)

// Times calls f.
func (f ProviderFunc) Times(req Request, preset method.Preset) (Times, error) {
	return f(req, preset)
}

// ErrNoEvent is returned when the sun never reaches the required altitude
// on the requested day (polar day or night).
var ErrNoEvent = errors.New("sun does not reach the required altitude")

// Solar computes times locally from solar geometry.
type Solar struct{}

// Times implements Provider.
//
// Fajr and Isha are bounded by the preset's high-latitude rule: each stays
// within its portion of the night (sunset to next sunrise) and takes that
// bound when the sun never reaches the twilight angle.
func (Solar) Times(req Request, preset method.Preset) (Times, error) {
	obs := astral.Observer{Latitude: req.Latitude, Longitude: req.Longitude}

	date, sunrise, sunset, err := anchor(obs, req)
	if err != nil {
		return Times{}, err
	}
	nextSunrise, err := astral.Sunrise(obs, date.AddDate(0, 0, 1))
	if err != nil {
		return Times{}, fmt.Errorf("next sunrise: %w", err)
	}
	night := nextSunrise.Sub(sunset)
	if night <= 0 {
		return Times{}, fmt.Errorf("night length %v: %w", night, ErrNoEvent)
	}

	fajr := sunrise.Add(-portion(night, preset.HighLatitude, preset.FajrAngle))
	if dawn, err := astral.Dawn(obs, date, preset.FajrAngle); err == nil && dawn.After(fajr) && dawn.Before(sunrise) {
		fajr = dawn
	}

	dhuhr := sunrise.Add(sunset.Sub(sunrise) / 2)

	asr, err := asrAfter(dhuhr, req.Latitude, preset.Madhab.ShadowFactor())
	if err != nil {
		return Times{}, fmt.Errorf("asr: %w", err)
	}

	maghrib := sunset
	if preset.MaghribAngle > 0 {
		if dusk, err := astral.Dusk(obs, date, preset.MaghribAngle); err == nil && dusk.After(sunset) {
			maghrib = dusk
		}
	}
	maghrib = maghrib.Add(time.Duration(preset.MaghribMinutes) * time.Minute)

	var isha time.Time
	if preset.IshaInterval > 0 {
		isha = maghrib.Add(time.Duration(preset.IshaInterval) * time.Minute)
	} else {
		isha = sunset.Add(portion(night, preset.HighLatitude, preset.IshaAngle))
		if dusk, err := astral.Dusk(obs, date, preset.IshaAngle); err == nil && dusk.Before(isha) && dusk.After(sunset) {
			isha = dusk
		}
		if !isha.After(maghrib) {
			isha = maghrib.Add(time.Minute)
		}
	}

	return Times{
		Fajr:    fajr,
		Sunrise: sunrise,
		Dhuhr:   dhuhr,
		Asr:     asr,
		Sunset:  sunset,
		Maghrib: maghrib,
		Isha:    isha,
	}, nil
}

// portion is the share of night the rule allows for a twilight angle.
func portion(night time.Duration, rule method.HighLatitudeRule, angle float64) time.Duration {
	return time.Duration(float64(night) * rule.Portion(angle))
}

// anchor returns the date to hand to astral so that the events land on the
// requested calendar day in req's zone, plus that day's sunrise and sunset.
// astral picks the day from the date's fields, which for zones far from
// their meridian (UTC+13/+14 in the Pacific) is off by one.
func anchor(obs astral.Observer, req Request) (date, sunrise, sunset time.Time, err error) {
	date = req.Date()
	for i := 0; i < 3; i++ {
		if sunrise, err = astral.Sunrise(obs, date); err != nil {
			return date, sunrise, sunset, fmt.Errorf("sunrise: %w", err)
		}
		if sunset, err = astral.Sunset(obs, date); err != nil {
			return date, sunrise, sunset, fmt.Errorf("sunset: %w", err)
		}
		noon := sunrise.Add(sunset.Sub(sunrise) / 2).In(date.Location())
		shift := dayOffset(noon, req)
		if shift == 0 {
			return date, sunrise, sunset, nil
		}
		date = date.AddDate(0, 0, -shift)
	}
	return date, sunrise, sunset, nil
}

// dayOffset is the number of calendar days from the requested day to t's
// local day.
func dayOffset(t time.Time, req Request) int {
	got := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	want := time.Date(req.Year, req.Month, req.Day, 0, 0, 0, 0, time.UTC)
	return int(got.Sub(want).Hours() / 24)
}

// asrAfter returns the afternoon instant at which an object's shadow is
// factor times its length plus its noon shadow.
func asrAfter(noon time.Time, lat, factor float64) (time.Time, error) {
	decl := declination(noon)
	phi := lat * math.Pi / 180

	alt := math.Atan(1 / (factor + math.Tan(math.Abs(phi-decl))))
	cosH := (math.Sin(alt) - math.Sin(phi)*math.Sin(decl)) / (math.Cos(phi) * math.Cos(decl))
	if math.IsNaN(cosH) || cosH < -1 || cosH > 1 {
		return time.Time{}, ErrNoEvent
	}
	hours := math.Acos(cosH) * 180 / math.Pi / 15
	return noon.Add(time.Duration(hours * float64(time.Hour))), nil
}

// declination returns the sun's declination in radians at t.
func declination(t time.Time) float64 {
	const rad = math.Pi / 180
	d := float64(t.Unix())/86400 + 2440587.5 - 2451545.0

	g := (357.529 + 0.98560028*d) * rad
	q := 280.459 + 0.98564736*d
	l := (q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)) * rad
	e := (23.439 - 0.00000036*d) * rad

	return math.Asin(math.Sin(e) * math.Sin(l))
}
