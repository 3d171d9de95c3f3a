package api

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/astro"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/method"
)

// TimingsCache stores one day's timings per place and method.
type TimingsCache interface {
	LoadTimings(date time.Time, lat, lon float64, methodID int) (Timings, bool)
	SaveTimings(date time.Time, lat, lon float64, methodID int, t Timings) error
}

// Provider is an astro.Provider backed by the Al Adhan API. Cache may be nil.
type Provider struct {
	Client  *Client
	Cache   TimingsCache
	Timeout time.Duration
}

var _ astro.Provider = (*Provider)(nil)

// NewProvider returns a Provider with a default client.
func NewProvider(cache TimingsCache) *Provider {
	return &Provider{Client: NewClient(), Cache: cache, Timeout: 15 * time.Second}
}

// Times fetches the day's timings and places them in req.Zone.
func (p *Provider) Times(req astro.Request, preset method.Preset) (astro.Times, error) {
	date := req.Date()

	if p.Cache != nil {
		if t, ok := p.Cache.LoadTimings(date, req.Latitude, req.Longitude, preset.ID); ok {
			return toTimes(t, req)
		}
	}

	ctx := context.Background()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	resp, err := p.Client.FetchByCoordinates(ctx, date, req.Latitude, req.Longitude, preset.ID)
	if err != nil {
		return astro.Times{}, err
	}

	times, err := toTimes(resp.Data.Timings, req)
	if err != nil {
		return astro.Times{}, err
	}

	if p.Cache != nil {
		if err := p.Cache.SaveTimings(date, req.Latitude, req.Longitude, preset.ID, resp.Data.Timings); err != nil {
			log.Warn().Err(err).Msg("[api] failed to cache timings")
		}
	}
	return times, nil
}

// ResolveCity asks the API where a city is. The day's timings are discarded.
func (c *Client) ResolveCity(ctx context.Context, city, country string) (*geo.Location, error) {
	resp, err := c.FetchByCity(ctx, time.Now(), city, country, -1)
	if err != nil {
		return nil, err
	}
	loc := &geo.Location{
		Latitude:  resp.Data.Meta.Latitude,
		Longitude: resp.Data.Meta.Longitude,
		City:      city,
		Country:   country,
		Timezone:  resp.Data.Meta.Timezone,
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", loc.Label(), err)
	}
	return loc, nil
}

var timingRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})`)

func toTimes(t Timings, req astro.Request) (astro.Times, error) {
	names := [7]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha"}
	zone := req.Zone
	if zone == nil {
		zone = time.UTC
	}
	var out [7]time.Time
	for i, raw := range t.Ordered() {
		m := timingRe.FindStringSubmatch(raw)
		if m == nil {
			return astro.Times{}, fmt.Errorf("invalid %s timing %q", names[i], raw)
		}
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h > 23 || mm > 59 {
			return astro.Times{}, fmt.Errorf("invalid %s timing %q", names[i], raw)
		}
		out[i] = time.Date(req.Year, req.Month, req.Day, h, mm, 0, 0, zone)
	}
	return astro.Times{
		Fajr:    out[0],
		Sunrise: out[1],
		Dhuhr:   out[2],
		Asr:     out[3],
		Sunset:  out[4],
		Maghrib: out[5],
		Isha:    out[6],
	}, nil
}
