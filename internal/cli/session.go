package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/api"
	"github.com/smokyabdulrahman/salah/internal/cache"
	"github.com/smokyabdulrahman/salah/internal/config"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// Seams for tests.
var (
	nowFunc        = time.Now
	detectLocation = geo.DetectLocation
)

// session is everything a command needs to compute schedules.
type session struct {
	cfg    *config.Config
	loc    geo.Location
	calc   *prayer.Calculator
	names  []prayer.Name
	layout string
	now    time.Time
}

// newSession merges the config, resolves the location and builds the
// calculator for the configured provider.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg := effectiveConfig(cmd)

	names := prayer.DefaultNames
	if cfg.Prayers != "" {
		parsed, err := prayer.ParseNames(cfg.Prayers)
		if err != nil {
			return nil, err
		}
		names = parsed
	}

	// Cache init failure is non-fatal; we just skip caching.
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("[cli] cache disabled")
		c = nil
	}

	loc, err := resolveLocation(cmd.Context(), cfg, c)
	if err != nil {
		return nil, err
	}

	calc, err := newCalculator(cfg, c)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		loc:    loc,
		calc:   calc,
		names:  names,
		layout: timeLayout(cfg.TimeFormat),
		now:    nowFunc(),
	}, nil
}

// newCalculator picks the astronomical provider named by cfg.Provider.
func newCalculator(cfg *config.Config, c *cache.Cache) (*prayer.Calculator, error) {
	opt := prayer.WithLocale(cfg.Locale)
	switch cfg.Provider {
	case config.ProviderLocal, "":
		return prayer.NewCalculator(nil, opt), nil
	case config.ProviderAlAdhan:
		var tc api.TimingsCache
		if c != nil {
			tc = c
		}
		return prayer.NewCalculator(api.NewProvider(tc), opt), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", cfg.Provider, config.ProviderLocal, config.ProviderAlAdhan)
	}
}

// resolveLocation determines the effective location.
// Priority: coordinates > city lookup > cached geolocation > IP auto-detect.
// A configured timezone always wins over a detected one.
func resolveLocation(ctx context.Context, cfg *config.Config, c *cache.Cache) (geo.Location, error) {
	var loc geo.Location

	switch {
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		loc = geo.Location{
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			City:      cfg.City,
			Country:   cfg.Country,
		}
	case cfg.City != "":
		if cfg.Country == "" {
			return geo.Location{}, fmt.Errorf("--country is required when using --city")
		}
		if ctx == nil {
			ctx = context.Background()
		}
		resolved, err := api.NewClient().ResolveCity(ctx, cfg.City, cfg.Country)
		if err != nil {
			return geo.Location{}, fmt.Errorf("looking up %s, %s: %w", cfg.City, cfg.Country, err)
		}
		loc = *resolved
	default:
		// Try cached geolocation first.
		var cached *geo.Location
		if c != nil {
			cached = c.LoadGeo()
		}
		if cached == nil {
			detected, err := detectLocation()
			if err != nil {
				return geo.Location{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
			}
			if c != nil {
				if err := c.SaveGeo(detected); err != nil {
					log.Warn().Err(err).Msg("[cli] failed to cache geolocation")
				}
			}
			cached = detected
		}
		loc = *cached
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return geo.Location{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		loc.Timezone = cfg.Timezone
	}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}

// zone returns the location's time zone.
func (s *session) zone() *time.Location {
	z, _ := tz.Zone(s.loc)
	return z
}

// day returns the schedule of the calendar day offset days from today.
func (s *session) day(offset int) (time.Time, prayer.DailySchedule) {
	d := tz.DayStart(s.now, s.loc).AddDate(0, 0, offset)
	return d, s.calc.Calculate(d, s.loc, s.cfg.Method)
}
