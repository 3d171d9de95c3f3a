package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/qibla"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

// GET /api/v1/schedule?date=YYYY-MM-DD
func (s *Server) schedule(ctx *gin.Context) (any, *Error) {
	loc, apiErr := s.location(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	date, apiErr := s.date(ctx, loc)
	if apiErr != nil {
		return nil, apiErr
	}
	m := s.method(ctx)

	day := s.opts.Calc.Calculate(date, loc, m)
	return ScheduleResponse{
		Location:   loc,
		Method:     method.Resolve(m).Name,
		Date:       day.Date,
		Hijri:      day.Hijri,
		Calculated: day.Calculated(),
		Prayers:    day.Prayers,
	}, nil
}

// GET /api/v1/next?prayers=Fajr,Isha
func (s *Server) next(ctx *gin.Context) (any, *Error) {
	loc, apiErr := s.location(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	names := s.opts.Prayers
	if q := ctx.Query("prayers"); q != "" {
		parsed, err := prayer.ParseNames(q)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		names = parsed
	}
	m := s.method(ctx)
	now := s.opts.Now()

	p, at, ok := prayer.Upcoming(s.opts.Calc, loc, m, names, now)
	if !ok {
		return nil, badRequest("no prayers selected")
	}

	zone, _ := tz.Zone(loc)
	d := at.Sub(now)
	resp := NextResponse{
		Prayer:    p,
		At:        at.In(zone).Format(time.RFC3339),
		Remaining: prayer.FormatTimeRemaining(d),
		Countdown: prayer.FormatCountdown(d),
		Seconds:   int64(d / time.Second),

		Calculated: p.Pinned(),
	}
	if w, ok := prayer.WindowAt(s.opts.Calc, loc, m, names, now); ok {
		prev := w.Previous.Name
		progress := w.Progress(now)
		resp.Previous = &prev
		resp.Progress = &progress
	}
	return resp, nil
}

// GET /api/v1/qibla
func (s *Server) qibla(ctx *gin.Context) (any, *Error) {
	loc, apiErr := s.location(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	bearing := qibla.Direction(loc)
	return QiblaResponse{Location: loc, Bearing: bearing, Compass: qibla.Compass(bearing)}, nil
}

// GET /api/v1/tahajjud?strategy=middle
func (s *Server) tahajjud(ctx *gin.Context) (any, *Error) {
	loc, apiErr := s.location(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	opts := s.opts.Tahajjud
	if opts.Method == "" {
		opts.Method = s.method(ctx)
	}
	if m := ctx.Query("method"); m != "" {
		opts.Method = m
	}
	if q := ctx.Query("strategy"); q != "" {
		st, ok := tahajjud.ParseStrategy(q)
		if !ok {
			return nil, badRequest(fmt.Sprintf("unknown strategy %q", q))
		}
		opts.Strategy = st
	}
	if opts.Strategy == "" {
		opts.Strategy = tahajjud.LastThird
	}

	now := s.opts.Now()
	zone, _ := tz.Zone(loc)
	resp := TahajjudResponse{
		Strategy: string(opts.Strategy),
		Method:   method.Resolve(opts.Method).Name,
		Clock:    tahajjud.ReminderClock(s.opts.Calc, loc, now, opts),
		FireAt:   tahajjud.FireTime(s.opts.Calc, loc, now, opts).In(zone).Format(time.RFC3339),
	}
	if w, err := tahajjud.Compute(s.opts.Calc, loc, now, opts.Method); err == nil {
		resp.Calculated = true
		resp.Isha = w.Isha.In(zone).Format(time.RFC3339)
		resp.Fajr = w.Fajr.In(zone).Format(time.RFC3339)
		resp.Middle = tz.Clock(w.Middle(), loc)
		resp.LastThird = tz.Clock(w.LastThird(), loc)
	}
	return resp, nil
}

// GET /api/v1/methods
func (s *Server) methods(*gin.Context) (any, *Error) {
	all := method.All()
	out := make([]MethodResponse, 0, len(all))
	for _, p := range all {
		out = append(out, MethodResponse{
			Key:          p.Key,
			Name:         p.Name,
			ID:           p.ID,
			FajrAngle:    p.FajrAngle,
			IshaAngle:    p.IshaAngle,
			IshaInterval: p.IshaInterval,
			HighLatitude: p.HighLatitude.String(),
		})
	}
	return out, nil
}

// location applies lat, lon and timezone query overrides to the default.
// lat and lon must be given together.
func (s *Server) location(ctx *gin.Context) (geo.Location, *Error) {
	loc := s.opts.Location
	lat, hasLat := ctx.GetQuery("lat")
	lon, hasLon := ctx.GetQuery("lon")

	switch {
	case hasLat && hasLon:
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return geo.Location{}, badRequest("invalid lat")
		}
		lo, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return geo.Location{}, badRequest("invalid lon")
		}
		loc = geo.Location{Latitude: la, Longitude: lo}
	case hasLat || hasLon:
		return geo.Location{}, badRequest("lat and lon must be given together")
	}

	if zone := ctx.Query("timezone"); zone != "" {
		if _, err := time.LoadLocation(zone); err != nil {
			return geo.Location{}, badRequest(fmt.Sprintf("unknown timezone %q", zone))
		}
		loc.Timezone = zone
	}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, badRequest(err.Error())
	}
	return loc, nil
}

func (s *Server) date(ctx *gin.Context, loc geo.Location) (time.Time, *Error) {
	q := ctx.Query("date")
	if q == "" {
		return s.opts.Now(), nil
	}
	zone, _ := tz.Zone(loc)
	d, err := time.ParseInLocation("2006-01-02", q, zone)
	if err != nil {
		return time.Time{}, badRequest("date must be YYYY-MM-DD")
	}
	return d, nil
}

func (s *Server) method(ctx *gin.Context) string {
	if m := ctx.Query("method"); m != "" {
		return m
	}
	return s.opts.Method
}
