package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smokyabdulrahman/salah/internal/api"
	"github.com/smokyabdulrahman/salah/internal/geo"
)

func sampleTimings() api.Timings {
	return api.Timings{
		Fajr:    "05:17",
		Sunrise: "06:48",
		Dhuhr:   "12:13",
		Asr:     "15:02",
		Sunset:  "17:39",
		Maghrib: "17:39",
		Isha:    "19:10",
	}
}

var testDate = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New(%q) error: %v", dir, err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory %s not created", dir)
	}
}

// ---------------------------------------------------------------------------
// Timings
// ---------------------------------------------------------------------------

func TestTimings_RoundTrip(t *testing.T) {
	c := newCache(t)

	if err := c.SaveTimings(testDate, 51.5074, -0.1278, 3, sampleTimings()); err != nil {
		t.Fatalf("SaveTimings: %v", err)
	}
	got, ok := c.LoadTimings(testDate, 51.5074, -0.1278, 3)
	if !ok {
		t.Fatal("LoadTimings missed a saved entry")
	}
	if got != sampleTimings() {
		t.Errorf("got %+v, want %+v", got, sampleTimings())
	}
}

func TestTimings_Misses(t *testing.T) {
	c := newCache(t)
	if err := c.SaveTimings(testDate, 51.5074, -0.1278, 3, sampleTimings()); err != nil {
		t.Fatalf("SaveTimings: %v", err)
	}

	tests := []struct {
		name     string
		date     time.Time
		lat, lon float64
		method   int
	}{
		{"other day", testDate.AddDate(0, 0, 1), 51.5074, -0.1278, 3},
		{"other place", testDate, 40.7128, -74.0060, 3},
		{"other method", testDate, 51.5074, -0.1278, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := c.LoadTimings(tt.date, tt.lat, tt.lon, tt.method); ok {
				t.Error("expected a cache miss")
			}
		})
	}
}

func TestTimings_CorruptedFile(t *testing.T) {
	c := newCache(t)
	path := c.timingsPath("2026-02-28", 51.5, -0.1, 3)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.LoadTimings(testDate, 51.5, -0.1, 3); ok {
		t.Error("expected miss for corrupted file")
	}
}

// ---------------------------------------------------------------------------
// Geo
// ---------------------------------------------------------------------------

func TestGeo_RoundTrip(t *testing.T) {
	c := newCache(t)
	loc := &geo.Location{Latitude: 51.5074, Longitude: -0.1278, City: "London", Country: "UK", Timezone: "Europe/London"}

	if err := c.SaveGeo(loc); err != nil {
		t.Fatalf("SaveGeo: %v", err)
	}
	got := c.LoadGeo()
	if got == nil {
		t.Fatal("LoadGeo returned nil")
	}
	if *got != *loc {
		t.Errorf("got %+v, want %+v", got, loc)
	}
}

func TestGeo_CacheMiss(t *testing.T) {
	if got := newCache(t).LoadGeo(); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGeo_ExpiredTTL(t *testing.T) {
	c := newCache(t)
	base := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if err := c.SaveGeo(&geo.Location{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return base.Add(23 * time.Hour) }
	if c.LoadGeo() == nil {
		t.Error("entry expired before TTL")
	}
	c.now = func() time.Time { return base.Add(25 * time.Hour) }
	if c.LoadGeo() != nil {
		t.Error("expected nil for expired cache")
	}
}

func TestGeo_CorruptedFile(t *testing.T) {
	c := newCache(t)
	if err := os.WriteFile(filepath.Join(c.dir, geoCacheFile), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := c.LoadGeo(); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

// ---------------------------------------------------------------------------
// cacheKey
// ---------------------------------------------------------------------------

func TestCacheKey(t *testing.T) {
	a := cacheKey("2026-02-28", 51.5, -0.1, 3)
	if a != cacheKey("2026-02-28", 51.5, -0.1, 3) {
		t.Error("cacheKey is not deterministic")
	}
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
	for _, other := range []string{
		cacheKey("2026-03-01", 51.5, -0.1, 3),
		cacheKey("2026-02-28", 51.6, -0.1, 3),
		cacheKey("2026-02-28", 51.5, -0.1, 4),
	} {
		if other == a {
			t.Errorf("distinct inputs share key %s", a)
		}
	}
}
