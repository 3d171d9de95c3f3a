// Package cache keeps remote timings and the detected location on disk.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/salah/internal/api"
	"github.com/smokyabdulrahman/salah/internal/geo"
)

const (
	timingsCacheFile = "timings_%s.json" // keyed by hash
	geoCacheFile     = "geolocation.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching for timings and geolocation data.
type Cache struct {
	dir string
	now func() time.Time
}

var _ api.TimingsCache = (*Cache)(nil)

// TimingsEntry stores a day's timings along with the inputs that produced them.
type TimingsEntry struct {
	Date    string      `json:"date"` // YYYY-MM-DD
	Method  int         `json:"method"`
	Timings api.Timings `json:"timings"`
}

// GeoEntry stores a cached geolocation result with a timestamp.
type GeoEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/salah.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "salah"), nil
}

// New creates a Cache rooted at dir, or DefaultDir when dir is empty.
func New(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// cacheKey builds a deterministic hash from the parameters that affect timings.
func cacheKey(date string, lat, lon float64, method int) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%d", date, lat, lon, method)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

func (c *Cache) timingsPath(date string, lat, lon float64, method int) string {
	return filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, cacheKey(date, lat, lon, method)))
}

// LoadTimings reads cached timings. ok is false when the entry is missing,
// unreadable or for another day.
func (c *Cache) LoadTimings(date time.Time, lat, lon float64, method int) (api.Timings, bool) {
	dateStr := date.Format("2006-01-02")

	data, err := os.ReadFile(c.timingsPath(dateStr, lat, lon, method))
	if err != nil {
		return api.Timings{}, false
	}

	var entry TimingsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return api.Timings{}, false
	}
	if entry.Date != dateStr || entry.Method != method {
		return api.Timings{}, false
	}

	return entry.Timings, true
}

// SaveTimings writes a day's timings to the cache.
func (c *Cache) SaveTimings(date time.Time, lat, lon float64, method int, t api.Timings) error {
	dateStr := date.Format("2006-01-02")
	entry := TimingsEntry{Date: dateStr, Method: method, Timings: t}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(c.timingsPath(dateStr, lat, lon, method), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// LoadGeo reads a cached geolocation result. It returns nil when the cache
// is missing or older than 24 hours.
func (c *Cache) LoadGeo() *geo.Location {
	data, err := os.ReadFile(filepath.Join(c.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	entry := GeoEntry{Location: *loc, CachedAt: c.now()}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, geoCacheFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}
	return nil
}
