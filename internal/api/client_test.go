package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smokyabdulrahman/salah/internal/astro"
	"github.com/smokyabdulrahman/salah/internal/method"
)

// sampleResponse returns a valid Al Adhan API response for testing.
func sampleResponse() Response {
	return Response{
		Code:   200,
		Status: "OK",
		Data: Data{
			Timings: Timings{
				Fajr:    "05:17",
				Sunrise: "06:48",
				Dhuhr:   "12:13",
				Asr:     "15:02",
				Sunset:  "17:39",
				Maghrib: "17:39",
				Isha:    "19:10 (GMT)",
			},
			Date: DateInfo{
				Readable:  "28 Feb 2026",
				Timestamp: "1772262000",
			},
			Meta: Meta{
				Latitude:  51.5074,
				Longitude: -0.1278,
				Timezone:  "Europe/London",
				Method:    MethodInfo{ID: 3, Name: "Muslim World League"},
			},
		},
	}
}

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c := NewClient()
	c.BaseURL = server.URL
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	c := NewClient()
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
}

func TestFetchByCoordinates_Success(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/timings/28-02-2026") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") != "51.507400" || q.Get("longitude") != "-0.127800" {
			t.Errorf("coordinates = %s,%s", q.Get("latitude"), q.Get("longitude"))
		}
		if q.Get("method") != "3" {
			t.Errorf("method = %q, want %q", q.Get("method"), "3")
		}
		if q.Get("school") != "0" {
			t.Errorf("school = %q, want %q", q.Get("school"), "0")
		}
		writeJSON(w, sampleResponse())
	})

	date := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	got, err := c.FetchByCoordinates(context.Background(), date, 51.5074, -0.1278, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data.Timings.Fajr != "05:17" {
		t.Errorf("Fajr = %q, want %q", got.Data.Timings.Fajr, "05:17")
	}
	if got.Data.Meta.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want %q", got.Data.Meta.Timezone, "Europe/London")
	}
}

func TestFetchByCoordinates_NoMethod(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if m := r.URL.Query().Get("method"); m != "" {
			t.Errorf("method should not be set, got %q", m)
		}
		writeJSON(w, sampleResponse())
	})

	_, err := c.FetchByCoordinates(context.Background(), time.Now(), 51.5, -0.1, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchByCity_Success(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/timingsByCity/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("city") != "London" || q.Get("country") != "UK" {
			t.Errorf("city/country = %q/%q", q.Get("city"), q.Get("country"))
		}
		writeJSON(w, sampleResponse())
	})

	got, err := c.FetchByCity(context.Background(), time.Now(), "London", "UK", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data.Meta.Method.ID != 3 {
		t.Errorf("method id = %d, want 3", got.Data.Meta.Method.ID)
	}
}

func TestFetchByCoordinates_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantSub string
	}{
		{
			"http error",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("internal error"))
			},
			"status 500",
		},
		{
			"invalid json",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			"decode",
		},
		{
			"api error code",
			func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, Response{Code: 400, Status: "Bad Request"})
			},
			"code=400",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			_, err := c.FetchByCoordinates(context.Background(), time.Now(), 51.5, -0.1, -1)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestFetchByCoordinates_ConnectionRefused(t *testing.T) {
	c := NewClient()
	c.BaseURL = "http://127.0.0.1:1"
	if _, err := c.FetchByCoordinates(context.Background(), time.Now(), 51.5, -0.1, -1); err == nil {
		t.Fatal("expected error for connection refused")
	}
}

func TestFetchByCoordinates_ContextCancelled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sampleResponse())
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchByCoordinates(ctx, time.Now(), 51.5, -0.1, -1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

type memCache struct {
	mu    sync.Mutex
	data  map[string]Timings
	saves int
}

func (m *memCache) key(date time.Time, lat, lon float64, id int) string {
	return fmt.Sprintf("%s|%.6f|%.6f|%d", date.Format("2006-01-02"), lat, lon, id)
}

func (m *memCache) LoadTimings(date time.Time, lat, lon float64, id int) (Timings, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.data[m.key(date, lat, lon, id)]
	return t, ok
}

func (m *memCache) SaveTimings(date time.Time, lat, lon float64, id int, t Timings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]Timings{}
	}
	m.data[m.key(date, lat, lon, id)] = t
	m.saves++
	return nil
}

func TestProvider_Times(t *testing.T) {
	requests := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(w, sampleResponse())
	})
	cache := &memCache{}
	p := &Provider{Client: c, Cache: cache}

	req := astro.Request{Latitude: 51.5074, Longitude: -0.1278, Year: 2026, Month: time.February, Day: 28, Zone: time.UTC}
	got, err := p.Times(req, method.Default())
	if err != nil {
		t.Fatalf("Times: %v", err)
	}
	if want := time.Date(2026, 2, 28, 15, 2, 0, 0, time.UTC); !got.Asr.Equal(want) {
		t.Errorf("Asr = %v, want %v", got.Asr, want)
	}
	if want := time.Date(2026, 2, 28, 19, 10, 0, 0, time.UTC); !got.Isha.Equal(want) {
		t.Errorf("Isha = %v, want %v (zone suffix stripped)", got.Isha, want)
	}

	// Second call is served from the cache.
	if _, err := p.Times(req, method.Default()); err != nil {
		t.Fatalf("cached Times: %v", err)
	}
	if requests != 1 || cache.saves != 1 {
		t.Errorf("requests = %d, saves = %d; want 1, 1", requests, cache.saves)
	}
}

func TestProvider_InvalidTiming(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := sampleResponse()
		resp.Data.Timings.Dhuhr = "noon"
		writeJSON(w, resp)
	})
	p := &Provider{Client: c}

	req := astro.Request{Latitude: 51.5, Longitude: -0.1, Year: 2026, Month: time.February, Day: 28, Zone: time.UTC}
	if _, err := p.Times(req, method.Default()); err == nil || !strings.Contains(err.Error(), "Dhuhr") {
		t.Errorf("err = %v, want invalid Dhuhr timing", err)
	}
}

func TestResolveCity(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sampleResponse())
	})

	loc, err := c.ResolveCity(context.Background(), "London", "UK")
	if err != nil {
		t.Fatalf("ResolveCity: %v", err)
	}
	if loc.Latitude != 51.5074 || loc.Timezone != "Europe/London" || loc.City != "London" {
		t.Errorf("location = %+v", loc)
	}
}
