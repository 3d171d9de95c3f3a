package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smokyabdulrahman/salah/internal/astro"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/notify"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/store"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
)

var utcLoc = geo.Location{Latitude: 21.4, Longitude: 39.8, City: "Test", Timezone: "UTC"}

// fakeTimers records timers and fires them on demand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (ft *fakeTimers) after(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

func (ft *fakeTimers) live() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	var out []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func fixedCalc() *prayer.Calculator {
	return prayer.NewCalculator(astro.ProviderFunc(func(req astro.Request, _ method.Preset) (astro.Times, error) {
		at := func(h, m int) time.Time {
			return time.Date(req.Year, req.Month, req.Day, h, m, 0, 0, req.Zone)
		}
		return astro.Times{
			Fajr: at(5, 0), Sunrise: at(6, 20), Dhuhr: at(12, 15), Asr: at(15, 30),
			Sunset: at(18, 10), Maghrib: at(18, 10), Isha: at(20, 0),
		}, nil
	}))
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 1, h, m, 0, 0, time.UTC)
}

func newTestRegistry(now *time.Time) (*Registry, *fakeTimers, *recorder) {
	ft := &fakeTimers{}
	rec := &recorder{}
	reg := NewRegistry(rec, WithClock(func() time.Time { return *now }), WithAfterFunc(ft.after))
	return reg, ft, rec
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_ScheduleReplacesSameKey(t *testing.T) {
	now := at(10, 0)
	reg, ft, _ := newTestRegistry(&now)

	if err := reg.Schedule(Booking{Key: "a", At: at(11, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Schedule(Booking{Key: "a", At: at(12, 0)}); err != nil {
		t.Fatal(err)
	}

	pending := reg.Pending()
	if len(pending) != 1 || !pending[0].At.Equal(at(12, 0)) {
		t.Errorf("pending = %+v, want one booking at 12:00", pending)
	}
	if live := ft.live(); len(live) != 1 || live[0].d != 2*time.Hour {
		t.Errorf("live timers = %d, want one 2h timer", len(live))
	}
}

func TestRegistry_RejectsPast(t *testing.T) {
	now := at(10, 0)
	reg, _, _ := newTestRegistry(&now)

	err := reg.Schedule(Booking{Key: "a", At: now})
	if !errors.Is(err, ErrNotFuture) {
		t.Errorf("err = %v, want ErrNotFuture", err)
	}
	if len(reg.Pending()) != 0 {
		t.Error("past booking should not be pending")
	}
}

func TestRegistry_FireDeliversAndRemoves(t *testing.T) {
	now := at(10, 0)
	reg, ft, rec := newTestRegistry(&now)

	var fired []string
	reg.Schedule(Booking{
		Key:     "a",
		At:      at(11, 0),
		Message: notify.Message{Title: "hello"},
		OnFire:  func(b Booking) { fired = append(fired, b.Key) },
	})
	ft.live()[0].f()

	if len(rec.msgs) != 1 || rec.msgs[0].Title != "hello" {
		t.Errorf("messages = %+v", rec.msgs)
	}
	if len(fired) != 1 || fired[0] != "a" {
		t.Errorf("OnFire calls = %v", fired)
	}
	if len(reg.Pending()) != 0 {
		t.Error("fired booking still pending")
	}
}

func TestRegistry_StaleTimerIgnored(t *testing.T) {
	now := at(10, 0)
	reg, ft, rec := newTestRegistry(&now)

	reg.Schedule(Booking{Key: "a", At: at(11, 0)})
	stale := ft.timers[0]
	reg.Cancel("a")
	stale.f()

	if len(rec.msgs) != 0 {
		t.Error("cancelled booking delivered")
	}
}

func TestRegistry_ReplaceAndCancel(t *testing.T) {
	now := at(10, 0)
	reg, _, _ := newTestRegistry(&now)

	reg.Schedule(Booking{Key: "prayer:Asr", At: at(15, 0)})
	reg.Schedule(Booking{Key: TahajjudKey, At: at(23, 0)})

	if err := reg.Replace(PrayerKeyPrefix, []Booking{{Key: "prayer:Isha", At: at(20, 0)}}); err != nil {
		t.Fatal(err)
	}
	keys := map[string]bool{}
	for _, b := range reg.Pending() {
		keys[b.Key] = true
	}
	if keys["prayer:Asr"] || !keys["prayer:Isha"] || !keys[TahajjudKey] {
		t.Errorf("pending keys after Replace = %v", keys)
	}

	if !reg.Cancel(TahajjudKey) || reg.Cancel(TahajjudKey) {
		t.Error("Cancel should report true once")
	}
	reg.CancelAll()
	if len(reg.Pending()) != 0 {
		t.Error("CancelAll left bookings")
	}
}

// ---------------------------------------------------------------------------
// PrayerAlerts
// ---------------------------------------------------------------------------

func TestPrayerAlerts_Bookings(t *testing.T) {
	now := at(14, 0)
	reg, _, _ := newTestRegistry(&now)
	a := &PrayerAlerts{
		Registry:    reg,
		Calc:        fixedCalc(),
		Location:    utcLoc,
		Enabled:     []prayer.Name{prayer.Fajr, prayer.Dhuhr, prayer.Asr},
		LeadMinutes: 10,
	}

	bs, err := a.Reschedule(now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	want := map[string]time.Time{
		"prayer:Fajr":  at(4, 50).AddDate(0, 0, 1),
		"prayer:Dhuhr": at(12, 5).AddDate(0, 0, 1),
		"prayer:Asr":   at(15, 20),
	}
	if len(bs) != len(want) {
		t.Fatalf("got %d bookings, want %d", len(bs), len(want))
	}
	wantBody := map[string]string{
		"prayer:Fajr":  "Fajr in 10m (05:00)",
		"prayer:Dhuhr": "Dhuhr in 10m (12:15)",
		"prayer:Asr":   "Asr in 10m (15:30)",
	}
	for _, b := range bs {
		if !b.At.Equal(want[b.Key]) {
			t.Errorf("%s at %v, want %v", b.Key, b.At, want[b.Key])
		}
		if !b.At.After(now) {
			t.Errorf("%s not in the future", b.Key)
		}
		if b.Message.Body != wantBody[b.Key] {
			t.Errorf("%s body = %q, want %q", b.Key, b.Message.Body, wantBody[b.Key])
		}
	}
	if len(reg.Pending()) != 3 {
		t.Errorf("pending = %d, want 3", len(reg.Pending()))
	}
}

// calcFailingOn is fixedCalc, except the provider fails on the listed days
// of March 2026 so the calculator returns its fallback schedule.
func calcFailingOn(days ...int) *prayer.Calculator {
	return prayer.NewCalculator(astro.ProviderFunc(func(req astro.Request, _ method.Preset) (astro.Times, error) {
		for _, d := range days {
			if req.Month == time.March && req.Day == d {
				return astro.Times{}, errors.New("provider down")
			}
		}
		at := func(h, m int) time.Time {
			return time.Date(req.Year, req.Month, req.Day, h, m, 0, 0, req.Zone)
		}
		return astro.Times{
			Fajr: at(5, 0), Sunrise: at(6, 20), Dhuhr: at(12, 15), Asr: at(15, 30),
			Sunset: at(18, 10), Maghrib: at(18, 10), Isha: at(20, 0),
		}, nil
	}))
}

func TestPrayerAlerts_SkipsFallbackDay(t *testing.T) {
	now := at(3, 0)
	reg, _, _ := newTestRegistry(&now)
	a := &PrayerAlerts{
		Registry: reg,
		Calc:     calcFailingOn(1),
		Location: utcLoc,
		Enabled:  []prayer.Name{prayer.Fajr, prayer.Isha},
	}

	bs, err := a.Reschedule(now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	want := map[string]time.Time{
		"prayer:Fajr": at(5, 0).AddDate(0, 0, 1),
		"prayer:Isha": at(20, 0).AddDate(0, 0, 1),
	}
	if len(bs) != len(want) {
		t.Fatalf("got %d bookings, want %d: %+v", len(bs), len(want), bs)
	}
	for _, b := range bs {
		if !b.At.Equal(want[b.Key]) {
			t.Errorf("%s at %v, want %v (tomorrow's calculated time)", b.Key, b.At, want[b.Key])
		}
	}
}

func TestPrayerAlerts_NoCalculatedDayBooksNothing(t *testing.T) {
	now := at(3, 0)
	reg, _, _ := newTestRegistry(&now)
	a := &PrayerAlerts{
		Registry: reg,
		Calc:     calcFailingOn(1, 2),
		Location: utcLoc,
		Enabled:  []prayer.Name{prayer.Fajr, prayer.Dhuhr},
	}

	bs, err := a.Reschedule(now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(bs) != 0 || len(reg.Pending()) != 0 {
		t.Errorf("bookings = %+v, want none", bs)
	}
}

func TestPrayerAlerts_UsesLocationZone(t *testing.T) {
	// The host clock reads UTC while the location is three hours ahead.
	// Without tzdata Asia/Riyadh degrades to the same +3 longitude zone.
	makkah := geo.Location{Latitude: 21.4225, Longitude: 39.8262, City: "Makkah", Timezone: "Asia/Riyadh"}
	now := at(3, 0) // 06:00 in Makkah
	reg, _, _ := newTestRegistry(&now)
	a := &PrayerAlerts{
		Registry: reg,
		Calc:     fixedCalc(),
		Location: makkah,
		Enabled:  []prayer.Name{prayer.Dhuhr},
	}

	bs, err := a.Reschedule(now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(bs) != 1 {
		t.Fatalf("got %d bookings, want 1", len(bs))
	}
	if want := at(9, 15); !bs[0].At.Equal(want) {
		t.Errorf("Dhuhr at %v, want %v", bs[0].At, want)
	}
	if bs[0].Message.Body != "Dhuhr is at 12:15" {
		t.Errorf("body = %q, want the Makkah wall-clock time", bs[0].Message.Body)
	}
}

func TestPrayerAlerts_EmptyEnabledSchedulesNothing(t *testing.T) {
	now := at(14, 0)
	reg, _, _ := newTestRegistry(&now)
	reg.Schedule(Booking{Key: "prayer:Asr", At: at(15, 0)})

	a := &PrayerAlerts{Registry: reg, Calc: fixedCalc(), Location: utcLoc}
	bs, err := a.Reschedule(now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(bs) != 0 || len(reg.Pending()) != 0 {
		t.Errorf("bookings = %v, pending = %v; want none", bs, reg.Pending())
	}
}

// ---------------------------------------------------------------------------
// Tahajjud lifecycle
// ---------------------------------------------------------------------------

func TestTahajjud_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := at(22, 0)
	reg, ft, rec := newTestRegistry(&now)
	st := store.NewMemory()

	r := NewTahajjud(reg, st, fixedCalc(), utcLoc, tahajjud.Options{Strategy: tahajjud.LastThird})
	if s, _ := r.State(); s != Disabled {
		t.Fatalf("initial state = %s, want disabled", s)
	}

	if err := r.Enable(ctx); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	s, fireAt := r.State()
	if s != Scheduled {
		t.Fatalf("state = %s, want scheduled", s)
	}
	if want := at(2, 0).AddDate(0, 0, 1); !fireAt.Equal(want) {
		t.Errorf("fire at %v, want %v", fireAt, want)
	}
	if saved, _ := st.Get(ctx, stateKey); saved != string(Scheduled) {
		t.Errorf("persisted state = %q", saved)
	}

	// Delivery moves through Fired and books the next night.
	now = fireAt
	ft.live()[0].f()
	if len(rec.msgs) != 1 || rec.msgs[0].Key != TahajjudKey {
		t.Errorf("messages = %+v", rec.msgs)
	}
	s, next := r.State()
	if s != Scheduled || !next.After(fireAt) {
		t.Errorf("after fire: state %s at %v, want scheduled after %v", s, next, fireAt)
	}

	if err := r.Disable(ctx); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if s, _ := r.State(); s != Cancelled {
		t.Errorf("state = %s, want cancelled", s)
	}
	if len(reg.Pending()) != 0 {
		t.Error("Disable left a pending booking")
	}
}

func TestTahajjud_Restore(t *testing.T) {
	ctx := context.Background()
	now := at(22, 0)
	reg, _, _ := newTestRegistry(&now)
	st := store.NewMemory()
	st.Set(ctx, stateKey, string(Scheduled))

	r := NewTahajjud(reg, st, fixedCalc(), utcLoc, tahajjud.Options{})
	if err := r.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s, _ := r.State(); s != Scheduled {
		t.Errorf("state = %s, want scheduled", s)
	}
	if len(reg.Pending()) != 1 {
		t.Errorf("pending = %d, want 1", len(reg.Pending()))
	}

	st2 := store.NewMemory()
	st2.Set(ctx, stateKey, string(Cancelled))
	r2 := NewTahajjud(reg, st2, fixedCalc(), utcLoc, tahajjud.Options{})
	if err := r2.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s, _ := r2.State(); s != Cancelled {
		t.Errorf("state = %s, want cancelled", s)
	}
}

func TestCanMove(t *testing.T) {
	if canMove(Disabled, Fired) {
		t.Error("Disabled -> Fired should be rejected")
	}
	for _, from := range []State{Disabled, Scheduling, Scheduled, Fired, Cancelled} {
		if !canMove(from, Cancelled) {
			t.Errorf("%s -> Cancelled should be allowed", from)
		}
	}
}
