// Package reminder books prayer and Tahajjud reminders as in-process timers
// and delivers them through a notify.Notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/notify"
)

// ErrNotFuture is returned when a booking is not after the current time.
var ErrNotFuture = errors.New("reminder: fire time is not in the future")

// Booking is one pending reminder.
type Booking struct {
	Key     string
	At      time.Time
	Message notify.Message

	// OnFire runs after the message was handed to the notifier.
	OnFire func(Booking)
}

// Timer is the part of *time.Timer the registry needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

type entry struct {
	booking Booking
	timer   Timer
}

// Registry owns every pending timer, keyed by a stable notification key.
// Schedule, Cancel, CancelAll and Replace are serialized, so a reschedule
// always removes earlier bookings before adding new ones.
type Registry struct {
	mu       sync.Mutex
	pending  map[string]*entry
	notifier notify.Notifier
	now      func() time.Time
	after    AfterFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(f AfterFunc) Option {
	return func(r *Registry) { r.after = f }
}

// NewRegistry returns an empty registry delivering through n.
func NewRegistry(n notify.Notifier, opts ...Option) *Registry {
	r := &Registry{
		pending:  make(map[string]*entry),
		notifier: n,
		now:      time.Now,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule books b, replacing any pending booking with the same key.
func (r *Registry) Schedule(b Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduleLocked(b)
}

// Replace cancels every pending booking whose key starts with prefix, then
// books bs. An empty prefix cancels everything.
func (r *Registry) Replace(prefix string, bs []Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelPrefixLocked(prefix)
	var errs []error
	for _, b := range bs {
		if err := r.scheduleLocked(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cancel removes the booking with key. It reports whether one was pending.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.pending, key)
	return true
}

// CancelAll removes every pending booking.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelPrefixLocked("")
}

// Pending lists pending bookings ordered by fire time.
func (r *Registry) Pending() []Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Booking, 0, len(r.pending))
	for _, e := range r.pending {
		out = append(out, e.booking)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func (r *Registry) scheduleLocked(b Booking) error {
	now := r.now()
	if !b.At.After(now) {
		return fmt.Errorf("%w: %s at %s", ErrNotFuture, b.Key, b.At.Format(time.RFC3339))
	}
	if old, ok := r.pending[b.Key]; ok {
		old.timer.Stop()
	}

	e := &entry{booking: b}
	e.timer = r.after(b.At.Sub(now), func() { r.fire(e) })
	r.pending[b.Key] = e

	log.Debug().Str("key", b.Key).Time("at", b.At).Msg("[reminder] booked")
	return nil
}

func (r *Registry) cancelPrefixLocked(prefix string) {
	for key, e := range r.pending {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e.timer.Stop()
		delete(r.pending, key)
	}
}

func (r *Registry) fire(e *entry) {
	r.mu.Lock()
	current, ok := r.pending[e.booking.Key]
	if !ok || current != e {
		r.mu.Unlock()
		return
	}
	delete(r.pending, e.booking.Key)
	r.mu.Unlock()

	b := e.booking
	if err := r.notifier.Notify(context.Background(), b.Message); err != nil {
		log.Error().Err(err).Str("key", b.Key).Msg("[reminder] delivery failed")
	}
	if b.OnFire != nil {
		b.OnFire(b)
	}
}
