package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/notify"
	"github.com/smokyabdulrahman/salah/internal/store"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
)

// State is a step of the Tahajjud reminder lifecycle.
type State string

const (
	Disabled   State = "disabled"
	Scheduling State = "scheduling"
	Scheduled  State = "scheduled"
	Fired      State = "fired"
	Cancelled  State = "cancelled"
)

// TahajjudKey is the registry key of the Tahajjud reminder.
const TahajjudKey = "tahajjud"

// Store keys.
const (
	stateKey  = "tahajjud.state"
	fireAtKey = "tahajjud.fire_at"
)

// ErrInvalidTransition is returned for a move the lifecycle does not allow.
var ErrInvalidTransition = errors.New("reminder: invalid state transition")

var transitions = map[State][]State{
	Disabled:   {Scheduling, Cancelled},
	Scheduling: {Scheduling, Scheduled, Cancelled},
	Scheduled:  {Fired, Scheduling, Cancelled},
	Fired:      {Scheduling, Cancelled},
	Cancelled:  {Scheduling, Cancelled},
}

func canMove(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Tahajjud drives the night reminder:
// Disabled -> Scheduling -> Scheduled -> (Fired -> Scheduling) | Cancelled.
// State and the booked instant are persisted so a restarted daemon can
// re-book.
type Tahajjud struct {
	mu       sync.Mutex
	state    State
	fireAt   time.Time
	registry *Registry
	store    store.Store
	calc     tahajjud.Calculator
	loc      geo.Location
	opts     tahajjud.Options
	now      func() time.Time
}

// NewTahajjud returns a reminder in the Disabled state.
func NewTahajjud(reg *Registry, st store.Store, calc tahajjud.Calculator, loc geo.Location, opts tahajjud.Options) *Tahajjud {
	return &Tahajjud{
		state:    Disabled,
		registry: reg,
		store:    st,
		calc:     calc,
		loc:      loc,
		opts:     opts,
		now:      reg.now,
	}
}

// State returns the current state and, when Scheduled, the booked instant.
func (t *Tahajjud) State() (State, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.fireAt
}

// Enable computes the next fire time and books it.
func (t *Tahajjud) Enable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduleLocked(ctx)
}

// Disable cancels the pending reminder. It is allowed from every state.
func (t *Tahajjud) Disable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.registry.Cancel(TahajjudKey)
	t.fireAt = time.Time{}
	return t.moveLocked(ctx, Cancelled)
}

// Restore loads the persisted state. A reminder that was active when the
// process stopped is booked again.
func (t *Tahajjud) Restore(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	saved, err := t.store.Get(ctx, stateKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading tahajjud state: %w", err)
	}

	switch State(saved) {
	case Scheduling, Scheduled, Fired:
		t.state = Scheduling
		return t.scheduleLocked(ctx)
	case Cancelled:
		t.state = Cancelled
	default:
		t.state = Disabled
	}
	return nil
}

func (t *Tahajjud) scheduleLocked(ctx context.Context) error {
	if t.state == Scheduled {
		t.registry.Cancel(TahajjudKey)
	}
	if err := t.moveLocked(ctx, Scheduling); err != nil {
		return err
	}

	now := t.now()
	at := tahajjud.FireTime(t.calc, t.loc, now, t.opts)
	err := t.registry.Schedule(Booking{
		Key: TahajjudKey,
		At:  at,
		Message: notify.Message{
			Key:   TahajjudKey,
			Title: "Tahajjud",
			Body:  fmt.Sprintf("Time for Tahajjud (%s)", at.Format("15:04")),
			At:    at,
		},
		OnFire: t.onFire,
	})
	if err != nil {
		// Remain in Scheduling; the next Enable or Restore retries.
		return fmt.Errorf("booking tahajjud reminder: %w", err)
	}

	t.fireAt = at
	if err := t.store.Set(ctx, fireAtKey, at.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("saving tahajjud fire time: %w", err)
	}
	return t.moveLocked(ctx, Scheduled)
}

func (t *Tahajjud) onFire(Booking) {
	ctx := context.Background()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Scheduled {
		return
	}
	if err := t.moveLocked(ctx, Fired); err != nil {
		log.Error().Err(err).Msg("[reminder] tahajjud state update failed")
		return
	}
	if err := t.scheduleLocked(ctx); err != nil {
		log.Error().Err(err).Msg("[reminder] tahajjud rescheduling failed")
	}
}

func (t *Tahajjud) moveLocked(ctx context.Context, to State) error {
	if !canMove(t.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, to)
	}
	t.state = to
	if err := t.store.Set(ctx, stateKey, string(to)); err != nil {
		return fmt.Errorf("saving tahajjud state: %w", err)
	}
	log.Debug().Str("state", string(to)).Msg("[reminder] tahajjud state")
	return nil
}
