package prayer

import (
	"sort"
	"time"
)

type ranked struct {
	idx int
	at  time.Time
}

// rank orders the indices of prayers by their same-day occurrence.
func rank(prayers []Prayer, ref time.Time) []ranked {
	r := make([]ranked, len(prayers))
	for i, p := range prayers {
		r[i] = ranked{idx: i, at: OccurrenceForDate(p, ref)}
	}
	sort.SliceStable(r, func(i, j int) bool { return r[i].at.Before(r[j].at) })
	return r
}

// NextPrayer returns the first entry whose same-day occurrence is strictly
// after ref. When every entry has passed it wraps to the earliest one
// (tomorrow's first prayer, still labelled with today's time string).
// The result points into prayers; it is nil only for an empty slice.
func NextPrayer(prayers []Prayer, ref time.Time) *Prayer {
	r := rank(prayers, ref)
	if len(r) == 0 {
		return nil
	}
	for _, e := range r {
		if e.at.After(ref) {
			return &prayers[e.idx]
		}
	}
	return &prayers[r[0].idx]
}

// NextOccurrence is NextPrayer plus the true upcoming instant of the entry,
// which lies on the next day in the wrap-around case.
func NextOccurrence(prayers []Prayer, ref time.Time) (*Prayer, time.Time) {
	p := NextPrayer(prayers, ref)
	if p == nil {
		return nil, time.Time{}
	}
	return p, UpcomingOccurrence(*p, ref)
}

// PreviousPrayer returns the latest entry whose occurrence is at or before
// ref. Before the day's first entry it falls back to the day's last entry
// moved back one calendar day.
func PreviousPrayer(prayers []Prayer, ref time.Time) (*Prayer, time.Time) {
	r := rank(prayers, ref)
	if len(r) == 0 {
		return nil, time.Time{}
	}
	for i := len(r) - 1; i >= 0; i-- {
		if !r[i].at.After(ref) {
			return &prayers[r[i].idx], r[i].at
		}
	}
	last := r[len(r)-1]
	return &prayers[last.idx], last.at.AddDate(0, 0, -1)
}

// Window is the span between the most recent and the upcoming prayer.
type Window struct {
	Previous Prayer
	Next     Prayer
	Start    time.Time
	End      time.Time
}

// ProgressWindow returns the window around ref. ok is false for an empty
// slice, or when the previous occurrence is not strictly before the next
// one, which would give a zero or negative width.
func ProgressWindow(prayers []Prayer, ref time.Time) (w Window, ok bool) {
	next, end := NextOccurrence(prayers, ref)
	prev, start := PreviousPrayer(prayers, ref)
	if next == nil || prev == nil || !start.Before(end) {
		return Window{}, false
	}
	return Window{Previous: *prev, Next: *next, Start: start, End: end}, true
}

// Progress returns the elapsed fraction of the window at ref, in [0, 1].
func (w Window) Progress(ref time.Time) float64 {
	total := w.End.Sub(w.Start)
	if total <= 0 {
		return 0
	}
	f := float64(ref.Sub(w.Start)) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Remaining returns the time left until the window's end.
func (w Window) Remaining(ref time.Time) time.Duration {
	return w.End.Sub(ref)
}
