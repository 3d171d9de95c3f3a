package prayer

import (
	"testing"
	"time"
)

func TestUpcoming_SameDay(t *testing.T) {
	calc := NewCalculator(fixedProvider(nil))

	p, when, ok := Upcoming(calc, testLoc, "mwl", DefaultNames, at(13, 0))
	if !ok {
		t.Fatal("expected a prayer")
	}
	if p.Name != Asr {
		t.Errorf("next = %s, want Asr", p.Name)
	}
	if want := at(15, 40); !when.Equal(want) {
		t.Errorf("at = %v, want %v", when, want)
	}
}

func TestUpcoming_AfterIshaUsesTomorrow(t *testing.T) {
	calc := NewCalculator(fixedProvider(nil))

	p, when, ok := Upcoming(calc, testLoc, "mwl", DefaultNames, at(22, 0))
	if !ok {
		t.Fatal("expected a prayer")
	}
	if p.Name != Fajr {
		t.Errorf("next = %s, want Fajr", p.Name)
	}
	want := time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)
	if !when.Equal(want) {
		t.Errorf("at = %v, want %v", when, want)
	}
	if p.Timestamp != want.Unix() {
		t.Errorf("timestamp = %d, want tomorrow's %d", p.Timestamp, want.Unix())
	}
}

func TestUpcoming_NothingSelected(t *testing.T) {
	calc := NewCalculator(fixedProvider(nil))

	if _, _, ok := Upcoming(calc, testLoc, "mwl", nil, at(13, 0)); ok {
		t.Error("expected ok=false for an empty selection")
	}
}

func TestWindowAt(t *testing.T) {
	calc := NewCalculator(fixedProvider(nil))

	w, ok := WindowAt(calc, testLoc, "mwl", DefaultNames, at(14, 0))
	if !ok {
		t.Fatal("expected a window")
	}
	if w.Previous.Name != Dhuhr || w.Next.Name != Asr {
		t.Errorf("window = %s..%s, want Dhuhr..Asr", w.Previous.Name, w.Next.Name)
	}
	if got := w.Progress(at(14, 0)); got <= 0 || got >= 1 {
		t.Errorf("progress = %v, want inside (0, 1)", got)
	}
}
