// Package ui is the live countdown shown by `salah watch`.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/qibla"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

const barWidth = 30

// Options configure the watch model.
type Options struct {
	Calc       prayer.Scheduler
	Location   geo.Location
	Method     string
	Prayers    []prayer.Name
	TimeFormat string // Go layout, "15:04" or "3:04 PM"
	Now        func() time.Time
}

// Model is the bubbletea model of the live countdown.
type Model struct {
	opts  Options
	theme Theme
	zone  *time.Location

	width int
	now   time.Time
	day   prayer.DailySchedule
}

// NewModel builds the model and computes the current day's schedule.
func NewModel(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = "15:04"
	}
	if len(opts.Prayers) == 0 {
		opts.Prayers = prayer.DefaultNames
	}
	zone, _ := tz.Zone(opts.Location)
	m := Model{opts: opts, theme: DefaultTheme, zone: zone}
	return m.at(opts.Now())
}

// Run starts the full-screen program and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type tickMsg struct{ now time.Time }

func (m Model) tick() tea.Cmd {
	now := m.opts.Now
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{now: now()} })
}

// Init starts the one-second tick.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// at moves the model to now, rebuilding the schedule when the local date
// has changed.
func (m Model) at(now time.Time) Model {
	m.now = now.In(m.zone)
	if m.day.Date != tz.DateString(m.now, m.opts.Location) {
		m.day = m.opts.Calc.Calculate(m.now, m.opts.Location, m.opts.Method)
	}
	return m
}

// Update advances the clock on each tick and handles the quit and 12h/24h keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.at(msg.now), m.tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t":
			if m.opts.TimeFormat == "15:04" {
				m.opts.TimeFormat = "3:04 PM"
			} else {
				m.opts.TimeFormat = "15:04"
			}
		}
	}
	return m, nil
}

// View renders the day, the countdown to the next prayer and the Qibla bearing.
func (m Model) View() string {
	t := m.theme
	var sb strings.Builder

	title := t.Title.Render(m.opts.Location.Label())
	date := t.Label.Render(m.now.Format("Mon 02 Jan 2006"))
	if m.day.Hijri != "" {
		date += t.Label.Render(" · " + m.day.Hijri)
	}
	sb.WriteString(title + "\n" + date + "\n\n")

	next, nextAt, ok := prayer.Upcoming(m.opts.Calc, m.opts.Location, m.opts.Method, m.opts.Prayers, m.now)
	for _, p := range m.day.Filter(m.opts.Prayers) {
		when := prayer.OccurrenceForDate(p, m.now)
		line := fmt.Sprintf("%-8s %s", p.Name, when.In(m.zone).Format(m.opts.TimeFormat))
		switch {
		case ok && p.Name == next.Name && tz.DateString(nextAt, m.opts.Location) == m.day.Date:
			sb.WriteString(t.Next.Render("▸ "+line) + "\n")
		case !when.After(m.now):
			sb.WriteString(t.Passed.Render("  "+line) + "\n")
		default:
			sb.WriteString(t.Value.Render("  "+line) + "\n")
		}
	}

	if ok {
		sb.WriteString("\n")
		sb.WriteString(t.Next.Render(fmt.Sprintf("%s in %s", next.Name, prayer.FormatCountdown(nextAt.Sub(m.now)))))
		sb.WriteString("\n")
		if w, wok := prayer.WindowAt(m.opts.Calc, m.opts.Location, m.opts.Method, m.opts.Prayers, m.now); wok {
			sb.WriteString(display.ProgressBar(w.Progress(m.now), barWidth))
			sb.WriteString(t.Label.Render(fmt.Sprintf(" %s → %s, %s left", w.Previous.Name, w.Next.Name, prayer.FormatTimeRemaining(w.Remaining(m.now)))))
			sb.WriteString("\n")
		}
	}

	bearing := qibla.Direction(m.opts.Location)
	sb.WriteString("\n" + t.Label.Render(fmt.Sprintf("Qibla %.1f° %s", bearing, qibla.Compass(bearing))) + "\n")
	sb.WriteString(t.Hint.Render("t: 12h/24h · q: quit"))

	return t.Border.Render(sb.String())
}
