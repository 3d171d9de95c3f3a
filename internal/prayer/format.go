package prayer

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
)

// FormatTimeRemaining renders a duration as "Xh Ym", "Xh" or "Ym", rounded
// to the nearest minute with a minimum of one minute. Zero and negative
// durations render as "Now".
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "Now"
	}
	minutes := int64(math.Round(d.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	h, m := minutes/60, minutes%60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// FormatCountdown renders a signed "HH:MM:SS", truncating to whole seconds.
// Negative durations keep their sign for "already passed" displays.
func FormatCountdown(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/3600, (secs/60)%60, secs%60)
}

// Display modes accepted by FormatOutput.
const (
	ModeTimeRemaining      = "time-remaining"
	ModeNextPrayerTime     = "next-prayer-time"
	ModeNameAndTime        = "name-and-time"
	ModeNameAndRemaining   = "name-and-remaining"
	ModeShortNameAndTime   = "short-name-and-time"
	ModeShortNameAndRemain = "short-name-and-remaining"
	ModeCountdown          = "countdown"
	ModeFull               = "full"
)

// Modes lists the built-in display modes.
var Modes = []string{
	ModeTimeRemaining, ModeNextPrayerTime, ModeNameAndTime, ModeNameAndRemaining,
	ModeShortNameAndTime, ModeShortNameAndRemain, ModeCountdown, ModeFull,
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // "Asr"
	ShortName string // "A"
	Time      string // "15:02" or "3:02 PM"
	Remaining string // "2h 15m"
	Countdown string // "02:14:59"
	Hours     int    // whole hours remaining
	Minutes   int    // minutes after Hours
}

// FormatOutput renders the prayer occurring at `at` as seen from now.
// timeFormat is a Go layout, "15:04" or "3:04 PM".
//
// A mode containing "{{" is a custom template over FormatData, e.g.
// "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m".
func FormatOutput(p Prayer, at, now time.Time, mode, timeFormat string) string {
	d := at.Sub(now)
	remaining := FormatTimeRemaining(d)
	timeStr := at.Format(timeFormat)
	short := ShortNames[p.Name]

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      string(p.Name),
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Countdown: FormatCountdown(d),
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
		})
	}

	switch mode {
	case ModeTimeRemaining:
		return remaining
	case ModeNextPrayerTime:
		return timeStr
	case ModeNameAndRemaining:
		return fmt.Sprintf("%s %s", p.Name, remaining)
	case ModeShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case ModeShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case ModeCountdown:
		return fmt.Sprintf("%s %s", p.Name, FormatCountdown(d))
	case ModeFull:
		return fmt.Sprintf("%s %s (%s)", p.Name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", p.Name, timeStr)
	}
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return buf.String()
}
