package server

import (
	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

// ScheduleResponse is the body of GET /api/v1/schedule.
type ScheduleResponse struct {
	Location   geo.Location    `json:"location"`
	Method     string          `json:"method"`
	Date       string          `json:"date"`
	Hijri      string          `json:"hijri,omitempty"`
	Calculated bool            `json:"calculated"`
	Prayers    []prayer.Prayer `json:"prayers"`
}

// NextResponse is the body of GET /api/v1/next.
type NextResponse struct {
	Prayer    prayer.Prayer `json:"prayer"`
	At        string        `json:"at"` // RFC 3339 in the location's zone
	Remaining string        `json:"remaining"`
	Countdown string        `json:"countdown"`
	Seconds   int64         `json:"seconds"`
	Previous  *prayer.Name  `json:"previous,omitempty"`
	Progress  *float64      `json:"progress,omitempty"`

	// Calculated is false when the prayer comes from the placeholder
	// schedule used after a calculation failure.
	Calculated bool `json:"calculated"`
}

// QiblaResponse is the body of GET /api/v1/qibla.
type QiblaResponse struct {
	Location geo.Location `json:"location"`
	Bearing  float64      `json:"bearing"`
	Compass  string       `json:"compass"`
}

// TahajjudResponse is the body of GET /api/v1/tahajjud.
type TahajjudResponse struct {
	Strategy   string `json:"strategy"`
	Method     string `json:"method"`
	Clock      string `json:"clock"`
	FireAt     string `json:"fire_at"`
	Calculated bool   `json:"calculated"`
	Isha       string `json:"isha,omitempty"`
	Fajr       string `json:"fajr,omitempty"`
	Middle     string `json:"middle,omitempty"`
	LastThird  string `json:"last_third,omitempty"`
}

// MethodResponse is one entry of GET /api/v1/methods.
type MethodResponse struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	ID           int     `json:"id"`
	FajrAngle    float64 `json:"fajr_angle"`
	IshaAngle    float64 `json:"isha_angle,omitempty"`
	IshaInterval int     `json:"isha_interval,omitempty"`
	HighLatitude string  `json:"high_latitude_rule"`
}
