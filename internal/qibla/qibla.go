// Package qibla computes the great-circle bearing toward the Kaaba.
package qibla

import (
	"math"

	"github.com/smokyabdulrahman/salah/internal/geo"
)

// Kaaba is the fixed destination of every bearing.
var Kaaba = geo.Location{Latitude: 21.4225, Longitude: 39.8262, City: "Makkah", Country: "Saudi Arabia"}

// Direction returns the initial great-circle bearing from loc to the Kaaba
// in degrees clockwise from true north, in [0, 360).
func Direction(loc geo.Location) float64 {
	lat1 := rad(loc.Latitude)
	lat2 := rad(Kaaba.Latitude)
	dLon := rad(Kaaba.Longitude - loc.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	deg = math.Mod(math.Mod(deg, 360)+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

var points = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass returns the 16-point compass label of a bearing.
func Compass(deg float64) string {
	deg = math.Mod(math.Mod(deg, 360)+360, 360)
	return points[int(math.Round(deg/22.5))%len(points)]
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
