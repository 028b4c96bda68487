package services

import (
	"fmt"
	"strings"

	"errand-route-service/internal/domain"
)

const mapsDirBase = "https://www.google.com/maps/dir/?api=1"

// MapsURL builds a Google Maps directions link for the day's drive.
// With returnHome the destination is the origin and every stop becomes a
// waypoint; otherwise the last stop is the destination. Stops with unset
// coordinates are dropped; no valid stops means no URL.
func MapsURL(origin domain.Coordinates, stops []domain.Coordinates, returnHome bool) string {
	valid := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		if !s.IsZero() {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 || origin.IsZero() {
		return ""
	}

	var destination domain.Coordinates
	var waypoints []domain.Coordinates
	if returnHome {
		destination = origin
		waypoints = valid
	} else {
		destination = valid[len(valid)-1]
		waypoints = valid[:len(valid)-1]
	}

	var b strings.Builder
	b.WriteString(mapsDirBase)
	b.WriteString("&origin=")
	b.WriteString(coordParam(origin))
	b.WriteString("&destination=")
	b.WriteString(coordParam(destination))
	b.WriteString("&travelmode=driving")

	if len(waypoints) > 0 {
		parts := make([]string, 0, len(waypoints))
		for _, w := range waypoints {
			parts = append(parts, coordParam(w))
		}
		b.WriteString("&waypoints=")
		b.WriteString(strings.Join(parts, "|"))
	}

	return b.String()
}

func coordParam(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
