package ports

import (
	"context"

	"errand-route-service/internal/domain"
)

// Distance and travel duration of one driving segment.
type RouteResult struct {
	DistanceKm  float64
	DurationMin float64
	Geometry    string
	Source      string
}

// Contract for computing a driving segment between two points.
type RouteProvider interface {
	// Return driving distance and estimated duration between two points.
	// Implementations degrade to an estimate rather than failing; an error
	// is returned only for invalid input.
	Segment(ctx context.Context, from, to domain.Coordinates) (RouteResult, error)
}
