package ports

import (
	"context"

	"errand-route-service/internal/domain"
)

// Port: the primary geocoding service (tier A of the resolution cascade).
type Geocoder interface {
	// Geocode a free-text address to at most one result.
	Geocode(ctx context.Context, text string) (*domain.PlaceSearchResult, error)

	// Geocode text to up to limit results with precision tags, sorted by
	// (precision ascending, importance descending, distance-to-bias
	// ascending when bias is non-nil).
	GeocodeMulti(ctx context.Context, text string, limit int, bias *domain.Coordinates) ([]domain.GeocodedAddress, error)

	// Search for places matching query within radiusKm of center.
	SearchNearby(ctx context.Context, query string, center domain.Coordinates, radiusKm float64, limit int) ([]domain.PlaceSearchResult, error)
}

// Port: the secondary commercial place search (tier B).
type PlacesSearcher interface {
	// Return the best text-search match within maxMiles of center,
	// or nil when nothing qualifies.
	SearchText(ctx context.Context, query string, center domain.Coordinates, maxMiles float64) (*domain.PlaceSearchResult, error)
}

// Confidence levels reported by the re-ranker.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// RerankResult is the re-ranker's verdict over a candidate list.
// BestIndex is nil when no candidate matches the query.
type RerankResult struct {
	BestIndex  *int
	Confidence string
	Reasoning  string
}

// Port: an LLM-backed candidate re-ranker (tier C).
type Reranker interface {
	// Pick the best candidate for the query, or report that none match.
	// A nil result means the re-ranker could not produce a verdict.
	Rerank(ctx context.Context, query, locationContext string, candidates []domain.ScoredCandidate) (*RerankResult, error)
}

// Port: a web-search fallback that digs up an address when the
// geocoders come back empty (tier D).
type WebSearcher interface {
	// Find a candidate place for the query near the textual location
	// context ("City, ST"); nil when nothing usable was found.
	SearchPlace(ctx context.Context, query, locationContext string) (*domain.PlaceSearchResult, error)
}
