package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// GooglePlacesSearcher implements the secondary place-search port against
// the Google Places text-search API. Google enforces its own quota, so the
// adapter carries no rate gate. Results are filtered by a max-miles
// threshold after the call; failures are absorbed into a nil result.
type GooglePlacesSearcher struct {
	session *http.Client
	baseURL string
	apiKey  string
	cache   ports.KeyValueCache
	ttl     time.Duration
}

func NewGooglePlacesSearcher(apiKey string, kv ports.KeyValueCache, ttl time.Duration) *GooglePlacesSearcher {
	return &GooglePlacesSearcher{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://maps.googleapis.com/maps/api/place/textsearch/json",
		apiKey:  apiKey,
		cache:   kv,
		ttl:     ttl,
	}
}

type googlePlacesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// SearchText returns the closest text-search match within maxMiles of
// center, or nil when nothing qualifies.
func (g *GooglePlacesSearcher) SearchText(
	ctx context.Context,
	query string,
	center domain.Coordinates,
	maxMiles float64,
) (_ *domain.PlaceSearchResult, err error) {
	defer obs.Time(ctx, "places.SearchText")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cache.Key("google_places", "search_text", map[string]any{
		"query": query, "lat": center.Lat, "lon": center.Lon,
	})

	var decoded googlePlacesResponse
	if !g.cached(ctx, key, &decoded) {
		q := url.Values{}
		q.Set("query", query)
		q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lon))
		q.Set("key", g.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("places search: create request: %w", err)
		}

		resp, err := g.session.Do(req)
		if err != nil {
			log.Printf("places: request failed query=%q err=%v", query, err)
			return nil, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("places: unexpected status query=%q status=%d", query, resp.StatusCode)
			return nil, nil
		}

		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			log.Printf("places: decode failed query=%q err=%v", query, err)
			return nil, nil
		}

		if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
			log.Printf("places: provider status query=%q status=%s", query, decoded.Status)
			return nil, nil
		}

		if g.cache != nil {
			if b, jerr := json.Marshal(decoded); jerr == nil {
				if cerr := g.cache.Set(ctx, key, string(b), g.ttl); cerr != nil {
					log.Printf("places: cache write failed key=%s err=%v", key, cerr)
				}
			}
		}
	}

	// Results come back relevance-ordered; take the first one inside the
	// distance threshold.
	for _, r := range decoded.Results {
		coords := domain.Coordinates{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng}
		if coords.IsZero() {
			continue
		}
		if maxMiles > 0 && geo.KmToMiles(geo.HaversineKm(center, coords)) > maxMiles {
			continue
		}

		placeType := ""
		if len(r.Types) > 0 {
			placeType = r.Types[0]
		}

		return &domain.PlaceSearchResult{
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Coords:     coords,
			Source:     domain.SourceGooglePlaces,
			ExternalID: r.PlaceID,
			PlaceType:  placeType,
		}, nil
	}

	return nil, nil
}

func (g *GooglePlacesSearcher) cached(ctx context.Context, key string, out *googlePlacesResponse) bool {
	if g.cache == nil {
		return false
	}

	raw, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		log.Printf("places: cache read failed key=%s err=%v", key, err)
		return false
	}
	if !ok {
		return false
	}

	return json.Unmarshal([]byte(raw), out) == nil
}
