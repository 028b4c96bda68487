package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// NominatimGeocoder implements the primary-geocoder port against a
// Nominatim server.
//
// It coordinates:
//   - A process-wide rate gate (free tier allows one request per second)
//   - Persistent response caching under semantic keys
//   - Viewport-bounded nearby search
//
// Provider failures never propagate: the adapter logs and returns empty
// results so the resolution cascade can move to the next tier.
type NominatimGeocoder struct {
	session     *http.Client
	baseURL     string
	userAgent   string
	countryCode string
	gate        *rateGate
	cache       ports.KeyValueCache
	ttl         time.Duration
}

func NewNominatimGeocoder(
	baseURL string,
	userAgent string,
	countryCode string,
	rateLimit time.Duration,
	timeout time.Duration,
	kv ports.KeyValueCache,
	ttl time.Duration,
) *NominatimGeocoder {
	if rateLimit <= 0 {
		rateLimit = time.Second
	}

	return &NominatimGeocoder{
		session:     &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		userAgent:   userAgent,
		countryCode: countryCode,
		gate:        newRateGate(rateLimit),
		cache:       kv,
		ttl:         ttl,
	}
}

type nominatimResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Name        string  `json:"name"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Geocode resolves a free-text address to at most one result.
func (n *NominatimGeocoder) Geocode(ctx context.Context, text string) (*domain.PlaceSearchResult, error) {
	results, err := n.GeocodeMulti(ctx, text, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0].PlaceSearchResult
	return &r, nil
}

// GeocodeMulti resolves text to up to limit candidates with precision tags,
// sorted by (precision asc, importance desc, distance-to-bias asc).
func (n *NominatimGeocoder) GeocodeMulti(
	ctx context.Context,
	text string,
	limit int,
	bias *domain.Coordinates,
) (_ []domain.GeocodedAddress, err error) {
	defer obs.Time(ctx, "nominatim.GeocodeMulti")(&err)

	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil, nil
	}

	key := cache.Key("nominatim", "geocode_multi", map[string]any{
		"text": text, "limit": limit,
	})

	var raw []nominatimResult
	if !n.cachedResults(ctx, key, &raw) {
		q := url.Values{}
		q.Set("q", text)
		q.Set("format", "json")
		q.Set("limit", strconv.Itoa(limit))
		q.Set("addressdetails", "1")
		if n.countryCode != "" {
			q.Set("countrycodes", n.countryCode)
		}

		raw = n.fetch(ctx, key, q)
	}

	out := make([]domain.GeocodedAddress, 0, len(raw))
	for _, r := range raw {
		place, ok := n.toPlace(r)
		if !ok {
			continue
		}
		out = append(out, domain.GeocodedAddress{
			PlaceSearchResult: place,
			Precision:         precisionFor(r.Class, r.Type),
			Importance:        r.Importance,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Precision.Rank() != out[j].Precision.Rank() {
			return out[i].Precision.Rank() < out[j].Precision.Rank()
		}
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		if bias != nil {
			return geo.HaversineKm(*bias, out[i].Coords) < geo.HaversineKm(*bias, out[j].Coords)
		}
		return false
	})

	return out, nil
}

// SearchNearby finds places matching query inside a viewbox of radiusKm
// around center.
func (n *NominatimGeocoder) SearchNearby(
	ctx context.Context,
	query string,
	center domain.Coordinates,
	radiusKm float64,
	limit int,
) (_ []domain.PlaceSearchResult, err error) {
	defer obs.Time(ctx, "nominatim.SearchNearby")(&err)

	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	key := cache.Key("nominatim", "search_nearby", map[string]any{
		"query": query, "lat": center.Lat, "lon": center.Lon,
		"radius_km": radiusKm, "limit": limit,
	})

	var raw []nominatimResult
	if !n.cachedResults(ctx, key, &raw) {
		box := geo.BoxAround(center, radiusKm)

		q := url.Values{}
		q.Set("q", query)
		q.Set("format", "json")
		q.Set("limit", strconv.Itoa(limit))
		q.Set("addressdetails", "1")
		// viewbox is left,top,right,bottom and bounded=1 restricts results to it.
		q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", box.MinLon, box.MaxLat, box.MaxLon, box.MinLat))
		q.Set("bounded", "1")
		if n.countryCode != "" {
			q.Set("countrycodes", n.countryCode)
		}

		raw = n.fetch(ctx, key, q)
	}

	out := make([]domain.PlaceSearchResult, 0, len(raw))
	for _, r := range raw {
		if place, ok := n.toPlace(r); ok {
			out = append(out, place)
		}
	}

	return out, nil
}

// fetch runs the search request, caches the raw payload on success, and
// absorbs every failure into an empty result set.
func (n *NominatimGeocoder) fetch(ctx context.Context, key string, q url.Values) []nominatimResult {
	endpoint := n.baseURL + "/search?" + q.Encode()

	resp, err := n.doWithRetry(ctx, endpoint)
	if err != nil {
		log.Printf("nominatim: request failed query=%q err=%v", q.Get("q"), err)
		return nil
	}
	defer resp.Body.Close()

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		log.Printf("nominatim: decode failed query=%q err=%v", q.Get("q"), err)
		return nil
	}

	if n.cache != nil {
		if b, err := json.Marshal(raw); err == nil {
			if cerr := n.cache.Set(ctx, key, string(b), n.ttl); cerr != nil {
				log.Printf("nominatim: cache write failed key=%s err=%v", key, cerr)
			}
		}
	}

	return raw
}

func (n *NominatimGeocoder) cachedResults(ctx context.Context, key string, out *[]nominatimResult) bool {
	if n.cache == nil {
		return false
	}

	raw, ok, err := n.cache.Get(ctx, key)
	if err != nil {
		log.Printf("nominatim: cache read failed key=%s err=%v", key, err)
		return false
	}
	if !ok {
		return false
	}

	return json.Unmarshal([]byte(raw), out) == nil
}

func (n *NominatimGeocoder) toPlace(r nominatimResult) (domain.PlaceSearchResult, bool) {
	lat, err1 := strconv.ParseFloat(r.Lat, 64)
	lon, err2 := strconv.ParseFloat(r.Lon, 64)
	if err1 != nil || err2 != nil {
		return domain.PlaceSearchResult{}, false
	}

	name := r.Name
	if name == "" {
		// Older Nominatim versions omit name; the display name's first
		// segment is the place label.
		name = strings.SplitN(r.DisplayName, ",", 2)[0]
	}

	return domain.PlaceSearchResult{
		Name:       name,
		Address:    r.DisplayName,
		Coords:     domain.Coordinates{Lat: lat, Lon: lon},
		Source:     domain.SourceNominatim,
		ExternalID: strconv.FormatInt(r.PlaceID, 10),
		PlaceType:  r.Type,
	}, true
}

// precisionFor maps OSM class/type tags to a precision bucket.
func precisionFor(class, typ string) domain.Precision {
	switch class {
	case "amenity", "shop", "office", "leisure", "tourism", "healthcare":
		return domain.PrecisionExact
	}

	switch typ {
	case "house", "building", "residential", "apartments":
		return domain.PrecisionExact
	case "road", "street", "pedestrian", "tertiary", "secondary", "primary":
		return domain.PrecisionStreet
	case "city", "town", "village", "suburb", "neighbourhood", "hamlet":
		return domain.PrecisionCity
	}

	return domain.PrecisionRegion
}
