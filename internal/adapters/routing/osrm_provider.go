package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// Empirical ratio of road distance to straight-line distance.
const roadCurveFactor = 1.4

// OSRMRouteProvider implements RouteProvider against an OSRM server.
//
// It coordinates:
//   - Persistent segment caching keyed on rounded coordinates
//   - External routing calls with a hard per-call timeout
//   - A haversine estimate when the routing service is unavailable
//
// The provider is safe for concurrent use and never fails a lookup:
// any provider-side problem degrades to the estimate.
type OSRMRouteProvider struct {
	session          *http.Client
	baseURL          string
	fallbackSpeedKmh float64
	cache            ports.KeyValueCache
	ttl              time.Duration
}

func NewOSRMRouteProvider(
	baseURL string,
	timeout time.Duration,
	fallbackSpeedKmh float64,
	kv ports.KeyValueCache,
	ttl time.Duration,
) *OSRMRouteProvider {
	if fallbackSpeedKmh <= 0 {
		fallbackSpeedKmh = 40
	}

	return &OSRMRouteProvider{
		session:          &http.Client{Timeout: timeout},
		baseURL:          baseURL,
		fallbackSpeedKmh: fallbackSpeedKmh,
		cache:            kv,
		ttl:              ttl,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Segment returns driving distance and duration between two points.
// Results come from the cache, the OSRM server, or the haversine
// fallback, in that order.
func (o *OSRMRouteProvider) Segment(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "osrm.Segment")(&err)

	if from.IsZero() || to.IsZero() {
		return ports.RouteResult{}, errors.New("route segment: from and to must be set")
	}

	key := o.segmentKey(from, to)

	if o.cache != nil {
		if raw, ok, cerr := o.cache.Get(ctx, key); cerr == nil && ok {
			var cached ports.RouteResult
			if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
				return cached, nil
			}
		} else if cerr != nil {
			log.Printf("route segment: cache read failed key=%s err=%v", key, cerr)
		}
	}

	result, err := o.callOSRM(ctx, from, to)
	if err != nil {
		log.Printf("route segment: osrm unavailable, using estimate: %v", err)
		result = o.estimate(from, to)
	}

	if o.cache != nil {
		if raw, jerr := json.Marshal(result); jerr == nil {
			if cerr := o.cache.Set(ctx, key, string(raw), o.ttl); cerr != nil {
				log.Printf("route segment: cache write failed key=%s err=%v", key, cerr)
			}
		}
	}

	return result, nil
}

// segmentKey hashes the four coordinates rounded to 5 decimals (~1 m),
// so nearby re-requests share a cache entry.
func (o *OSRMRouteProvider) segmentKey(from, to domain.Coordinates) string {
	round := func(v float64) float64 { return math.Round(v*1e5) / 1e5 }
	return cache.Key("routing", "segment", []float64{
		round(from.Lat), round(from.Lon), round(to.Lat), round(to.Lon),
	})
}

func (o *OSRMRouteProvider) callOSRM(
	ctx context.Context,
	from, to domain.Coordinates,
) (ports.RouteResult, error) {
	url := fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		o.baseURL, from.Lon, from.Lat, to.Lon, to.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.RouteResult{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, fmt.Errorf("decode route response: %w", err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return ports.RouteResult{}, fmt.Errorf("no route found (code=%q)", decoded.Code)
	}

	r := decoded.Routes[0]

	return ports.RouteResult{
		DistanceKm:  r.Distance / 1000,
		DurationMin: r.Duration / 60,
		Geometry:    r.Geometry,
		Source:      "osrm",
	}, nil
}

// estimate approximates a driving segment from straight-line distance
// at city speed.
func (o *OSRMRouteProvider) estimate(from, to domain.Coordinates) ports.RouteResult {
	km := geo.HaversineKm(from, to) * roadCurveFactor

	return ports.RouteResult{
		DistanceKm:  km,
		DurationMin: km / o.fallbackSpeedKmh * 60,
		Source:      "estimate",
	}
}
