package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/domain"
)

var (
	testFrom = domain.Coordinates{Lat: 30.5427, Lon: -97.5467}
	testTo   = domain.Coordinates{Lat: 30.5127, Lon: -97.6780}
)

func TestSegmentFromOSRM(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":15000,"duration":1200,"geometry":""}]}`))
	}))
	defer srv.Close()

	kv := cache.NewMemoryCache()
	p := NewOSRMRouteProvider(srv.URL, 10*time.Second, 40, kv, time.Hour)

	r, err := p.Segment(context.Background(), testFrom, testTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DistanceKm != 15 {
		t.Fatalf("distance = %v km, want 15", r.DistanceKm)
	}
	if r.DurationMin != 20 {
		t.Fatalf("duration = %v min, want 20", r.DurationMin)
	}
	if r.Source != "osrm" {
		t.Fatalf("source = %q, want osrm", r.Source)
	}

	// Second lookup must hit the cache, not the server.
	if _, err := p.Segment(context.Background(), testFrom, testTo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("server called %d times, want 1", calls)
	}
}

func TestSegmentFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOSRMRouteProvider(srv.URL, time.Second, 40, cache.NewMemoryCache(), time.Hour)

	r, err := p.Segment(context.Background(), testFrom, testTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Source != "estimate" {
		t.Fatalf("source = %q, want estimate", r.Source)
	}
	if r.DistanceKm <= 0 || r.DurationMin <= 0 {
		t.Fatalf("estimate should be positive, got %+v", r)
	}

	// distance = haversine * 1.4; duration = distance / 40 km/h.
	wantMin := r.DistanceKm / 40 * 60
	if diff := r.DurationMin - wantMin; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("duration = %v, want %v", r.DurationMin, wantMin)
	}
}

func TestSegmentRejectsUnsetCoordinates(t *testing.T) {
	p := NewOSRMRouteProvider("http://invalid", time.Second, 40, nil, time.Hour)

	if _, err := p.Segment(context.Background(), domain.Coordinates{}, testTo); err == nil {
		t.Fatal("expected error for unset origin")
	}
}
