package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/ports"
)

type fakeGeocoder struct {
	geocode     *domain.PlaceSearchResult
	nearby      []domain.PlaceSearchResult
	multi       []domain.GeocodedAddress
	nearbyCalls int
}

func (f *fakeGeocoder) Geocode(context.Context, string) (*domain.PlaceSearchResult, error) {
	return f.geocode, nil
}

func (f *fakeGeocoder) GeocodeMulti(context.Context, string, int, *domain.Coordinates) ([]domain.GeocodedAddress, error) {
	return f.multi, nil
}

func (f *fakeGeocoder) SearchNearby(context.Context, string, domain.Coordinates, float64, int) ([]domain.PlaceSearchResult, error) {
	f.nearbyCalls++
	return f.nearby, nil
}

type fakePlaces struct {
	hit   *domain.PlaceSearchResult
	calls int
}

func (f *fakePlaces) SearchText(context.Context, string, domain.Coordinates, float64) (*domain.PlaceSearchResult, error) {
	f.calls++
	return f.hit, nil
}

type fakeReranker struct {
	verdict *ports.RerankResult
}

func (f *fakeReranker) Rerank(context.Context, string, string, []domain.ScoredCandidate) (*ports.RerankResult, error) {
	return f.verdict, nil
}

type fakeWebSearch struct {
	hit   *domain.PlaceSearchResult
	calls int
}

func (f *fakeWebSearch) SearchPlace(context.Context, string, string) (*domain.PlaceSearchResult, error) {
	f.calls++
	return f.hit, nil
}

func place(name, address string, lat, lon float64) domain.PlaceSearchResult {
	return domain.PlaceSearchResult{
		Name:    name,
		Address: address,
		Coords:  domain.Coordinates{Lat: lat, Lon: lon},
		Source:  domain.SourceNominatim,
	}
}

func TestResolveHomeNotSet(t *testing.T) {
	r := NewResolver(&fakeGeocoder{})

	_, err := r.Resolve(context.Background(), domain.Settings{}, domain.Query{Name: "anything"})
	require.ErrorIs(t, err, domain.ErrHomeNotSet)
}

func TestResolveLiteralAddressShortCircuits(t *testing.T) {
	hit := place("500 Elm St", "500 Elm St, Hutto, TX", 30.55, -97.55)
	geo := &fakeGeocoder{geocode: &hit}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{
		Name:    "Dry cleaner",
		Address: "500 Elm St, Hutto, TX",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoBest, got.Decision)
	require.NotNil(t, got.Selected)
	assert.Equal(t, hit.Coords, got.Selected.Place.Coords)
	assert.Zero(t, geo.nearbyCalls, "cascade ran despite literal address")
}

func TestResolveNoCandidates(t *testing.T) {
	r := NewResolver(&fakeGeocoder{})

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "zzqzzq nonexistent 123"})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionNoMatch, got.Decision)
	assert.Empty(t, got.Candidates)
	assert.Nil(t, got.Selected)
	assert.Equal(t, "no candidates found", got.Reason)
}

func TestResolveSingleStrongMatch(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Hutto Public Library", "500 W Live Oak St, Hutto, TX", 30.54, -97.55),
	}}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Hutto Library"})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoBest, got.Decision)
	require.NotNil(t, got.Selected)
	assert.Equal(t, domain.ReasonOnlyMatch, got.Selected.Reason)
	assert.Equal(t, "only match", got.Reason)
}

func TestResolveSingleWeakMatchPends(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Completely Different Business", "1 Elsewhere Rd, Hutto, TX", 30.54, -97.55),
	}}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "zzq specialty shop"})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionPending, got.Decision)
	assert.Nil(t, got.Selected)
	assert.True(t, got.NeedsDisambiguation())
}

func TestResolveFiltersFarAndForeign(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Great Clips", "Dublin, Ireland", 30.55, -97.55),
		place("Great Clips", "200 mi away", 33.5, -97.55),
	}}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Great Clips"})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionNoMatch, got.Decision)
	assert.Empty(t, got.Candidates)
}

func TestResolveClearWinner(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Hutto Hardware", "100 Main St, Hutto, TX", 30.545, -97.548),
		place("Taylor Feed and Supply", "900 Far Rd, Taylor, TX", 30.57, -97.41),
	}}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Hutto Hardware"})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoBest, got.Decision)
	require.NotNil(t, got.Selected)
	assert.Equal(t, domain.ReasonClearWinner, got.Selected.Reason)
	assert.Contains(t, got.Reason, "clear winner")
}

func TestResolvePlacesTierPrependsForChains(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Walmart Supercenter", "Taylor, TX", 30.57, -97.42),
		place("Walmart Neighborhood Market", "Hutto, TX", 30.55, -97.55),
		place("Walmart Supercenter", "Round Rock, TX", 30.51, -97.67),
	}}
	hit := place("Walmart Supercenter", "Hutto, TX", 30.544, -97.546)
	hit.Source = domain.SourceGooglePlaces
	places := &fakePlaces{hit: &hit}

	r := NewResolver(geo, WithPlaces(places))

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Walmart"})
	require.NoError(t, err)

	assert.Equal(t, 1, places.calls, "chain query must consult the places tier")
	require.NotEmpty(t, got.Candidates)
	require.NotNil(t, got.Selected)
	assert.Equal(t, domain.SourceGooglePlaces, got.Selected.Place.Source)
}

func TestResolvePlacesTierSkippedWhenStrong(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Hutto Bakery", "101 Main St, Hutto, TX", 30.545, -97.548),
		place("Hutto Bakery East", "202 Oak St, Hutto, TX", 30.55, -97.53),
		place("Hutto Bakery Cafe", "303 Pecan St, Hutto, TX", 30.54, -97.56),
	}}
	places := &fakePlaces{}

	r := NewResolver(geo, WithPlaces(places))

	_, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Hutto Bakery"})
	require.NoError(t, err)

	assert.Zero(t, places.calls)
}

func TestResolveRerankerRotatesAndConfirms(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Mision Viejo Salon", "1 A St, Hutto, TX", 30.545, -97.548),
		place("Mission Viejo Salon and Spa", "2 B St, Hutto, TX", 30.55, -97.53),
	}}
	idx := 1
	r := NewResolver(geo, WithReranker(&fakeReranker{verdict: &ports.RerankResult{
		BestIndex:  &idx,
		Confidence: ports.ConfidenceHigh,
	}}))

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Mission Viejo Salon"})
	require.NoError(t, err)

	require.NotNil(t, got.Selected)
	assert.Equal(t, domain.DecisionAutoBest, got.Decision)
	assert.Equal(t, "2 B St, Hutto, TX", got.Selected.Place.Address)
}

func TestResolveWebSearchFallbackOnEmpty(t *testing.T) {
	hit := place("Joe's Welding", "400 Industrial Blvd, Taylor, TX", 30.57, -97.42)
	hit.Source = domain.SourceWebSearch
	web := &fakeWebSearch{hit: &hit}

	r := NewResolver(&fakeGeocoder{}, WithWebSearch(web))

	got, err := r.Resolve(context.Background(), testSettings(), domain.Query{Name: "Joes Welding"})
	require.NoError(t, err)

	assert.Equal(t, 1, web.calls)
	require.NotEmpty(t, got.Candidates)
	assert.Equal(t, domain.SourceWebSearch, got.Candidates[0].Place.Source)
}

func TestResolveWebSearchSkippedWhenEnoughCandidates(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Hutto Bakery", "101 Main St, Hutto, TX", 30.545, -97.548),
		place("Hutto Bakery East", "202 Oak St, Hutto, TX", 30.55, -97.53),
	}}
	web := &fakeWebSearch{}

	_, err := NewResolver(geo, WithWebSearch(web)).
		Resolve(context.Background(), testSettings(), domain.Query{Name: "Hutto Bakery"})
	require.NoError(t, err)

	assert.Zero(t, web.calls)
}

func TestResolveAllPreservesOrder(t *testing.T) {
	geo := &fakeGeocoder{nearby: []domain.PlaceSearchResult{
		place("Hutto Public Library", "500 W Live Oak St, Hutto, TX", 30.54, -97.55),
	}}
	r := NewResolver(geo)

	queries := []domain.Query{
		{ID: "q1", Name: "Hutto Public Library"},
		{ID: "q2", Name: "Hutto Public Library"},
		{ID: "q3", Name: "Hutto Public Library"},
	}

	got, err := r.ResolveAll(context.Background(), testSettings(), queries)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, rp := range got {
		assert.Equal(t, queries[i].Name, rp.Query, "index %d", i)
		assert.True(t, rp.IsResolved())
	}
}

func TestResolveAllHomeNotSet(t *testing.T) {
	r := NewResolver(&fakeGeocoder{})

	_, err := r.ResolveAll(context.Background(), domain.Settings{}, []domain.Query{{Name: "x"}})
	require.ErrorIs(t, err, domain.ErrHomeNotSet)
}

func TestSelectCandidate(t *testing.T) {
	home := domain.Coordinates{Lat: 30.5427, Lon: -97.5467}
	cands := []domain.ScoredCandidate{
		scoreCandidate("Great Clips", home, place("Great Clips", "A", 30.55, -97.55)),
		scoreCandidate("Great Clips", home, place("Great Clips", "B", 30.60, -97.60)),
	}
	resolved := domain.ResolvedPlace{
		Query:      "Great Clips",
		Candidates: cands,
		Decision:   domain.DecisionPending,
	}

	got := SelectCandidate(resolved, 1)

	assert.Equal(t, domain.DecisionUserSelected, got.Decision)
	require.NotNil(t, got.Selected)
	assert.Equal(t, "B", got.Selected.Place.Address)
	assert.Equal(t, domain.ReasonUserSelected, got.Selected.Reason)
	assert.Len(t, got.Candidates, 2)
}

func TestSelectCandidateOutOfRange(t *testing.T) {
	resolved := domain.ResolvedPlace{Query: "x", Decision: domain.DecisionPending}

	got := SelectCandidate(resolved, 5)
	assert.Equal(t, resolved, got)
}

func TestExtractLocationContext(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123 Main St, Hutto, TX 78634", "Hutto, TX"},
		{"123 Main St, Hutto, Texas", "Hutto, TX"},
		{"somewhere", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, extractLocationContext(c.in), "input %q", c.in)
	}
}
