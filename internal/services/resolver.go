package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// Retail chains that tend to have several branches inside the search
// radius. Matching queries always consult the places service so the brand's
// own listing can beat whatever OSM happens to carry.
var retailChains = []string{
	"walmart", "target", "costco", "sams club", "home depot", "lowes",
	"walgreens", "cvs", "kroger", "heb", "h-e-b", "aldi", "trader joes",
	"whole foods", "great clips", "supercuts", "carters", "old navy",
	"best buy", "petsmart", "petco", "starbucks", "chick fil a",
	"mcdonalds", "ups store", "fedex",
}

// Street-type words in a result name that the query lacks usually mean the
// geocoder matched a road instead of the business.
var streetWords = []string{
	"drive", "street", "avenue", "road", "lane", "boulevard",
	"court", "way", "parkway", "circle", "trail",
}

// Addresses mentioning these countries slip through viewbox searches when
// a brand name is globally unique enough.
var foreignCountries = []string{
	"ireland", "united kingdom", "canada", "mexico", "australia",
}

// Resolver turns one free-text query into one geocoded place via a tiered
// provider cascade. Later tiers prepend their candidates, keeping earlier
// results as backups. Only a missing home coordinate is an error; every
// provider problem degrades to a no-match outcome.
type Resolver struct {
	Geocoder  ports.Geocoder
	Places    ports.PlacesSearcher
	Reranker  ports.Reranker
	WebSearch ports.WebSearcher

	SearchRadiusMi   float64
	ExpandedRadiusMi float64
}

func NewResolver(geocoder ports.Geocoder, opts ...func(*Resolver)) *Resolver {
	r := &Resolver{
		Geocoder:         geocoder,
		SearchRadiusMi:   10,
		ExpandedRadiusMi: 25,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithPlaces(p ports.PlacesSearcher) func(*Resolver)    { return func(r *Resolver) { r.Places = p } }
func WithReranker(rr ports.Reranker) func(*Resolver)       { return func(r *Resolver) { r.Reranker = rr } }
func WithWebSearch(w ports.WebSearcher) func(*Resolver)    { return func(r *Resolver) { r.WebSearch = w } }
func WithRadii(searchMi, expandedMi float64) func(*Resolver) {
	return func(r *Resolver) {
		r.SearchRadiusMi = searchMi
		r.ExpandedRadiusMi = expandedMi
	}
}

// Resolve runs the full cascade for a single query.
func (r *Resolver) Resolve(
	ctx context.Context,
	settings domain.Settings,
	query domain.Query,
) (_ domain.ResolvedPlace, err error) {
	defer obs.Time(ctx, "resolver.Resolve")(&err)

	home, err := settings.HomeCoords()
	if err != nil {
		return domain.ResolvedPlace{}, fmt.Errorf("resolve %q: %w", query.Name, err)
	}

	// A literal address short-circuits the whole cascade.
	if strings.TrimSpace(query.Address) != "" {
		if resolved, ok := r.resolveLiteralAddress(ctx, home, query); ok {
			return resolved, nil
		}
	}

	places := r.tierANearby(ctx, query.Name, home)
	places = filterCandidates(home, places)

	if r.Places != nil && r.shouldUsePlaces(query.Name, places) {
		if hit, perr := r.Places.SearchText(ctx, query.Name, home, maxCandidateMiles); perr == nil && hit != nil {
			places = append([]domain.PlaceSearchResult{*hit}, places...)
		}
	}

	cands := scoreAndRank(query.Name, home, places)
	cands = applySameBrandTieBreak(cands)

	var verdict *ports.RerankResult
	if r.Reranker != nil && len(cands) > 0 {
		verdict, _ = r.Reranker.Rerank(ctx, query.Name, extractLocationContext(settings.HomeAddress), cands)
		if verdict != nil && verdict.BestIndex != nil {
			cands = rotateToFront(cands, *verdict.BestIndex)
		}
	}

	if r.WebSearch != nil && r.shouldUseWebSearch(cands, verdict) {
		if hit, werr := r.WebSearch.SearchPlace(ctx, query.Name, extractLocationContext(settings.HomeAddress)); werr == nil && hit != nil {
			cands = append([]domain.ScoredCandidate{scoreCandidate(query.Name, home, *hit)}, cands...)
		}
	}

	return decide(query.Name, cands, verdict), nil
}

// ResolveAll resolves a batch of queries with bounded parallelism. The
// returned slice mirrors the input order regardless of completion order.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	settings domain.Settings,
	queries []domain.Query,
) ([]domain.ResolvedPlace, error) {
	if _, err := settings.HomeCoords(); err != nil {
		return nil, fmt.Errorf("resolve batch: %w", err)
	}

	out := make([]domain.ResolvedPlace, len(queries))

	sem := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(idx int, query domain.Query) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			resolved, err := r.Resolve(ctx, settings, query)
			if err != nil {
				// Home was checked up front; anything here is a per-query
				// degradation, not a batch failure.
				log.Printf("resolve batch: query=%q err=%v", query.Name, err)
				resolved = domain.ResolvedPlace{
					Query:    query.Name,
					Decision: domain.DecisionNoMatch,
					Reason:   "resolution failed",
				}
			}
			out[idx] = resolved
		}(i, q)
	}

	wg.Wait()

	return out, nil
}

// SelectCandidate applies a user's disambiguation choice. Out-of-range
// indices return the resolution unchanged.
func SelectCandidate(resolved domain.ResolvedPlace, index int) domain.ResolvedPlace {
	if index < 0 || index >= len(resolved.Candidates) {
		return resolved
	}

	chosen := resolved.Candidates[index]
	chosen.Reason = domain.ReasonUserSelected

	resolved.Candidates = rotateToFront(resolved.Candidates, index)
	resolved.Candidates[0] = chosen
	resolved.Selected = &resolved.Candidates[0]
	resolved.Decision = domain.DecisionUserSelected
	resolved.Reason = "selected by user"

	return resolved
}

func (r *Resolver) resolveLiteralAddress(
	ctx context.Context,
	home domain.Coordinates,
	query domain.Query,
) (domain.ResolvedPlace, bool) {
	hit, err := r.Geocoder.Geocode(ctx, query.Address)
	if err != nil || hit == nil {
		return domain.ResolvedPlace{}, false
	}

	cand := scoreCandidate(query.Name, home, *hit)
	cand.Reason = domain.ReasonOnlyMatch

	return domain.ResolvedPlace{
		Query:      query.Name,
		Selected:   &cand,
		Candidates: []domain.ScoredCandidate{cand},
		Decision:   domain.DecisionAutoBest,
		Reason:     "address geocoded directly",
	}, true
}

// tierANearby searches near home, widening once, then falls back to a
// plain geocode of the query text.
func (r *Resolver) tierANearby(ctx context.Context, name string, home domain.Coordinates) []domain.PlaceSearchResult {
	for _, radiusMi := range []float64{r.SearchRadiusMi, r.ExpandedRadiusMi} {
		results, err := r.Geocoder.SearchNearby(ctx, name, home, geo.MilesToKm(radiusMi), 10)
		if err == nil && len(results) > 0 {
			return results
		}
	}

	multi, err := r.Geocoder.GeocodeMulti(ctx, name, 5, &home)
	if err != nil {
		return nil
	}

	out := make([]domain.PlaceSearchResult, 0, len(multi))
	for _, m := range multi {
		out = append(out, m.PlaceSearchResult)
	}
	return out
}

// filterCandidates drops results too far from home and results whose
// address places them in another country.
func filterCandidates(home domain.Coordinates, places []domain.PlaceSearchResult) []domain.PlaceSearchResult {
	out := places[:0]
	for _, p := range places {
		if geo.KmToMiles(geo.HaversineKm(home, p.Coords)) > maxCandidateMiles {
			continue
		}

		addr := strings.ToLower(p.Address)
		foreign := false
		for _, country := range foreignCountries {
			if strings.Contains(addr, country) {
				foreign = true
				break
			}
		}
		if foreign {
			continue
		}

		out = append(out, p)
	}
	return out
}

// shouldUsePlaces decides whether the secondary places service can improve
// on tier A's results.
func (r *Resolver) shouldUsePlaces(query string, places []domain.PlaceSearchResult) bool {
	if len(places) < 3 {
		return true
	}

	if isRetailChain(query) {
		return true
	}

	// A street-type word in the top name that the query lacks points at a
	// road match, not the business.
	topName := strings.ToLower(places[0].Name)
	queryLower := strings.ToLower(query)
	for _, w := range streetWords {
		if strings.Contains(topName, w) && !strings.Contains(queryLower, w) {
			return true
		}
	}

	return false
}

// shouldUseWebSearch decides whether the cascade still looks like a failure
// after tiers A-C.
func (r *Resolver) shouldUseWebSearch(cands []domain.ScoredCandidate, verdict *ports.RerankResult) bool {
	if len(cands) == 0 {
		return true
	}
	if verdict != nil && verdict.BestIndex == nil && verdict.Confidence == ports.ConfidenceLow {
		return true
	}
	return len(cands) < 2
}

func isRetailChain(query string) bool {
	q := normalizeName(query)
	for _, chain := range retailChains {
		if strings.Contains(q, normalizeName(chain)) {
			return true
		}
	}
	return false
}

func rotateToFront(cands []domain.ScoredCandidate, index int) []domain.ScoredCandidate {
	if index <= 0 || index >= len(cands) {
		return cands
	}

	out := make([]domain.ScoredCandidate, 0, len(cands))
	out = append(out, cands[index])
	for i, c := range cands {
		if i != index {
			out = append(out, c)
		}
	}
	return out
}

// decide applies the decision table to the final ordered candidate list.
func decide(query string, cands []domain.ScoredCandidate, verdict *ports.RerankResult) domain.ResolvedPlace {
	resolved := domain.ResolvedPlace{
		Query:      query,
		Candidates: cands,
	}

	autoSelect := func(reason domain.SelectionReason, text string) domain.ResolvedPlace {
		if resolved.Candidates[0].Reason == "" {
			resolved.Candidates[0].Reason = reason
		}
		resolved.Selected = &resolved.Candidates[0]
		resolved.Decision = domain.DecisionAutoBest
		resolved.Reason = text
		return resolved
	}

	switch {
	case len(cands) == 0:
		resolved.Decision = domain.DecisionNoMatch
		resolved.Reason = "no candidates found"
		return resolved

	case len(cands) == 1:
		if cands[0].NameSimilarity >= 50 {
			return autoSelect(domain.ReasonOnlyMatch, "only match")
		}
		resolved.Decision = domain.DecisionPending
		resolved.Reason = "single weak match needs confirmation"
		return resolved
	}

	top, second := cands[0], cands[1]

	if gap := top.CombinedScore - second.CombinedScore; gap >= 15 {
		return autoSelect(domain.ReasonClearWinner, fmt.Sprintf("clear winner by %.1f points", gap))
	}

	if top.NameSimilarity >= 80 && top.DistanceMiles <= 10 {
		return autoSelect(domain.ReasonBestOverall, "strong name match close to home")
	}

	if top.NameSimilarity >= 70 && second.NameSimilarity >= 70 &&
		sameBrand(top, second) && top.DistanceMiles < second.DistanceMiles {
		return autoSelect(domain.ReasonClosestToHome, "closest branch of the same chain")
	}

	if verdict != nil && verdict.BestIndex != nil && verdict.Confidence == ports.ConfidenceHigh {
		return autoSelect(domain.ReasonBestOverall, "confirmed by re-ranker")
	}

	resolved.Decision = domain.DecisionPending
	resolved.Reason = "multiple plausible matches"
	return resolved
}

// extractLocationContext pulls a "City, ST" hint out of the home address
// for the re-ranker and the web-search fallback.
func extractLocationContext(address string) string {
	parts := strings.Split(address, ",")
	for i := len(parts) - 1; i > 0; i-- {
		token := strings.TrimSpace(parts[i])

		// State field may carry a zip ("TX 78634").
		fields := strings.Fields(token)
		if len(fields) == 0 {
			continue
		}
		state := stateAbbrev(fields[0])
		if state == "" {
			continue
		}

		city := strings.TrimSpace(parts[i-1])
		if city == "" {
			continue
		}
		return city + ", " + state
	}
	return ""
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

var stateAbbrevs = func() map[string]struct{} {
	m := make(map[string]struct{}, len(stateNames))
	for _, ab := range stateNames {
		m[ab] = struct{}{}
	}
	return m
}()

func stateAbbrev(token string) string {
	upper := strings.ToUpper(token)
	if len(token) == 2 {
		if _, ok := stateAbbrevs[upper]; ok {
			return upper
		}
	}
	if ab, ok := stateNames[strings.ToLower(token)]; ok {
		return ab
	}
	return ""
}
