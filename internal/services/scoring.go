package services

import (
	"math"
	"sort"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
)

const (
	// Candidates beyond this distance never score on proximity and get
	// filtered out of the cascade entirely.
	maxCandidateMiles = 25.0

	// Both names must clear this bar, against the query and against each
	// other, to be treated as the same brand.
	sameBrandThreshold = 70.0
)

// normalizeName lowercases, strips punctuation (keeping spaces) and
// collapses whitespace so fuzzy scores are not distorted by formatting.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// nameSimilarity scores how well a candidate name matches the query, in
// [0, 100]. The maximum of four fuzzy scorers keeps partial brand names
// ("carters" vs "Carter's Babies and Kids") from being punished.
func nameSimilarity(query, name string) float64 {
	q := normalizeName(query)
	n := normalizeName(name)
	if q == "" || n == "" {
		return 0
	}

	best := fuzzy.Ratio(q, n)
	if s := fuzzy.PartialRatio(q, n); s > best {
		best = s
	}
	if s := fuzzy.TokenSortRatio(q, n); s > best {
		best = s
	}
	if s := fuzzy.TokenSetRatio(q, n); s > best {
		best = s
	}

	return float64(best)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// scoreCandidate wraps a place with its distance and name scores.
// combined = distance component (up to 50, fading to 0 at 25 mi) +
// half the name similarity, range [0, 100].
func scoreCandidate(query string, home domain.Coordinates, place domain.PlaceSearchResult) domain.ScoredCandidate {
	miles := round1(geo.KmToMiles(geo.HaversineKm(home, place.Coords)))
	similarity := nameSimilarity(query, place.Name)

	distanceComponent := math.Max(0, 50*(1-miles/maxCandidateMiles))
	nameComponent := similarity / 2

	return domain.ScoredCandidate{
		Place:          place,
		DistanceMiles:  miles,
		NameSimilarity: similarity,
		CombinedScore:  distanceComponent + nameComponent,
	}
}

// scoreAndRank scores every place and sorts descending by combined score.
// Ties keep the provider order, which encodes tier priority.
func scoreAndRank(query string, home domain.Coordinates, places []domain.PlaceSearchResult) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(places))
	for _, p := range places {
		out = append(out, scoreCandidate(query, home, p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})

	return out
}

// sameBrand reports whether two candidates are the same chain: both match
// the query well and their own names mutually agree.
func sameBrand(a, b domain.ScoredCandidate) bool {
	if a.NameSimilarity < sameBrandThreshold || b.NameSimilarity < sameBrandThreshold {
		return false
	}

	mutual := fuzzy.TokenSetRatio(normalizeName(a.Place.Name), normalizeName(b.Place.Name))
	if s := fuzzy.Ratio(normalizeName(a.Place.Name), normalizeName(b.Place.Name)); s > mutual {
		mutual = s
	}

	return float64(mutual) >= sameBrandThreshold
}

// applySameBrandTieBreak re-sorts the leading run of same-brand candidates
// by distance so the nearest branch wins, and tags the new leader.
func applySameBrandTieBreak(cands []domain.ScoredCandidate) []domain.ScoredCandidate {
	if len(cands) < 2 {
		return cands
	}

	run := 1
	for run < len(cands) && sameBrand(cands[0], cands[run]) {
		run++
	}
	if run < 2 {
		return cands
	}

	lead := make([]domain.ScoredCandidate, run)
	copy(lead, cands[:run])
	sort.SliceStable(lead, func(i, j int) bool {
		return lead[i].DistanceMiles < lead[j].DistanceMiles
	})
	lead[0].Reason = domain.ReasonClosestToHome

	out := append(lead, cands[run:]...)
	return out
}

// RouteAwareTieBreak re-orders same-brand candidates for the final stop of
// a day that returns home: the branch minimizing detour from the previous
// stop plus the leg home is promoted to the front, tagged best_for_route.
// The order is untouched when the detour winner and the distance winner
// coincide.
func RouteAwareTieBreak(
	cands []domain.ScoredCandidate,
	prev, home domain.Coordinates,
) []domain.ScoredCandidate {
	if len(cands) < 2 {
		return cands
	}

	run := 1
	for run < len(cands) && sameBrand(cands[0], cands[run]) {
		run++
	}
	if run < 2 {
		return cands
	}

	best := 0
	bestAdded := math.Inf(1)
	for i := 0; i < run; i++ {
		added := geo.HaversineKm(prev, cands[i].Place.Coords) +
			geo.HaversineKm(cands[i].Place.Coords, home)
		if added < bestAdded {
			bestAdded = added
			best = i
		}
	}

	if best == 0 {
		return cands
	}

	out := make([]domain.ScoredCandidate, 0, len(cands))
	promoted := cands[best]
	promoted.Reason = domain.ReasonBestForRoute
	out = append(out, promoted)
	for i, c := range cands {
		if i != best {
			out = append(out, c)
		}
	}

	return out
}
