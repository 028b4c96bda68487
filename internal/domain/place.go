package domain

// Source identifies which provider produced a PlaceSearchResult.
type Source string

const (
	SourceNominatim    Source = "nominatim"
	SourceGooglePlaces Source = "google_places"
	SourceWebSearch    Source = "web_search"
	SourceManual       Source = "manual"
)

// Precision classifies how specific a geocoded result is.
type Precision string

const (
	PrecisionExact  Precision = "exact"
	PrecisionStreet Precision = "street"
	PrecisionCity   Precision = "city"
	PrecisionRegion Precision = "region"
)

// precisionRank orders precision tags from most to least specific.
var precisionRank = map[Precision]int{
	PrecisionExact:  0,
	PrecisionStreet: 1,
	PrecisionCity:   2,
	PrecisionRegion: 3,
}

// Rank returns a sortable rank for the precision tag (lower is more precise).
func (p Precision) Rank() int {
	if r, ok := precisionRank[p]; ok {
		return r
	}
	return len(precisionRank)
}

// A single geocoded result from a provider adapter.
// Immutable once produced.
type PlaceSearchResult struct {
	Name       string
	Address    string
	Coords     Coordinates
	Source     Source
	ExternalID string
	PlaceType  string
}

// A geocoded address with precision metadata, used when disambiguating
// multiple matches for the same text.
type GeocodedAddress struct {
	PlaceSearchResult
	Precision  Precision
	Importance float64
}

// SelectionReason explains why a candidate was chosen.
type SelectionReason string

const (
	ReasonClosestToHome SelectionReason = "closest_to_home"
	ReasonBestOverall   SelectionReason = "best_overall"
	ReasonClearWinner   SelectionReason = "clear_winner"
	ReasonOnlyMatch     SelectionReason = "only_match"
	ReasonUserSelected  SelectionReason = "user_selected"
	ReasonBestForRoute  SelectionReason = "best_for_route"
)

// A PlaceSearchResult scored against the user's query and home location.
type ScoredCandidate struct {
	Place          PlaceSearchResult
	DistanceMiles  float64
	NameSimilarity float64
	CombinedScore  float64
	Reason         SelectionReason
}

// Decision tags the outcome of resolving one query.
type Decision string

const (
	DecisionAutoBest     Decision = "auto_best"
	DecisionUserSelected Decision = "user_selected"
	DecisionNoMatch      Decision = "no_match"
	DecisionPending      Decision = "pending"
)

// The outcome of resolving one free-text query to a geocoded point.
// When IsResolved, Selected is present and is a member of Candidates.
type ResolvedPlace struct {
	Query      string
	Selected   *ScoredCandidate
	Candidates []ScoredCandidate
	Decision   Decision
	Reason     string
}

func (r ResolvedPlace) IsResolved() bool {
	return r.Decision == DecisionAutoBest || r.Decision == DecisionUserSelected
}

func (r ResolvedPlace) NeedsDisambiguation() bool {
	return r.Decision == DecisionPending
}
