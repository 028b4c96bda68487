package dto

type ResolveQuery struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ResolveRequest struct {
	Queries []ResolveQuery `json:"queries"`
}

type CandidateResponse struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Source         string  `json:"source"`
	PlaceType      string  `json:"place_type,omitempty"`
	DistanceMiles  float64 `json:"distance_miles"`
	NameSimilarity float64 `json:"name_similarity"`
	CombinedScore  float64 `json:"combined_score"`
	Reason         string  `json:"reason,omitempty"`
}

type ResolvedPlaceResponse struct {
	Query      string              `json:"query"`
	Selected   *CandidateResponse  `json:"selected,omitempty"`
	Candidates []CandidateResponse `json:"candidates"`
	Decision   string              `json:"decision"`
	Reason     string              `json:"reason"`
}

type ResolveResponse struct {
	Results []ResolvedPlaceResponse `json:"results"`
}

type SelectRequest struct {
	Resolved ResolvedPlaceRequest `json:"resolved"`
	Index    int                  `json:"index"`
}

// ResolvedPlaceRequest mirrors ResolvedPlaceResponse for round-tripping a
// pending resolution back with the user's choice.
type ResolvedPlaceRequest struct {
	Query      string              `json:"query"`
	Candidates []CandidateResponse `json:"candidates"`
	Decision   string              `json:"decision"`
	Reason     string              `json:"reason"`
}
