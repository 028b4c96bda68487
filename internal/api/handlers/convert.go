package handlers

import (
	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/domain"
)

func taskToResponse(t domain.Task) dto.TaskResponse {
	res := dto.TaskResponse{
		ID:            t.ID,
		Title:         t.Title,
		DurationMin:   t.DurationMin,
		OpenTime:      t.OpenTime,
		CloseTime:     t.CloseTime,
		EarliestStart: t.EarliestStart,
		LatestEnd:     t.LatestEnd,
		DueDate:       t.DueDate,
		Priority:      t.Priority,
		Category:      string(t.Category),
		Purpose:       t.Purpose,
		RequiredItems: t.RequiredItems,
		DaysOpen:      t.DaysOpen,
	}

	if t.Location != nil {
		loc := &dto.LocationPayload{Name: t.Location.Name, Address: t.Location.Address}
		if !t.Location.Coords.IsZero() {
			lat, lon := t.Location.Coords.Lat, t.Location.Coords.Lon
			loc.Lat, loc.Lon = &lat, &lon
		}
		res.Location = loc
	}

	return res
}

func taskFromRequest(req dto.TaskRequest) domain.Task {
	t := domain.Task{
		ID:            req.ID,
		Title:         req.Title,
		DurationMin:   req.DurationMin,
		OpenTime:      req.OpenTime,
		CloseTime:     req.CloseTime,
		EarliestStart: req.EarliestStart,
		LatestEnd:     req.LatestEnd,
		DueDate:       req.DueDate,
		Priority:      req.Priority,
		Category:      domain.Category(req.Category),
		Purpose:       req.Purpose,
		RequiredItems: req.RequiredItems,
		DaysOpen:      req.DaysOpen,
	}

	if req.Location != nil {
		loc := &domain.TaskLocation{Name: req.Location.Name, Address: req.Location.Address}
		if req.Location.Lat != nil && req.Location.Lon != nil {
			loc.Coords = domain.Coordinates{Lat: *req.Location.Lat, Lon: *req.Location.Lon}
		}
		t.Location = loc
	}

	return t
}

func candidateToResponse(c domain.ScoredCandidate) dto.CandidateResponse {
	return dto.CandidateResponse{
		Name:           c.Place.Name,
		Address:        c.Place.Address,
		Lat:            c.Place.Coords.Lat,
		Lon:            c.Place.Coords.Lon,
		Source:         string(c.Place.Source),
		PlaceType:      c.Place.PlaceType,
		DistanceMiles:  c.DistanceMiles,
		NameSimilarity: c.NameSimilarity,
		CombinedScore:  c.CombinedScore,
		Reason:         string(c.Reason),
	}
}

func candidateFromRequest(c dto.CandidateResponse) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Place: domain.PlaceSearchResult{
			Name:      c.Name,
			Address:   c.Address,
			Coords:    domain.Coordinates{Lat: c.Lat, Lon: c.Lon},
			Source:    domain.Source(c.Source),
			PlaceType: c.PlaceType,
		},
		DistanceMiles:  c.DistanceMiles,
		NameSimilarity: c.NameSimilarity,
		CombinedScore:  c.CombinedScore,
		Reason:         domain.SelectionReason(c.Reason),
	}
}

func resolvedToResponse(rp domain.ResolvedPlace) dto.ResolvedPlaceResponse {
	res := dto.ResolvedPlaceResponse{
		Query:      rp.Query,
		Decision:   string(rp.Decision),
		Reason:     rp.Reason,
		Candidates: make([]dto.CandidateResponse, 0, len(rp.Candidates)),
	}
	for _, c := range rp.Candidates {
		res.Candidates = append(res.Candidates, candidateToResponse(c))
	}
	if rp.Selected != nil {
		sel := candidateToResponse(*rp.Selected)
		res.Selected = &sel
	}
	return res
}
