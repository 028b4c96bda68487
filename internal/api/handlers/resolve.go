package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/ports"
	"errand-route-service/internal/services"
)

// ResolveHandler runs the place-resolution cascade for free-text queries
// and applies user disambiguation choices.
type ResolveHandler struct {
	Resolver *services.Resolver
	Settings ports.SettingsRepository
}

// Resolve handles a batch of queries against the stored profile.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.ResolveRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.Queries) == 0 {
		writeError(w, r, http.StatusBadRequest, "queries must not be empty")
		return
	}
	for _, q := range req.Queries {
		if strings.TrimSpace(q.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "every query needs a name")
			return
		}
	}

	settings, err := h.Settings.Get(r.Context())
	if err != nil {
		log.Printf("load settings failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if settings == nil {
		writeError(w, r, http.StatusBadRequest, "settings not configured")
		return
	}

	queries := make([]domain.Query, 0, len(req.Queries))
	for _, q := range req.Queries {
		queries = append(queries, domain.Query{ID: q.ID, Name: q.Name, Address: q.Address})
	}

	resolved, err := h.Resolver.ResolveAll(r.Context(), *settings, queries)
	if err != nil {
		if errors.Is(err, domain.ErrHomeNotSet) {
			writeError(w, r, http.StatusBadRequest, domain.ErrHomeNotSet.Error())
			return
		}
		log.Printf("resolve batch failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ResolveResponse{Results: make([]dto.ResolvedPlaceResponse, 0, len(resolved))}
	for _, rp := range resolved {
		res.Results = append(res.Results, resolvedToResponse(rp))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Select applies a user's pick among a pending resolution's candidates.
func (h *ResolveHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SelectRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.Index < 0 || req.Index >= len(req.Resolved.Candidates) {
		writeError(w, r, http.StatusBadRequest, "index out of range")
		return
	}

	resolved := domain.ResolvedPlace{
		Query:    req.Resolved.Query,
		Decision: domain.Decision(req.Resolved.Decision),
		Reason:   req.Resolved.Reason,
	}
	for _, c := range req.Resolved.Candidates {
		resolved.Candidates = append(resolved.Candidates, candidateFromRequest(c))
	}

	writeJSON(w, r, http.StatusOK, resolvedToResponse(services.SelectCandidate(resolved, req.Index)))
}
