package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/ports"
)

// SettingsHandler exposes the single user profile row.
type SettingsHandler struct {
	Repo ports.SettingsRepository
}

func (h *SettingsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Repo.Get(r.Context())
	if err != nil {
		log.Printf("get settings failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if settings == nil {
		writeError(w, r, http.StatusNotFound, "settings not configured")
		return
	}

	res := dto.SettingsPayload{
		HomeAddress: settings.HomeAddress,
		HomeName:    settings.HomeName,
		Timezone:    settings.Timezone,
		WorkStart:   settings.WorkStart,
		WorkEnd:     settings.WorkEnd,
	}
	if settings.Home != nil {
		lat, lon := settings.Home.Lat, settings.Home.Lon
		res.HomeLat, res.HomeLon = &lat, &lon
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsPayload

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

	if (req.HomeLat == nil) != (req.HomeLon == nil) {
		writeError(w, r, http.StatusBadRequest, "home_lat and home_lon must be set together")
		return
	}
	for _, clock := range []string{req.WorkStart, req.WorkEnd} {
		if clock == "" {
			continue
		}
		if _, _, err := domain.ParseClock(clock); err != nil {
			writeError(w, r, http.StatusBadRequest, "work_start and work_end must be HH:MM")
			return
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown timezone")
			return
		}
	}

	settings := domain.Settings{
		HomeAddress: req.HomeAddress,
		HomeName:    req.HomeName,
		Timezone:    req.Timezone,
		WorkStart:   req.WorkStart,
		WorkEnd:     req.WorkEnd,
	}
	if req.HomeLat != nil && req.HomeLon != nil {
		settings.Home = &domain.Coordinates{Lat: *req.HomeLat, Lon: *req.HomeLon}
	}

	if err := h.Repo.Put(r.Context(), settings); err != nil {
		log.Printf("put settings failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, req)
}
