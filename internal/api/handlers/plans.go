package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/ports"
	"errand-route-service/internal/services"
)

// PlanHandler orchestrates a full day plan: load profile, tasks and fixed
// blocks, resolve and optimize, schedule, persist, respond.
type PlanHandler struct {
	Settings ports.SettingsRepository
	Tasks    ports.TaskRepository
	Blocks   ports.FixedBlockRepository
	Plans    ports.PlanRepository
	Planner  *services.DayPlanner
}

func (h *PlanHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.plan(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// get returns the stored plan for a date.
func (h *PlanHandler) get(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	plan, err := h.Plans.GetPlan(r.Context(), date)
	if err != nil {
		log.Printf("get plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if plan == nil {
		writeError(w, r, http.StatusNotFound, "no plan for this date")
		return
	}

	writeJSON(w, r, http.StatusOK, planToResponse("", plan, nil))
}

// plan generates, persists and returns the plan for a date.
func (h *PlanHandler) plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

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

	loc := time.Local
	if settings.Timezone != "" {
		if parsed, err := time.LoadLocation(settings.Timezone); err == nil {
			loc = parsed
		}
	}

	date, err := time.ParseInLocation(dateLayout, req.Date, loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tasks, err := h.Tasks.ListTasks(r.Context())
	if err != nil {
		log.Printf("list tasks failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(req.TaskIDs) > 0 {
		wanted := make(map[string]bool, len(req.TaskIDs))
		for _, id := range req.TaskIDs {
			wanted[id] = true
		}
		filtered := tasks[:0]
		for _, t := range tasks {
			if wanted[t.ID] {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	blocks, err := h.Blocks.ListBlocksByDate(r.Context(), date)
	if err != nil {
		log.Printf("list fixed blocks failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	returnHome := true
	if req.ReturnHome != nil {
		returnHome = *req.ReturnHome
	}

	dayPlan, err := h.Planner.PlanDay(r.Context(), services.PlanDayRequest{
		Date:        date,
		Settings:    *settings,
		Tasks:       tasks,
		FixedBlocks: blocks,
		ReturnHome:  returnHome,
		LeaveAt:     req.LeaveAt,
		ReturnBy:    req.ReturnBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrHomeNotSet),
			errors.Is(err, domain.ErrWindowInverted),
			errors.Is(err, domain.ErrBadClock):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			log.Printf("plan day failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	planID, err := h.Plans.SavePlan(r.Context(), *dayPlan.Plan)
	if err != nil {
		// The plan is still usable; persistence is best-effort here.
		log.Printf("save plan failed: %v", err)
	}

	writeJSON(w, r, http.StatusOK, planToResponse(planID, dayPlan.Plan, dayPlan))
}

func planToResponse(planID string, plan *domain.PlanResult, day *services.DayPlan) dto.PlanResponse {
	res := dto.PlanResponse{
		PlanID:          planID,
		Date:            plan.Date.Format(dateLayout),
		Items:           make([]dto.ScheduledItemResponse, 0, len(plan.Items)),
		Overflow:        make([]dto.OverflowResponse, 0, len(plan.Overflow)),
		TotalDistanceKm: plan.TotalDistanceKm,
		TotalDrivingMin: plan.TotalDrivingMin,
		Window: dto.WindowResponse{
			Fits:        plan.Window.Fits,
			OvertimeMin: plan.Window.OvertimeMin,
			BufferMin:   plan.Window.BufferMin,
		},
		Suggestions: plan.Suggestions,
	}

	for _, it := range plan.Items {
		res.Items = append(res.Items, dto.ScheduledItemResponse{
			Kind:        string(it.Kind),
			Start:       it.Start,
			End:         it.End,
			Title:       it.Title,
			TaskID:      it.TaskID,
			FromName:    it.FromName,
			ToName:      it.ToName,
			DistanceKm:  it.DistanceKm,
			DurationMin: it.DurationMin,
		})
	}
	for _, o := range plan.Overflow {
		res.Overflow = append(res.Overflow, dto.OverflowResponse{
			TaskID: o.Task.ID,
			Title:  o.Task.Title,
			Reason: o.Reason,
		})
	}

	if day != nil {
		res.MapsURL = day.MapsURL
		res.Route = &dto.RouteResponse{
			Order:     day.Route.Order,
			TotalKm:   day.Route.TotalKm,
			NaiveKm:   day.Route.NaiveKm,
			SavingsKm: day.Route.SavingsKm,
			Method:    day.Route.Method,
		}

		checklist := dto.ChecklistResponse{
			Consolidated: day.Checklist.Consolidated,
			Essentials:   day.Checklist.Essentials,
		}
		for _, e := range day.Checklist.PerTask {
			checklist.PerTask = append(checklist.PerTask, dto.ChecklistEntryResponse{
				TaskID: e.TaskID,
				Title:  e.Title,
				Items:  e.Items,
			})
		}
		res.Checklist = &checklist
	}

	return res
}
