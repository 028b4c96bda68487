package dto

import "time"

type PlanRequest struct {
	Date       string   `json:"date"`
	TaskIDs    []string `json:"task_ids"`
	ReturnHome *bool    `json:"return_home"`
	LeaveAt    string   `json:"leave_at"`
	ReturnBy   string   `json:"return_by"`
}

type ScheduledItemResponse struct {
	Kind        string    `json:"kind"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Title       string    `json:"title"`
	TaskID      string    `json:"task_id,omitempty"`
	FromName    string    `json:"from_name,omitempty"`
	ToName      string    `json:"to_name,omitempty"`
	DistanceKm  float64   `json:"distance_km,omitempty"`
	DurationMin float64   `json:"duration_min,omitempty"`
}

type OverflowResponse struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type WindowResponse struct {
	Fits        bool `json:"fits"`
	OvertimeMin int  `json:"overtime_min"`
	BufferMin   int  `json:"buffer_min"`
}

type RouteResponse struct {
	Order     []int   `json:"order"`
	TotalKm   float64 `json:"total_km"`
	NaiveKm   float64 `json:"naive_km"`
	SavingsKm float64 `json:"savings_km"`
	Method    string  `json:"method"`
}

type ChecklistEntryResponse struct {
	TaskID string   `json:"task_id"`
	Title  string   `json:"title"`
	Items  []string `json:"items"`
}

type ChecklistResponse struct {
	PerTask      []ChecklistEntryResponse `json:"per_task"`
	Consolidated []string                 `json:"consolidated"`
	Essentials   []string                 `json:"essentials"`
}

type PlanResponse struct {
	PlanID          string                  `json:"plan_id,omitempty"`
	Date            string                  `json:"date"`
	Items           []ScheduledItemResponse `json:"items"`
	Overflow        []OverflowResponse      `json:"overflow"`
	TotalDistanceKm float64                 `json:"total_distance_km"`
	TotalDrivingMin float64                 `json:"total_driving_min"`
	Window          WindowResponse          `json:"window"`
	Suggestions     []string                `json:"suggestions"`
	Route           *RouteResponse          `json:"route,omitempty"`
	MapsURL         string                  `json:"maps_url,omitempty"`
	Checklist       *ChecklistResponse      `json:"checklist,omitempty"`
}
