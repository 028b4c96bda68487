package dto

import "time"

type LocationPayload struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
}

type TaskRequest struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	DurationMin   int              `json:"duration_min"`
	Location      *LocationPayload `json:"location"`
	OpenTime      string           `json:"open_time"`
	CloseTime     string           `json:"close_time"`
	EarliestStart *time.Time       `json:"earliest_start"`
	LatestEnd     *time.Time       `json:"latest_end"`
	DueDate       *time.Time       `json:"due_date"`
	Priority      int              `json:"priority"`
	Category      string           `json:"category"`
	Purpose       string           `json:"purpose"`
	RequiredItems []string         `json:"required_items"`
	DaysOpen      string           `json:"days_open"`
}

type TaskResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	DurationMin   int              `json:"duration_min"`
	Location      *LocationPayload `json:"location,omitempty"`
	OpenTime      string           `json:"open_time,omitempty"`
	CloseTime     string           `json:"close_time,omitempty"`
	EarliestStart *time.Time       `json:"earliest_start,omitempty"`
	LatestEnd     *time.Time       `json:"latest_end,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Priority      int              `json:"priority"`
	Category      string           `json:"category"`
	Purpose       string           `json:"purpose,omitempty"`
	RequiredItems []string         `json:"required_items,omitempty"`
	DaysOpen      string           `json:"days_open,omitempty"`
}

type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}
