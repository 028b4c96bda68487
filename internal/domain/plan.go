package domain

import "time"

// ItemKind tags what a scheduled item represents on the timeline.
type ItemKind string

const (
	KindTask   ItemKind = "task"
	KindTravel ItemKind = "travel"
	KindFixed  ItemKind = "fixed"
	KindWait   ItemKind = "wait"
)

// A placement on the day's timeline. Start <= End; within a single plan,
// scheduled items are pairwise non-overlapping.
type ScheduledItem struct {
	Kind  ItemKind
	Start time.Time
	End   time.Time
	Title string

	// Task payload.
	TaskID string

	// Travel payload.
	FromName    string
	ToName      string
	DistanceKm  float64
	DurationMin float64
}

// A task the scheduler could not place, with the reason why.
type OverflowTask struct {
	Task   Task
	Reason string
}

// Whether the schedule fits the day window, and by how much it misses
// or clears it.
type WindowReport struct {
	Fits        bool
	OvertimeMin int
	BufferMin   int
}

// The full output of scheduling one day. Items are sorted ascending
// by start time.
type PlanResult struct {
	Date            time.Time
	Items           []ScheduledItem
	Overflow        []OverflowTask
	TotalDistanceKm float64
	TotalDrivingMin float64
	Window          WindowReport
	Suggestions     []string
}
