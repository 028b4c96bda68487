package domain

import (
	"strings"
	"time"
)

// Category tags what kind of activity a task is.
type Category string

const (
	CategoryErrand      Category = "errand"
	CategoryAppointment Category = "appointment"
	CategoryShopping    Category = "shopping"
	CategoryHealth      Category = "health"
	CategoryFinancial   Category = "financial"
	CategoryHome        Category = "home"
	CategoryWork        Category = "work"
	CategoryOther       Category = "other"
)

// Categories that require leaving the house.
var outOfHomeCategories = map[Category]struct{}{
	CategoryErrand:      {},
	CategoryAppointment: {},
	CategoryShopping:    {},
	CategoryHealth:      {},
	CategoryFinancial:   {},
}

// OutOfHome reports whether tasks in this category require a trip.
func (c Category) OutOfHome() bool {
	_, ok := outOfHomeCategories[c]
	return ok
}

// Where a task happens, as resolved by the place-resolution pipeline.
type TaskLocation struct {
	Coords  Coordinates
	Name    string
	Address string
}

// A single errand or to-do the scheduler can place on the timeline.
//
// Open/Close are per-day wall-clock "HH:MM" strings ("" means unconstrained).
// EarliestStart/LatestEnd are explicit datetime constraints. Purpose,
// RequiredItems and DaysOpen are optional metadata consulted by the packing
// checklist and the day-of-week filter.
type Task struct {
	ID            string
	Title         string
	DurationMin   int
	Location      *TaskLocation
	OpenTime      string
	CloseTime     string
	EarliestStart *time.Time
	LatestEnd     *time.Time
	DueDate       *time.Time
	Priority      int
	Category      Category
	Purpose       string
	RequiredItems []string
	DaysOpen      string
}

// IsLocationBased reports whether the task must be routed to: it has
// coordinates and its category denotes an out-of-home activity.
func (t Task) IsLocationBased() bool {
	if t.Location == nil || t.Location.Coords.IsZero() {
		return false
	}
	_, ok := outOfHomeCategories[t.Category]
	return ok
}

// EligibleOn reports whether the place is open on the given date's weekday.
// DaysOpen is a comma-separated list of abbreviated day names ("Mon,Tue");
// an empty list means open every day.
func (t Task) EligibleOn(date time.Time) bool {
	if strings.TrimSpace(t.DaysOpen) == "" {
		return true
	}
	day := date.Format("Mon")
	for _, d := range strings.Split(t.DaysOpen, ",") {
		if strings.EqualFold(strings.TrimSpace(d), day) {
			return true
		}
	}
	return false
}

// A preexisting, immovable commitment on the plan date.
// Start and End share the block's date in local time, Start < End.
type FixedBlock struct {
	ID    string
	Date  time.Time
	Start time.Time
	End   time.Time
	Title string
}
