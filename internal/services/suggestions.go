package services

import (
	"fmt"
	"sort"

	"errand-route-service/internal/domain"
)

const (
	maxSuggestions = 5

	// Shifting the window only helps for modest overruns.
	maxShiftableOvertimeMin = 60

	longTaskMin   = 30
	longTravelMin = 15
)

// buildSuggestions ranks ways to bring an overrunning day back inside the
// window. At most maxSuggestions lines are returned.
func buildSuggestions(items []domain.ScheduledItem, tasksByID map[string]domain.Task, overtimeMin int) []string {
	var out []string

	if overtimeMin <= maxShiftableOvertimeMin {
		shift := ((overtimeMin + 14) / 15) * 15
		out = append(out,
			fmt.Sprintf("Leave %d min earlier", shift),
			fmt.Sprintf("Extend your return-by time by %d min", shift),
		)
	}

	out = append(out, dropSuggestions(items, tasksByID, overtimeMin)...)

	for _, it := range items {
		if it.Kind == domain.KindTask && taskMinutes(it) > longTaskMin {
			out = append(out, "Reduce duration of long tasks to shorten the day")
			break
		}
	}

	out = append(out, closerLocationSuggestions(items)...)

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// dropSuggestions proposes removing tasks whose removal recovers at least
// 70% of the overtime, counting the task itself plus its adjacent drives.
// Lowest priority goes first, bigger savings break ties.
func dropSuggestions(items []domain.ScheduledItem, tasksByID map[string]domain.Task, overtimeMin int) []string {
	type candidate struct {
		task     domain.Task
		savedMin int
	}
	var cands []candidate

	for i, it := range items {
		if it.Kind != domain.KindTask || it.TaskID == "" {
			continue
		}
		task, ok := tasksByID[it.TaskID]
		if !ok {
			continue
		}

		saved := taskMinutes(it)
		if i > 0 && items[i-1].Kind == domain.KindTravel {
			saved += int(items[i-1].DurationMin)
		}
		if i+1 < len(items) && items[i+1].Kind == domain.KindTravel {
			saved += int(items[i+1].DurationMin)
		}

		if float64(saved) >= 0.7*float64(overtimeMin) {
			cands = append(cands, candidate{task: task, savedMin: saved})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].task.Priority != cands[j].task.Priority {
			return cands[i].task.Priority < cands[j].task.Priority
		}
		return cands[i].savedMin > cands[j].savedMin
	})

	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, fmt.Sprintf("Drop '%s' to save about %d min", c.task.Title, c.savedMin))
	}
	return out
}

// closerLocationSuggestions flags the two longest drives over the travel
// threshold, naming the stop they lead to.
func closerLocationSuggestions(items []domain.ScheduledItem) []string {
	type drive struct {
		toName string
		min    int
	}
	var drives []drive

	for _, it := range items {
		if it.Kind == domain.KindTravel && it.DurationMin > longTravelMin {
			drives = append(drives, drive{toName: it.ToName, min: int(it.DurationMin)})
		}
	}

	sort.SliceStable(drives, func(i, j int) bool { return drives[i].min > drives[j].min })
	if len(drives) > 2 {
		drives = drives[:2]
	}

	out := make([]string, 0, len(drives))
	for _, d := range drives {
		out = append(out, fmt.Sprintf("Choose a closer location for '%s' (%d min drive)", d.toName, d.min))
	}
	return out
}

func taskMinutes(it domain.ScheduledItem) int {
	return int(it.End.Sub(it.Start).Minutes())
}
