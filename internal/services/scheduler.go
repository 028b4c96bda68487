package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// Overflow reasons surfaced on the plan.
const (
	overflowNoWindow        = "no feasible time window"
	overflowMissingLocation = "missing location"
	overflowClosedToday     = "not open on this day"
	overflowNoTime          = "insufficient time in schedule"
)

// ScheduleRequest carries everything needed to lay one day on a timeline.
// Errands arrive in optimizer order; LeaveAt/ReturnBy override the profile's
// work window when set.
type ScheduleRequest struct {
	Date        time.Time
	Settings    domain.Settings
	Errands     []domain.Task
	HomeTasks   []domain.Task
	FixedBlocks []domain.FixedBlock
	ReturnHome  bool
	LeaveAt     string
	ReturnBy    string
}

// Scheduler lays optimized errands onto a local wall-clock timeline,
// respecting the day window, per-stop hours, fixed blocks and travel times.
type Scheduler struct {
	Routing ports.RouteProvider
}

func NewScheduler(routing ports.RouteProvider) *Scheduler {
	return &Scheduler{Routing: routing}
}

type timeWindow struct {
	start time.Time
	end   time.Time
}

// BuildDay produces the full plan for one date. Precondition violations
// (bad clock strings, inverted window, unset home) surface as errors;
// everything else becomes overflow entries or diagnostics.
func (s *Scheduler) BuildDay(ctx context.Context, req ScheduleRequest) (_ *domain.PlanResult, err error) {
	defer obs.Time(ctx, "scheduler.BuildDay")(&err)

	leave := req.LeaveAt
	if leave == "" {
		leave = req.Settings.WorkStart
	}
	returnBy := req.ReturnBy
	if returnBy == "" {
		returnBy = req.Settings.WorkEnd
	}

	dayStart, err := domain.CombineClock(req.Date, leave)
	if err != nil {
		return nil, fmt.Errorf("build day: leave time: %w", err)
	}
	dayEnd, err := domain.CombineClock(req.Date, returnBy)
	if err != nil {
		return nil, fmt.Errorf("build day: return time: %w", err)
	}
	if !dayEnd.After(dayStart) {
		return nil, fmt.Errorf("build day: %w", domain.ErrWindowInverted)
	}

	home, err := req.Settings.HomeCoords()
	if err != nil {
		return nil, fmt.Errorf("build day: %w", err)
	}
	homeName := req.Settings.HomeName
	if homeName == "" {
		homeName = "Home"
	}

	plan := &domain.PlanResult{Date: req.Date}

	for _, b := range req.FixedBlocks {
		plan.Items = append(plan.Items, domain.ScheduledItem{
			Kind:  domain.KindFixed,
			Start: b.Start,
			End:   b.End,
			Title: b.Title,
		})
	}

	// Partition errands into schedulable ones and immediate overflow.
	type pendingTask struct {
		task   domain.Task
		window timeWindow
	}
	pending := make([]*pendingTask, 0, len(req.Errands))

	for _, t := range req.Errands {
		if t.Location == nil || t.Location.Coords.IsZero() {
			plan.Overflow = append(plan.Overflow, domain.OverflowTask{Task: t, Reason: overflowMissingLocation})
			continue
		}
		if !t.EligibleOn(req.Date) {
			plan.Overflow = append(plan.Overflow, domain.OverflowTask{Task: t, Reason: overflowClosedToday})
			continue
		}

		window, werr := feasibleWindow(t, dayStart, dayEnd)
		if werr != nil {
			return nil, fmt.Errorf("build day: task %q: %w", t.Title, werr)
		}
		if window.end.Sub(window.start) < taskDuration(t) {
			plan.Overflow = append(plan.Overflow, domain.OverflowTask{Task: t, Reason: overflowNoWindow})
			continue
		}

		pending = append(pending, &pendingTask{task: t, window: window})
	}

	// Greedy insertion: each round picks the highest-scoring feasible task
	// from the current position. Ties keep the earliest pending index,
	// which preserves the optimizer's order.
	current := dayStart
	pos := home
	posName := homeName
	tasksByID := make(map[string]domain.Task)

	for len(pending) > 0 {
		type placement struct {
			idx     int
			route   ports.RouteResult
			arrival time.Time
			start   time.Time
			end     time.Time
			score   float64
		}
		var best *placement

		for i, p := range pending {
			route, rerr := s.Routing.Segment(ctx, pos, p.task.Location.Coords)
			if rerr != nil {
				return nil, fmt.Errorf("build day: route to %q: %w", p.task.Title, rerr)
			}

			arrival := current.Add(minutesDuration(route.DurationMin))
			if arrival.After(p.window.end) {
				continue
			}

			taskStart := arrival
			if p.window.start.After(taskStart) {
				taskStart = p.window.start
			}
			taskEnd := taskStart.Add(taskDuration(p.task))
			if taskEnd.After(p.window.end) || taskEnd.After(dayEnd) {
				continue
			}
			if overlapsAny(plan.Items, taskStart, taskEnd) {
				continue
			}

			score := priorityScore(p.task, req.Date) - 2*route.DurationMin
			if best == nil || score > best.score {
				best = &placement{
					idx: i, route: route, arrival: arrival,
					start: taskStart, end: taskEnd, score: score,
				}
			}
		}

		if best == nil {
			break
		}

		chosen := pending[best.idx]

		if best.route.DurationMin > 0 {
			plan.Items = append(plan.Items, domain.ScheduledItem{
				Kind:        domain.KindTravel,
				Start:       current,
				End:         best.arrival,
				Title:       "Drive to " + chosen.task.Location.Name,
				FromName:    posName,
				ToName:      chosen.task.Location.Name,
				DistanceKm:  best.route.DistanceKm,
				DurationMin: best.route.DurationMin,
			})
			plan.TotalDistanceKm += best.route.DistanceKm
			plan.TotalDrivingMin += best.route.DurationMin
		}

		if best.start.After(best.arrival) {
			plan.Items = append(plan.Items, domain.ScheduledItem{
				Kind:  domain.KindWait,
				Start: best.arrival,
				End:   best.start,
				Title: "Wait for " + chosen.task.Location.Name + " to open",
			})
		}

		plan.Items = append(plan.Items, domain.ScheduledItem{
			Kind:   domain.KindTask,
			Start:  best.start,
			End:    best.end,
			Title:  chosen.task.Title,
			TaskID: chosen.task.ID,
		})
		tasksByID[chosen.task.ID] = chosen.task

		current = best.end
		pos = chosen.task.Location.Coords
		posName = chosen.task.Location.Name
		pending = append(pending[:best.idx], pending[best.idx+1:]...)
	}

	for _, p := range pending {
		plan.Overflow = append(plan.Overflow, domain.OverflowTask{Task: p.task, Reason: overflowNoTime})
	}

	// Return leg back home.
	if req.ReturnHome && pos != home && current.Before(dayEnd) {
		route, rerr := s.Routing.Segment(ctx, pos, home)
		if rerr != nil {
			return nil, fmt.Errorf("build day: route home: %w", rerr)
		}

		arrival := current.Add(minutesDuration(route.DurationMin))
		plan.Items = append(plan.Items, domain.ScheduledItem{
			Kind:        domain.KindTravel,
			Start:       current,
			End:         arrival,
			Title:       "Drive home",
			FromName:    posName,
			ToName:      homeName,
			DistanceKm:  route.DistanceKm,
			DurationMin: route.DurationMin,
		})
		plan.TotalDistanceKm += route.DistanceKm
		plan.TotalDrivingMin += route.DurationMin
		current = arrival
	}

	s.backfillHomeTasks(plan, req.HomeTasks, dayStart, dayEnd, tasksByID)

	sort.SliceStable(plan.Items, func(i, j int) bool {
		return plan.Items[i].Start.Before(plan.Items[j].Start)
	})

	validateWindow(plan, dayStart, dayEnd, tasksByID)

	return plan, nil
}

// backfillHomeTasks drops location-less tasks into the day's free gaps,
// most urgent first.
func (s *Scheduler) backfillHomeTasks(
	plan *domain.PlanResult,
	homeTasks []domain.Task,
	dayStart, dayEnd time.Time,
	tasksByID map[string]domain.Task,
) {
	if len(homeTasks) == 0 {
		return
	}

	ordered := make([]domain.Task, len(homeTasks))
	copy(ordered, homeTasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].DueDate, ordered[j].DueDate
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return ordered[i].Priority > ordered[j].Priority
	})

	gaps := freeGaps(plan.Items, dayStart, dayEnd)

	for _, t := range ordered {
		need := taskDuration(t)
		placed := false

		for gi, g := range gaps {
			if g.end.Sub(g.start) < need {
				continue
			}

			plan.Items = append(plan.Items, domain.ScheduledItem{
				Kind:   domain.KindTask,
				Start:  g.start,
				End:    g.start.Add(need),
				Title:  t.Title,
				TaskID: t.ID,
			})
			tasksByID[t.ID] = t

			gaps[gi].start = g.start.Add(need)
			placed = true
			break
		}

		if !placed {
			plan.Overflow = append(plan.Overflow, domain.OverflowTask{Task: t, Reason: overflowNoTime})
		}
	}
}

// validateWindow fills the fit diagnostics and, on overrun, the ranked
// remediation suggestions.
func validateWindow(plan *domain.PlanResult, dayStart, dayEnd time.Time, tasksByID map[string]domain.Task) {
	scheduleEnd := dayStart
	for _, it := range plan.Items {
		if it.End.After(scheduleEnd) {
			scheduleEnd = it.End
		}
	}

	if scheduleEnd.After(dayEnd) {
		overtime := int(scheduleEnd.Sub(dayEnd).Minutes())
		plan.Window = domain.WindowReport{Fits: false, OvertimeMin: overtime}
		plan.Suggestions = buildSuggestions(plan.Items, tasksByID, overtime)
		return
	}

	plan.Window = domain.WindowReport{
		Fits:      true,
		BufferMin: int(dayEnd.Sub(scheduleEnd).Minutes()),
	}
}

// feasibleWindow intersects the day window with the place's open hours and
// the task's explicit time bounds.
func feasibleWindow(t domain.Task, dayStart, dayEnd time.Time) (timeWindow, error) {
	w := timeWindow{start: dayStart, end: dayEnd}

	if t.OpenTime != "" {
		open, err := domain.CombineClock(dayStart, t.OpenTime)
		if err != nil {
			return timeWindow{}, err
		}
		if open.After(w.start) {
			w.start = open
		}
	}
	if t.CloseTime != "" {
		closeAt, err := domain.CombineClock(dayStart, t.CloseTime)
		if err != nil {
			return timeWindow{}, err
		}
		if closeAt.Before(w.end) {
			w.end = closeAt
		}
	}

	if t.EarliestStart != nil && t.EarliestStart.After(w.start) {
		w.start = *t.EarliestStart
	}
	if t.LatestEnd != nil && t.LatestEnd.Before(w.end) {
		w.end = *t.LatestEnd
	}

	return w, nil
}

// priorityScore rewards important and urgent tasks. Due-date bumps are
// relative to the plan date.
func priorityScore(t domain.Task, planDate time.Time) float64 {
	score := float64(10 * t.Priority)

	if t.DueDate != nil {
		days := int(t.DueDate.Sub(startOfDay(planDate)).Hours() / 24)
		switch {
		case days <= 0:
			score += 100
		case days == 1:
			score += 50
		case days <= 3:
			score += 20
		}
	}

	return score
}

type gap struct {
	start time.Time
	end   time.Time
}

// freeGaps complements the merged scheduled intervals against the day
// window.
func freeGaps(items []domain.ScheduledItem, dayStart, dayEnd time.Time) []gap {
	if len(items) == 0 {
		return []gap{{start: dayStart, end: dayEnd}}
	}

	intervals := make([]gap, 0, len(items))
	for _, it := range items {
		intervals = append(intervals, gap{start: it.Start, end: it.End})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start.Before(intervals[j].start) })

	merged := []gap{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	gaps := []gap{}
	cursor := dayStart
	for _, iv := range merged {
		if iv.start.After(cursor) {
			gaps = append(gaps, gap{start: cursor, end: iv.start})
		}
		if iv.end.After(cursor) {
			cursor = iv.end
		}
	}
	if dayEnd.After(cursor) {
		gaps = append(gaps, gap{start: cursor, end: dayEnd})
	}

	return gaps
}

func overlapsAny(items []domain.ScheduledItem, start, end time.Time) bool {
	for _, it := range items {
		if start.Before(it.End) && it.Start.Before(end) {
			return true
		}
	}
	return false
}

func taskDuration(t domain.Task) time.Duration {
	return time.Duration(t.DurationMin) * time.Minute
}

func minutesDuration(min float64) time.Duration {
	return time.Duration(min * float64(time.Minute))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
