package services

import (
	"context"
	"fmt"
	"time"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/platform/obs"
)

// PlanDayRequest is everything needed to plan one date end to end.
type PlanDayRequest struct {
	Date        time.Time
	Settings    domain.Settings
	Tasks       []domain.Task
	FixedBlocks []domain.FixedBlock
	ReturnHome  bool
	LeaveAt     string
	ReturnBy    string
}

// DayPlan is the orchestrated output: the timeline plus the route
// bookkeeping, the map link and the packing checklist.
type DayPlan struct {
	Plan      *domain.PlanResult
	Route     RouteOrder
	Resolved  []domain.ResolvedPlace
	MapsURL   string
	Checklist PrepChecklist
}

// DayPlanner wires the resolver, optimizer and scheduler into the single
// planning entry point.
type DayPlanner struct {
	Resolver  *Resolver
	Scheduler *Scheduler
}

func NewDayPlanner(resolver *Resolver, scheduler *Scheduler) *DayPlanner {
	return &DayPlanner{Resolver: resolver, Scheduler: scheduler}
}

// PlanDay resolves any unresolved stops, orders them, schedules the day and
// assembles the deliverables. Only precondition problems (home unset,
// inverted window, bad clock strings) return an error.
func (p *DayPlanner) PlanDay(ctx context.Context, req PlanDayRequest) (_ *DayPlan, err error) {
	defer obs.Time(ctx, "planner.PlanDay")(&err)

	home, err := req.Settings.HomeCoords()
	if err != nil {
		return nil, fmt.Errorf("plan day: %w", err)
	}

	var errands, homeTasks []domain.Task
	for _, t := range req.Tasks {
		if t.Category.OutOfHome() {
			errands = append(errands, t)
		} else {
			homeTasks = append(homeTasks, t)
		}
	}

	resolved, resolvedByID, err := p.resolveMissing(ctx, req.Settings, errands)
	if err != nil {
		return nil, err
	}

	// Stops with coordinates feed the optimizer; the rest stay in input
	// order so the scheduler can report them as overflow.
	var stops []domain.Coordinates
	var routable []int
	for i, t := range errands {
		if t.Location != nil && !t.Location.Coords.IsZero() {
			stops = append(stops, t.Location.Coords)
			routable = append(routable, i)
		}
	}

	route := OptimizeRoute(home, stops, req.ReturnHome)

	// On a loop back home, the final stop's same-brand branches are
	// re-judged by total detour rather than straight-line distance.
	if req.ReturnHome && len(route.Order) > 1 {
		last := &errands[routable[route.Order[len(route.Order)-1]]]
		prev := stops[route.Order[len(route.Order)-2]]

		if rp, ok := resolvedByID[last.ID]; ok && len(rp.Candidates) > 1 {
			rp.Candidates = RouteAwareTieBreak(rp.Candidates, prev, home)
			if winner := &rp.Candidates[0]; winner.Reason == domain.ReasonBestForRoute {
				rp.Selected = winner
				last.Location.Coords = winner.Place.Coords
				last.Location.Address = winner.Place.Address
				last.Location.Name = winner.Place.Name
			}
		}
	}

	ordered := make([]domain.Task, 0, len(errands))
	for _, stopIdx := range route.Order {
		ordered = append(ordered, errands[routable[stopIdx]])
	}
	seen := make(map[string]bool, len(ordered))
	for _, t := range ordered {
		seen[t.ID] = true
	}
	for _, t := range errands {
		if !seen[t.ID] {
			ordered = append(ordered, t)
		}
	}

	plan, err := p.Scheduler.BuildDay(ctx, ScheduleRequest{
		Date:        req.Date,
		Settings:    req.Settings,
		Errands:     ordered,
		HomeTasks:   homeTasks,
		FixedBlocks: req.FixedBlocks,
		ReturnHome:  req.ReturnHome,
		LeaveAt:     req.LeaveAt,
		ReturnBy:    req.ReturnBy,
	})
	if err != nil {
		return nil, err
	}

	// Resolution may have filled in coordinates, so look the scheduled
	// tasks up in the resolved slices rather than the request input.
	all := make([]domain.Task, 0, len(errands)+len(homeTasks))
	all = append(all, errands...)
	all = append(all, homeTasks...)
	scheduledTasks := scheduledInOrder(plan, all)

	var scheduledStops []domain.Coordinates
	for _, t := range scheduledTasks {
		if t.Location != nil && !t.Location.Coords.IsZero() {
			scheduledStops = append(scheduledStops, t.Location.Coords)
		}
	}

	return &DayPlan{
		Plan:      plan,
		Route:     route,
		Resolved:  resolved,
		MapsURL:   MapsURL(home, scheduledStops, req.ReturnHome),
		Checklist: BuildChecklist(scheduledTasks),
	}, nil
}

// resolveMissing geocodes errands that carry a location name but no
// coordinates, in one batch. The second return value indexes the outcomes
// by task ID.
func (p *DayPlanner) resolveMissing(
	ctx context.Context,
	settings domain.Settings,
	errands []domain.Task,
) ([]domain.ResolvedPlace, map[string]*domain.ResolvedPlace, error) {
	if p.Resolver == nil {
		return nil, nil, nil
	}

	var queries []domain.Query
	var targets []int
	for i, t := range errands {
		if t.Location == nil || !t.Location.Coords.IsZero() {
			continue
		}
		name := t.Location.Name
		if name == "" {
			name = t.Title
		}
		queries = append(queries, domain.Query{ID: t.ID, Name: name, Address: t.Location.Address})
		targets = append(targets, i)
	}
	if len(queries) == 0 {
		return nil, nil, nil
	}

	resolved, err := p.Resolver.ResolveAll(ctx, settings, queries)
	if err != nil {
		return nil, nil, fmt.Errorf("plan day: %w", err)
	}

	byID := make(map[string]*domain.ResolvedPlace, len(resolved))
	for i := range resolved {
		rp := &resolved[i]
		t := &errands[targets[i]]
		byID[t.ID] = rp

		if !rp.IsResolved() {
			continue
		}
		t.Location.Coords = rp.Selected.Place.Coords
		if t.Location.Address == "" {
			t.Location.Address = rp.Selected.Place.Address
		}
		if t.Location.Name == "" {
			t.Location.Name = rp.Selected.Place.Name
		}
	}

	return resolved, byID, nil
}

// scheduledInOrder returns the tasks that made it onto the timeline, in
// timeline order.
func scheduledInOrder(plan *domain.PlanResult, tasks []domain.Task) []domain.Task {
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var out []domain.Task
	for _, it := range plan.Items {
		if it.Kind != domain.KindTask || it.TaskID == "" {
			continue
		}
		if t, ok := byID[it.TaskID]; ok {
			out = append(out, t)
		}
	}
	return out
}
