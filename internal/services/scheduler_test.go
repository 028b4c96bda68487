package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/geo"
	"errand-route-service/internal/ports"
)

var testHome = domain.Coordinates{Lat: 30.5427, Lon: -97.5467}

// haversineRouting drives at a constant speed over straight-line distance.
type haversineRouting struct {
	speedKmh float64
}

func (h haversineRouting) Segment(_ context.Context, from, to domain.Coordinates) (ports.RouteResult, error) {
	km := geo.HaversineKm(from, to)
	speed := h.speedKmh
	if speed == 0 {
		speed = 40
	}
	return ports.RouteResult{DistanceKm: km, DurationMin: km / speed * 60, Source: "test"}, nil
}

// fixedRouting returns the same leg for any two distinct points.
type fixedRouting struct {
	km  float64
	min float64
}

func (f fixedRouting) Segment(_ context.Context, from, to domain.Coordinates) (ports.RouteResult, error) {
	if from == to {
		return ports.RouteResult{Source: "test"}, nil
	}
	return ports.RouteResult{DistanceKm: f.km, DurationMin: f.min, Source: "test"}, nil
}

func testSettings() domain.Settings {
	home := testHome
	return domain.Settings{
		Home:        &home,
		HomeAddress: "123 Main St, Hutto, TX 78634",
		HomeName:    "Home",
		WorkStart:   "09:00",
		WorkEnd:     "17:00",
	}
}

func planDate() time.Time {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
}

func errandTask(id, title string, coords domain.Coordinates, durationMin, priority int) domain.Task {
	return domain.Task{
		ID:          id,
		Title:       title,
		DurationMin: durationMin,
		Priority:    priority,
		Category:    domain.CategoryErrand,
		Location:    &domain.TaskLocation{Coords: coords, Name: title},
	}
}

func TestBuildDaySingleErrandRoundTrip(t *testing.T) {
	s := NewScheduler(haversineRouting{})

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: testSettings(),
		Errands: []domain.Task{
			errandTask("t1", "Pharmacy run", domain.Coordinates{Lat: 30.5127, Lon: -97.6780}, 30, 2),
		},
		ReturnHome: true,
	})
	require.NoError(t, err)

	var tasks, travels int
	for _, it := range plan.Items {
		switch it.Kind {
		case domain.KindTask:
			tasks++
		case domain.KindTravel:
			travels++
		}
	}

	assert.Equal(t, 1, tasks)
	assert.Equal(t, 2, travels)
	assert.True(t, plan.Window.Fits)
	assert.Empty(t, plan.Overflow)
	assert.Positive(t, plan.TotalDistanceKm)
	assert.Positive(t, plan.TotalDrivingMin)
}

func TestBuildDayExactFitBoundary(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	settings := testSettings()
	settings.WorkEnd = "10:00"

	// Task at home: no travel, the hour is exactly the duration.
	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: settings,
		Errands:  []domain.Task{errandTask("t1", "Notary visit", testHome, 60, 2)},
	})
	require.NoError(t, err)

	require.Len(t, plan.Items, 1)
	assert.Equal(t, domain.KindTask, plan.Items[0].Kind)
	assert.Equal(t, "10:00", plan.Items[0].End.Format("15:04"))
	assert.True(t, plan.Window.Fits)
	assert.Zero(t, plan.Window.BufferMin)
	assert.Empty(t, plan.Overflow)
}

func TestBuildDayWindowOneMinuteShort(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	settings := testSettings()
	settings.WorkEnd = "09:59"

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: settings,
		Errands:  []domain.Task{errandTask("t1", "Notary visit", testHome, 60, 2)},
	})
	require.NoError(t, err)

	assert.Empty(t, plan.Items)
	require.Len(t, plan.Overflow, 1)
	assert.Equal(t, "no feasible time window", plan.Overflow[0].Reason)
	assert.True(t, plan.Window.Fits)
}

func TestBuildDayWaitsForOpening(t *testing.T) {
	s := NewScheduler(fixedRouting{km: 10, min: 20})

	task := errandTask("t1", "Bank deposit", domain.Coordinates{Lat: 30.6, Lon: -97.6}, 30, 2)
	task.OpenTime = "10:00"

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: testSettings(),
		Errands:  []domain.Task{task},
	})
	require.NoError(t, err)

	require.Len(t, plan.Items, 3)
	assert.Equal(t, domain.KindTravel, plan.Items[0].Kind)
	assert.Equal(t, domain.KindWait, plan.Items[1].Kind)
	assert.Equal(t, "09:20", plan.Items[1].Start.Format("15:04"))
	assert.Equal(t, "10:00", plan.Items[1].End.Format("15:04"))
	assert.Equal(t, domain.KindTask, plan.Items[2].Kind)
	assert.Equal(t, "10:00", plan.Items[2].Start.Format("15:04"))
}

func TestBuildDayMissingLocationOverflows(t *testing.T) {
	s := NewScheduler(haversineRouting{})

	task := domain.Task{ID: "t1", Title: "Mystery errand", DurationMin: 30, Category: domain.CategoryErrand}

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: testSettings(),
		Errands:  []domain.Task{task},
	})
	require.NoError(t, err)

	require.Len(t, plan.Overflow, 1)
	assert.Equal(t, "missing location", plan.Overflow[0].Reason)
}

func TestBuildDayClosedTodayOverflows(t *testing.T) {
	s := NewScheduler(haversineRouting{})

	task := errandTask("t1", "County office", domain.Coordinates{Lat: 30.6, Lon: -97.6}, 30, 2)
	task.DaysOpen = "Mon,Wed,Fri" // plan date is a Tuesday

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: testSettings(),
		Errands:  []domain.Task{task},
	})
	require.NoError(t, err)

	require.Len(t, plan.Overflow, 1)
	assert.Equal(t, "not open on this day", plan.Overflow[0].Reason)
}

func TestBuildDayFixedBlocksPassThrough(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	date := planDate()

	block := domain.FixedBlock{
		ID:    "b1",
		Date:  date,
		Start: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC),
		Title: "Lunch with Sam",
	}

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:        date,
		Settings:    testSettings(),
		FixedBlocks: []domain.FixedBlock{block},
	})
	require.NoError(t, err)

	require.Len(t, plan.Items, 1)
	assert.Equal(t, domain.KindFixed, plan.Items[0].Kind)
	assert.Equal(t, block.Start, plan.Items[0].Start)
	assert.Equal(t, block.End, plan.Items[0].End)
	assert.Equal(t, block.Title, plan.Items[0].Title)
	assert.True(t, plan.Window.Fits)
}

func TestBuildDayTaskAvoidsFixedBlock(t *testing.T) {
	s := NewScheduler(fixedRouting{km: 5, min: 10})
	date := planDate()

	// Block occupies 09:10 through 10:10, exactly where the task would land.
	block := domain.FixedBlock{
		ID:    "b1",
		Date:  date,
		Start: time.Date(2026, 3, 10, 9, 10, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 10, 10, 0, 0, time.UTC),
		Title: "Standup",
	}
	task := errandTask("t1", "Post office", domain.Coordinates{Lat: 30.6, Lon: -97.6}, 30, 2)
	task.EarliestStart = timePtr(time.Date(2026, 3, 10, 10, 10, 0, 0, time.UTC))

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:        date,
		Settings:    testSettings(),
		Errands:     []domain.Task{task},
		FixedBlocks: []domain.FixedBlock{block},
	})
	require.NoError(t, err)

	var taskItem *domain.ScheduledItem
	for i := range plan.Items {
		if plan.Items[i].Kind == domain.KindTask {
			taskItem = &plan.Items[i]
		}
	}
	require.NotNil(t, taskItem)
	assert.False(t, taskItem.Start.Before(block.End), "task starts before the block ends")
}

func TestBuildDayOverrunProducesSuggestions(t *testing.T) {
	s := NewScheduler(fixedRouting{km: 15, min: 25})
	settings := testSettings()
	settings.WorkEnd = "14:00"

	var errands []domain.Task
	coords := []domain.Coordinates{
		{Lat: 30.60, Lon: -97.60}, {Lat: 30.62, Lon: -97.58},
		{Lat: 30.64, Lon: -97.56}, {Lat: 30.66, Lon: -97.54},
		{Lat: 30.68, Lon: -97.52},
	}
	for i, c := range coords {
		priority := 2
		if i == 2 {
			priority = 1
		}
		errands = append(errands, errandTask(
			"t"+string(rune('1'+i)), "Stop "+string(rune('A'+i)), c, 45, priority))
	}

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:       planDate(),
		Settings:   settings,
		Errands:    errands,
		ReturnHome: true,
	})
	require.NoError(t, err)

	assert.False(t, plan.Window.Fits)
	assert.Positive(t, plan.Window.OvertimeMin)
	require.NotEmpty(t, plan.Suggestions)
	assert.LessOrEqual(t, len(plan.Suggestions), 5)

	joined := strings.Join(plan.Suggestions, "\n")
	if !strings.Contains(joined, "earlier") && !strings.Contains(joined, "Extend") {
		t.Fatalf("expected a window-shift suggestion, got %q", joined)
	}
	assert.Contains(t, joined, "Drop '")
}

func TestBuildDayHomeTaskBackfill(t *testing.T) {
	s := NewScheduler(fixedRouting{km: 10, min: 20})

	errand := errandTask("t1", "Grocery pickup", domain.Coordinates{Lat: 30.6, Lon: -97.6}, 30, 2)

	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	laundry := domain.Task{ID: "h1", Title: "Laundry", DurationMin: 40, Priority: 1, Category: domain.CategoryHome}
	taxes := domain.Task{ID: "h2", Title: "File taxes", DurationMin: 60, Priority: 3, Category: domain.CategoryHome, DueDate: &due}

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:       planDate(),
		Settings:   testSettings(),
		Errands:    []domain.Task{errand},
		HomeTasks:  []domain.Task{laundry, taxes},
		ReturnHome: true,
	})
	require.NoError(t, err)

	var order []string
	for _, it := range plan.Items {
		if it.Kind == domain.KindTask {
			order = append(order, it.TaskID)
		}
	}
	require.Len(t, order, 3)

	// The due-today task backfills into the first gap, ahead of the
	// undated one.
	taxesIdx, laundryIdx := indexOf(order, "h2"), indexOf(order, "h1")
	assert.Less(t, taxesIdx, laundryIdx)

	assertDisjointSorted(t, plan.Items)
}

func TestBuildDayEmptyInputs(t *testing.T) {
	s := NewScheduler(haversineRouting{})

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:     planDate(),
		Settings: testSettings(),
	})
	require.NoError(t, err)

	assert.Empty(t, plan.Items)
	assert.Empty(t, plan.Overflow)
	assert.True(t, plan.Window.Fits)
	assert.Equal(t, 8*60, plan.Window.BufferMin)
}

func TestBuildDayInvertedWindow(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	settings := testSettings()
	settings.WorkStart = "17:00"
	settings.WorkEnd = "09:00"

	_, err := s.BuildDay(context.Background(), ScheduleRequest{Date: planDate(), Settings: settings})
	require.ErrorIs(t, err, domain.ErrWindowInverted)
}

func TestBuildDayBadClock(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	settings := testSettings()
	settings.WorkStart = "nine"

	_, err := s.BuildDay(context.Background(), ScheduleRequest{Date: planDate(), Settings: settings})
	require.ErrorIs(t, err, domain.ErrBadClock)
}

func TestBuildDayHomeNotSet(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	settings := testSettings()
	settings.Home = nil

	_, err := s.BuildDay(context.Background(), ScheduleRequest{Date: planDate(), Settings: settings})
	require.ErrorIs(t, err, domain.ErrHomeNotSet)
}

func TestBuildDayItemsDisjointAndSorted(t *testing.T) {
	s := NewScheduler(haversineRouting{})
	date := planDate()

	errands := []domain.Task{
		errandTask("t1", "Hardware store", domain.Coordinates{Lat: 30.60, Lon: -97.60}, 25, 2),
		errandTask("t2", "Pet food", domain.Coordinates{Lat: 30.57, Lon: -97.52}, 20, 3),
		errandTask("t3", "Dry cleaning", domain.Coordinates{Lat: 30.52, Lon: -97.58}, 15, 1),
	}
	block := domain.FixedBlock{
		ID:    "b1",
		Date:  date,
		Start: time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC),
		Title: "Call",
	}

	plan, err := s.BuildDay(context.Background(), ScheduleRequest{
		Date:        date,
		Settings:    testSettings(),
		Errands:     errands,
		FixedBlocks: []domain.FixedBlock{block},
		ReturnHome:  true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Items)

	assertDisjointSorted(t, plan.Items)
}

func assertDisjointSorted(t *testing.T, items []domain.ScheduledItem) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		if items[i].Start.Before(items[i-1].Start) {
			t.Fatalf("items not sorted: %v before %v", items[i].Start, items[i-1].Start)
		}
		if items[i].Start.Before(items[i-1].End) {
			t.Fatalf("items overlap: %q [%v, %v) and %q [%v, %v)",
				items[i-1].Title, items[i-1].Start, items[i-1].End,
				items[i].Title, items[i].Start, items[i].End)
		}
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func timePtr(t time.Time) *time.Time { return &t }
