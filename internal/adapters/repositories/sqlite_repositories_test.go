package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"errand-route-service/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := NewSqliteSettingsRepository(openTestDB(t))
	ctx := context.Background()

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("get before put: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil settings before put, got %+v", got)
	}

	want := domain.Settings{
		Home:        &domain.Coordinates{Lat: 30.5427, Lon: -97.5467},
		HomeAddress: "123 Main St, Hutto, TX 78634",
		HomeName:    "Home",
		Timezone:    "America/Chicago",
		WorkStart:   "09:00",
		WorkEnd:     "17:00",
	}
	if err := repo.Put(ctx, want); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	got, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got == nil || got.Home == nil {
		t.Fatal("expected stored settings with home")
	}
	if *got.Home != *want.Home || got.WorkStart != want.WorkStart || got.Timezone != want.Timezone {
		t.Fatalf("settings mismatch: got %+v want %+v", got, want)
	}

	// Second put replaces the single row.
	want.WorkEnd = "18:00"
	if err := repo.Put(ctx, want); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("get after second put: %v", err)
	}
	if got.WorkEnd != "18:00" {
		t.Fatalf("expected replaced work_end, got %q", got.WorkEnd)
	}
}

func TestTaskRoundTrip(t *testing.T) {
	repo := NewSqliteTaskRepository(openTestDB(t))
	ctx := context.Background()

	due := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	want := domain.Task{
		ID:          "t1",
		Title:       "Pick up prescription",
		DurationMin: 20,
		Location: &domain.TaskLocation{
			Coords:  domain.Coordinates{Lat: 30.55, Lon: -97.55},
			Name:    "Walgreens",
			Address: "101 Main St, Hutto, TX",
		},
		OpenTime:      "09:00",
		CloseTime:     "21:00",
		DueDate:       &due,
		Priority:      3,
		Category:      domain.CategoryHealth,
		Purpose:       "pharmacy pickup",
		RequiredItems: []string{"insurance card"},
		DaysOpen:      "Mon,Tue,Wed,Thu,Fri",
	}

	if err := repo.PutTask(ctx, want); err != nil {
		t.Fatalf("put task: %v", err)
	}

	got, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored task")
	}
	if got.Title != want.Title || got.Category != want.Category || got.Priority != want.Priority {
		t.Fatalf("task mismatch: got %+v", got)
	}
	if got.Location == nil || got.Location.Coords != want.Location.Coords {
		t.Fatalf("location mismatch: got %+v", got.Location)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date mismatch: got %v", got.DueDate)
	}
	if len(got.RequiredItems) != 1 || got.RequiredItems[0] != "insurance card" {
		t.Fatalf("required items mismatch: got %v", got.RequiredItems)
	}

	missing, err := repo.GetTask(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing task: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing task, got %+v", missing)
	}

	if err := repo.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(tasks))
	}
}

func TestListTasksOrdering(t *testing.T) {
	repo := NewSqliteTaskRepository(openTestDB(t))
	ctx := context.Background()

	early := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	for _, task := range []domain.Task{
		{ID: "undated", Title: "Undated", DurationMin: 10, Priority: 2, Category: domain.CategoryHome},
		{ID: "late", Title: "Late", DurationMin: 10, Priority: 2, Category: domain.CategoryErrand, DueDate: &late},
		{ID: "early", Title: "Early", DurationMin: 10, Priority: 2, Category: domain.CategoryErrand, DueDate: &early},
	} {
		if err := repo.PutTask(ctx, task); err != nil {
			t.Fatalf("put task %q: %v", task.ID, err)
		}
	}

	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "early" || tasks[1].ID != "late" || tasks[2].ID != "undated" {
		t.Fatalf("unexpected order: %s, %s, %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
	}
}

func TestFixedBlocksByDate(t *testing.T) {
	repo := NewSqliteFixedBlockRepository(openTestDB(t))
	ctx := context.Background()

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	other := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	blocks := []domain.FixedBlock{
		{
			ID: "b2", Date: date, Title: "Afternoon call",
			Start: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		},
		{
			ID: "b1", Date: date, Title: "Standup",
			Start: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "b3", Date: other, Title: "Tomorrow",
			Start: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
		},
	}
	for _, b := range blocks {
		if err := repo.PutBlock(ctx, b); err != nil {
			t.Fatalf("put block %q: %v", b.ID, err)
		}
	}

	got, err := repo.ListBlocksByDate(ctx, date)
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks for date, got %d", len(got))
	}
	if got[0].ID != "b1" || got[1].ID != "b2" {
		t.Fatalf("expected start-time order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestPutBlockRejectsInvertedTimes(t *testing.T) {
	repo := NewSqliteFixedBlockRepository(openTestDB(t))

	err := repo.PutBlock(context.Background(), domain.FixedBlock{
		ID:    "b1",
		Date:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Start: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Title: "Backwards",
	})
	if err == nil {
		t.Fatal("expected error for inverted block times")
	}
}

func TestPlanSaveReplacesSameDate(t *testing.T) {
	repo := NewSqlitePlanRepository(openTestDB(t))
	ctx := context.Background()

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	first := domain.PlanResult{
		Date: date,
		Items: []domain.ScheduledItem{
			{
				Kind:  domain.KindTask,
				Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
				Title: "Old errand", TaskID: "t1",
			},
		},
		Window: domain.WindowReport{Fits: true, BufferMin: 450},
	}

	if _, err := repo.SavePlan(ctx, first); err != nil {
		t.Fatalf("save first plan: %v", err)
	}

	second := first
	second.Items = []domain.ScheduledItem{
		{
			Kind:  domain.KindTravel,
			Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
			Title: "Drive to Walgreens", FromName: "Home", ToName: "Walgreens",
			DistanceKm: 8.2, DurationMin: 15,
		},
		{
			Kind:  domain.KindTask,
			Start: time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 10, 9, 35, 0, 0, time.UTC),
			Title: "New errand", TaskID: "t2",
		},
	}
	second.TotalDistanceKm = 8.2
	second.TotalDrivingMin = 15
	second.Suggestions = []string{"Leave 15 min earlier"}

	id, err := repo.SavePlan(ctx, second)
	if err != nil {
		t.Fatalf("save second plan: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated plan id")
	}

	got, err := repo.GetPlan(ctx, date)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored plan")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected the replacement plan's 2 items, got %d", len(got.Items))
	}
	if got.Items[0].Kind != domain.KindTravel || got.Items[1].Title != "New errand" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.TotalDistanceKm != 8.2 || len(got.Suggestions) != 1 {
		t.Fatalf("plan metadata mismatch: %+v", got)
	}
}

func TestGetPlanMissingDate(t *testing.T) {
	repo := NewSqlitePlanRepository(openTestDB(t))

	got, err := repo.GetPlan(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing date, got %+v", got)
	}
}
