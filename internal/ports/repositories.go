package ports

import (
	"context"
	"time"

	"errand-route-service/internal/domain"
)

// Port: durable storage for the single user profile row.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Put(ctx context.Context, s domain.Settings) error
}

// Port: durable storage for tasks.
type TaskRepository interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	PutTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Port: durable storage for fixed blocks.
type FixedBlockRepository interface {
	ListBlocksByDate(ctx context.Context, date time.Time) ([]domain.FixedBlock, error)
	PutBlock(ctx context.Context, b domain.FixedBlock) error
	DeleteBlock(ctx context.Context, id string) error
}

// Port: durable storage for generated plans.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan domain.PlanResult) (string, error)
	GetPlan(ctx context.Context, date time.Time) (*domain.PlanResult, error)
}
