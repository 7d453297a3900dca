package service

import (
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	"context"
	"time"
)

// TaskRepository реализуют inmemory, postgres и sqlite хранилища, а также кэш поверх них
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	List(ctx context.Context, filter task.ListFilter) ([]*task.Task, error)
	// UpdateStatus пишет to, только если текущий статус равен from, и возвращает сохранённый updated_at
	UpdateStatus(ctx context.Context, id int64, from, to task.Status) (time.Time, error)
	GetOpenEndedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error)
	Stats(ctx context.Context) (task.Stats, error)

	CreateApplication(ctx context.Context, app *application.Application) error
	GetApplicationsByTask(ctx context.Context, taskID int64) ([]*application.Application, error)
}
