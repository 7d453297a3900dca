package handlers

import (
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/service"
	"context"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, task.CreateInput) (*task.Task, error)
	GetTaskByID(context.Context, int64) (*task.Task, error)
	ListTasks(context.Context, string, ...task.ListOption) (*task.Page, error)
	UpdateStatus(context.Context, int64, task.Status) (*task.Task, error)
	Apply(context.Context, service.ApplyInput) (*application.Application, error)
	GetApplications(context.Context, int64) ([]*application.Application, error)
	GetStats(context.Context) (task.Stats, error)
}
