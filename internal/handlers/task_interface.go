package handlers

import (
	"context"

	"github.com/Jesvarg/task-list/internal/models/task"
)

type Service interface {
	HealthCheck(context.Context) error
	ListTasks(context.Context, task.ListFilter) (*task.Page, error)
	CreateTask(context.Context, task.Input) (*task.Task, error)
	UpdateTask(context.Context, int64, *task.Input) (*task.Task, error)
	DeleteTask(context.Context, int64) error
	Stats(context.Context) (*task.Stats, error)
}
