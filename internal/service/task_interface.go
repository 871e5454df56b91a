package service

import (
	"context"

	"github.com/Jesvarg/task-list/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, int64) (*task.Task, error)
	Delete(context.Context, int64) error
	List(context.Context, task.ListFilter) ([]*task.Task, int, error)
	Stats(context.Context) (*task.Stats, error)
	// TitleExists ignora la tarea excludeID; 0 no excluye ninguna.
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
}
