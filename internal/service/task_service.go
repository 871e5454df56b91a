package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/models/task"
	"github.com/Jesvarg/task-list/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const MsgInvalidPagination = "Parámetros de paginación inválidos"

const (
	titleRules    = "required,min=3,max=100"
	priorityRules = "oneof=baja media alta"
)

const (
	DefaultPerPage = 6

	// con page y per_page acotados, (page-1)*per_page cabe en int64
	maxPaginationParam = math.MaxInt32
)

// aquí se validan las reglas de negocio; el repositorio solo persiste

type TaskService struct {
	repo       TaskRepository
	validate   *validator.Validate
	now        func() time.Time
	maxPerPage int
}

type Option func(*TaskService)

// WithClock reemplaza time.Now, útil en tests.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithMaxPerPage recorta per_page a maxPerPage; 0 deja per_page sin tope.
func WithMaxPerPage(maxPerPage int) Option {
	return func(s *TaskService) {
		if maxPerPage >= 0 {
			s.maxPerPage = maxPerPage
		}
	}
}

func NewTaskService(repo TaskRepository, options ...Option) *TaskService {
	s := &TaskService{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// timestamp en UTC con precisión de microsegundos, la misma que guarda PostgreSQL
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TaskService) ListTasks(ctx context.Context, filter task.ListFilter) (*task.Page, error) {
	if filter.Page < 1 || filter.PerPage < 1 ||
		filter.Page > maxPaginationParam || filter.PerPage > maxPaginationParam {
		return nil, NewValidationError("pagination", MsgInvalidPagination)
	}
	if s.maxPerPage > 0 && filter.PerPage > s.maxPerPage {
		filter.PerPage = s.maxPerPage
	}
	if !filter.Priority.Valid() {
		filter.Priority = ""
	}
	filter.Search = strings.TrimSpace(filter.Search)

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listado de tareas: %w", err)
	}

	return &task.Page{
		Tasks:      tasks,
		Pagination: task.NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}

func (s *TaskService) CreateTask(ctx context.Context, input task.Input) (*task.Task, error) {
	if input.Title == nil {
		return nil, NewValidationError("title", MsgTitleRequired)
	}
	title, err := s.validateTitle(*input.Title)
	if err != nil {
		return nil, err
	}

	priority := task.PriorityLow
	if input.Priority != nil {
		if priority, err = s.validatePriority(*input.Priority); err != nil {
			return nil, err
		}
	}

	if err := s.checkDuplicate(ctx, title, 0); err != nil {
		return nil, err
	}

	now := s.timestamp()
	newTask := &task.Task{
		Title:     title,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			logger.Warn("Service: Título duplicado detectado por la base de datos", zap.String("title", title))
			return nil, NewConflict(title, err)
		}
		return nil, fmt.Errorf("creación de tarea: %w", err)
	}

	logger.Info("Service: Tarea creada", zap.Int64("task_id", newTask.ID))
	return newTask, nil
}

// UpdateTask aplica solo los campos enviados. input nil significa cuerpo vacío.
// updated_at se renueva siempre, aunque no cambie ningún campo.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, input *task.Input) (*task.Task, error) {
	current, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if input == nil {
		return nil, NewValidationError("body", MsgNoData)
	}

	var options []task.TaskOption

	if input.Title != nil {
		title, err := s.validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if err := s.checkDuplicate(ctx, title, id); err != nil {
			return nil, err
		}
		options = append(options, task.WithTitle(title))
	}

	if input.Priority != nil {
		priority, err := s.validatePriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		options = append(options, task.WithPriority(priority))
	}

	now := s.timestamp()
	if now.Before(current.CreatedAt) {
		now = current.CreatedAt
	}
	options = append(options, task.WithUpdatedAt(now))
	current.Apply(options...)

	if err := s.repo.Update(ctx, current); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound(id, err)
		case errors.Is(err, repository.ErrDuplicateTitle):
			return nil, NewConflict(current.Title, err)
		}
		return nil, fmt.Errorf("actualización de tarea: %w", err)
	}

	logger.Info("Service: Tarea actualizada", zap.Int64("task_id", id))
	return current, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Tarea no encontrada", zap.Int64("target_id", id))
			return NewNotFound(id, err)
		}
		return fmt.Errorf("eliminación de tarea: %w", err)
	}

	logger.Info("Service: Tarea eliminada", zap.Int64("task_id", id))
	return nil
}

func (s *TaskService) Stats(ctx context.Context) (*task.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("estadísticas: %w", err)
	}
	return stats, nil
}

func (s *TaskService) getTask(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Tarea no encontrada", zap.Int64("target_id", id))
			return nil, NewNotFound(id, err)
		}
		return nil, fmt.Errorf("obtención de tarea: %w", err)
	}
	return t, nil
}

func (s *TaskService) validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)

	err := s.validate.Var(title, titleRules)
	if err == nil {
		return title, nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "min":
			return "", NewValidationError("title", MsgTitleTooShort)
		case "max":
			return "", NewValidationError("title", MsgTitleTooLong)
		}
	}
	return "", NewValidationError("title", MsgTitleRequired)
}

func (s *TaskService) validatePriority(raw string) (task.Priority, error) {
	if err := s.validate.Var(raw, priorityRules); err != nil {
		return "", NewValidationError("priority", MsgInvalidPriority)
	}
	return task.Priority(raw), nil
}

func (s *TaskService) checkDuplicate(ctx context.Context, title string, excludeID int64) error {
	exists, err := s.repo.TitleExists(ctx, title, excludeID)
	if err != nil {
		return fmt.Errorf("comprobación de duplicados: %w", err)
	}
	if exists {
		logger.Info("Service: Título duplicado", zap.String("title", title))
		return NewConflict(title, nil)
	}
	return nil
}
