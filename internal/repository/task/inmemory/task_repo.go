package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/models/task"
	repo "github.com/Jesvarg/task-list/internal/repository"
)

// TaskStorage guarda copias de las tareas: lo que devuelve nunca comparte
// memoria con el mapa interno.
type TaskStorage struct {
	storage map[int64]task.Task
	mtx     *sync.RWMutex
	lastID  int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]task.Task),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Almacenamiento en memoria disponible")
	return ctx.Err()
}

func (s *TaskStorage) Close() {}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// mismo comportamiento que el índice único lower(title)
	if s.titleTaken(taskToCreate.Title, 0) {
		return repo.ErrDuplicateTitle
	}

	s.lastID++
	taskToCreate.ID = s.lastID
	s.storage[taskToCreate.ID] = *taskToCreate
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}
	if s.titleTaken(taskToUpdate.Title, taskToUpdate.ID) {
		return repo.ErrDuplicateTitle
	}

	s.storage[taskToUpdate.ID] = *taskToUpdate
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &taskToGet, nil
}

// borrado definitivo, sin papelera
func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

func (s *TaskStorage) List(ctx context.Context, filter task.ListFilter) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := []task.Task{}
	for _, t := range s.storage {
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		matched = append(matched, t)
	}

	// created_at DESC, id DESC igual que en postgres
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	res := []*task.Task{}
	for i := filter.Offset(); i < len(matched) && len(res) < filter.PerPage; i++ {
		t := matched[i]
		res = append(res, &t)
	}

	return res, len(matched), nil
}

func (s *TaskStorage) Stats(ctx context.Context) (*task.Stats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats := &task.Stats{Total: len(s.storage)}
	for _, t := range s.storage {
		switch t.Priority {
		case task.PriorityHigh:
			stats.High++
		case task.PriorityMedium:
			stats.Medium++
		case task.PriorityLow:
			stats.Low++
		}
	}
	return stats, nil
}

func (s *TaskStorage) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.titleTaken(title, excludeID), nil
}

// llamar con el mutex tomado
func (s *TaskStorage) titleTaken(title string, excludeID int64) bool {
	for id, t := range s.storage {
		if id != excludeID && task.SameTitle(t.Title, title) {
			return true
		}
	}
	return false
}
