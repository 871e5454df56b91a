package dto

import (
	"encoding/json"
	"time"

	"github.com/Jesvarg/task-list/internal/models/task"
)

// CreateTaskRequest y UpdateTaskRequest distinguen una clave ausente de una
// clave con null: una clave presente con null cuenta como valor vacío y no pasa
// la validación.
type CreateTaskRequest struct {
	fields map[string]json.RawMessage
}

func (r *CreateTaskRequest) UnmarshalJSON(data []byte) error {
	r.fields = nil
	return json.Unmarshal(data, &r.fields)
}

func (r CreateTaskRequest) ToInput() (task.Input, error) {
	return toInput(r.fields)
}

type UpdateTaskRequest struct {
	fields map[string]json.RawMessage
}

func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	r.fields = nil
	return json.Unmarshal(data, &r.fields)
}

// Empty es true si no llegó cuerpo o llegó {}.
func (r UpdateTaskRequest) Empty() bool {
	return len(r.fields) == 0
}

// ToInput devuelve nil para un cuerpo vacío.
func (r UpdateTaskRequest) ToInput() (*task.Input, error) {
	if r.Empty() {
		return nil, nil
	}

	input, err := toInput(r.fields)
	if err != nil {
		return nil, err
	}
	return &input, nil
}

func toInput(fields map[string]json.RawMessage) (task.Input, error) {
	var input task.Input
	var err error
	if input.Title, err = optionalString(fields, "title"); err != nil {
		return task.Input{}, err
	}
	if input.Priority, err = optionalString(fields, "priority"); err != nil {
		return task.Input{}, err
	}
	return input, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, nil
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	if value == nil {
		empty := ""
		return &empty, nil
	}
	return value, nil
}

type TaskResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type ListResponse struct {
	Tasks      []TaskResponse  `json:"tasks"`
	Pagination task.Pagination `json:"pagination"`
}

func FromPage(page *task.Page) ListResponse {
	return ListResponse{
		Tasks:      FromTaskList(page.Tasks),
		Pagination: page.Pagination,
	}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
