package task

import (
	"time"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithUpdatedAt(updatedAt time.Time) TaskOption {
	return func(task *Task) {
		task.UpdatedAt = updatedAt
	}
}

// Apply ignora las opciones nil.
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}

// Input son los campos que envía el cliente; nil significa "no enviado".
type Input struct {
	Title    *string
	Priority *string
}
