package task

import (
	"slices"
	"strings"
	"time"
)

type Task struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Priority  Priority  `json:"priority" db:"priority"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Priority string

const PriorityLow Priority = "baja"
const PriorityMedium Priority = "media"
const PriorityHigh Priority = "alta"

// Priorities son los únicos valores admitidos, de mayor a menor
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

// SameTitle compara títulos sin distinguir mayúsculas.
func SameTitle(a, b string) bool {
	return strings.EqualFold(a, b)
}

type Stats struct {
	Total  int `json:"total"`
	High   int `json:"alta"`
	Medium int `json:"media"`
	Low    int `json:"baja"`
}
