package repository

import "errors"

var (
	ErrNotFound       = errors.New("tarea no encontrada")
	ErrDuplicateTitle = errors.New("título duplicado")
)
