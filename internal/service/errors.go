package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
)

// Mensajes visibles para el cliente.
const (
	MsgTitleRequired   = "El título es obligatorio"
	MsgTitleTooShort   = "El título debe tener al menos 3 caracteres"
	MsgTitleTooLong    = "El título no puede exceder 100 caracteres"
	MsgInvalidPriority = "Prioridad inválida"
	MsgDuplicateTitle  = "Ya existe una tarea con este título"
	MsgNoData          = "No se proporcionaron datos"
	MsgNotFound        = "Recurso no encontrado"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(id int64, err error) *BusinessError {
	busErr := NewBusinessError(CodeNotFound, MsgNotFound,
		ToDetail("resource", "task"),
		ToDetail("id", id),
	)
	busErr.Err = err
	return busErr
}

func NewValidationError(field, message string) *BusinessError {
	return NewBusinessError(CodeValidation, message, ToDetail("field", field))
}

func NewConflict(title string, err error) *BusinessError {
	busErr := NewBusinessError(CodeConflict, MsgDuplicateTitle, ToDetail("title", title))
	busErr.Err = err
	return busErr
}

// AsBusinessError devuelve nil si err no es un error de negocio.
func AsBusinessError(err error) *BusinessError {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr
	}
	return nil
}
