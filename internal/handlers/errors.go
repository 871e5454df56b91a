package handlers

import (
	"net/http"

	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/service"

	"go.uber.org/zap"
)

const (
	MsgBadRequest       = "Solicitud incorrecta"
	MsgInternal         = "Error interno del servidor"
	MsgMethodNotAllowed = "Método no permitido"
	MsgTaskDeleted      = "Tarea eliminada exitosamente"
)

// handleServiceError responde con el estado del error de negocio o con 500.
// Los detalles internos solo van al log.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if businessErr := service.AsBusinessError(err); businessErr != nil {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Error de negocio",
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Any("details", businessErr.Details),
			zap.Int("http_status", statusCode))

		responseWithError(w, statusCode, businessErr.Message)
		return
	}

	logger.Error("HTTP: Error en Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, MsgInternal)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Ruta no encontrada")
	responseWithError(w, http.StatusNotFound, service.MsgNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Método no permitido")
	responseWithError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
