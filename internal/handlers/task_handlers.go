package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Jesvarg/task-list/internal/handlers/dto"
	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/models/task"
	"github.com/Jesvarg/task-list/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("datos después del objeto JSON")

type TaskHandler struct {
	TaskService    Service
	defaultPerPage int
}

func NewTaskHandler(taskService Service, defaultPerPage int) *TaskHandler {
	if defaultPerPage <= 0 {
		defaultPerPage = service.DefaultPerPage
	}
	return &TaskHandler{
		TaskService:    taskService,
		defaultPerPage: defaultPerPage,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filter, err := h.parseListFilter(r)
	if err != nil {
		logger.Warn("HTTP: Parámetros de paginación inválidos",
			zap.Error(err),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, service.MsgInvalidPagination)
		return
	}

	page, err := h.TaskService.ListTasks(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Tareas obtenidas",
		zap.Int("count", len(page.Tasks)),
		zap.Int("total_count", page.Pagination.TotalCount),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromPage(page))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTaskRequest
	if !h.decodeRequest(w, r, &request) {
		return
	}

	input, err := request.ToInput()
	if err != nil {
		logger.Warn("HTTP: Tipo de campo inválido",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, MsgBadRequest)
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea creada",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !h.decodeRequest(w, r, &request) {
		return
	}

	input, err := request.ToInput()
	if err != nil {
		logger.Warn("HTTP: Tipo de campo inválido",
			zap.Error(err),
			zap.Int64("task_id", id),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, MsgBadRequest)
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea actualizada",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea eliminada",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithPayload(w, http.StatusOK, toPayload("message", MsgTaskDeleted))
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.TaskService.Stats(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "stats")
		return
	}

	responseWithJSON(w, http.StatusOK, stats)
}

// HealthCheck es la única respuesta que expone el detalle del error.
func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Falló el health check", err)

		responseWithJSON(w, http.StatusInternalServerError, dto.HealthResponse{
			Status:    "unhealthy",
			Database:  "disconnected",
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	responseWithJSON(w, http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: time.Now().UTC(),
	})
}

// parseListFilter aplica los valores por defecto; page y per_page vacíos
// cuentan como ausentes.
func (h *TaskHandler) parseListFilter(r *http.Request) (task.ListFilter, error) {
	query := r.URL.Query()

	filter := task.ListFilter{
		Priority: task.Priority(query.Get("priority")),
		Search:   query.Get("search"),
		Page:     1,
		PerPage:  h.defaultPerPage,
	}

	var err error
	if raw := query.Get("page"); raw != "" {
		if filter.Page, err = strconv.Atoi(raw); err != nil {
			return filter, err
		}
	}
	if raw := query.Get("per_page"); raw != "" {
		if filter.PerPage, err = strconv.Atoi(raw); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

// decodeRequest escribe la respuesta 400 y devuelve false si el cuerpo no sirve.
// Un cuerpo vacío no es un error: dst queda con su valor cero.
func (h *TaskHandler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Tipo de contenido inválido",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, MsgBadRequest)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// el cuerpo debe ser un único valor JSON
		if _, tokErr := dec.Token(); !errors.Is(tokErr, io.EOF) {
			err = errTrailingData
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("HTTP: Error al leer el JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, MsgBadRequest)
		return false
	}
	return true
}

// el router ya garantiza dígitos; un id que no cabe en int64 no puede existir
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		logger.Warn("HTTP: id inválido",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusNotFound, service.MsgNotFound)
		return 0, false
	}
	return id, true
}
