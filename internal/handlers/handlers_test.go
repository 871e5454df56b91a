package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jesvarg/task-list/internal/handlers"
	"github.com/Jesvarg/task-list/internal/handlers/dto"
	"github.com/Jesvarg/task-list/internal/models/task"
	"github.com/Jesvarg/task-list/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - mock del servicio
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) ListTasks(ctx context.Context, filter task.ListFilter) (*task.Page, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Page), args.Error(1)
}

func (m *MockTaskService) CreateTask(ctx context.Context, input task.Input) (*task.Task, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, input *task.Input) (*task.Task, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskService) Stats(ctx context.Context) (*task.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Stats), args.Error(1)
}

var _ handlers.Service = (*MockTaskService)(nil)
var _ handlers.Service = (*service.TaskService)(nil)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func ptr(s string) *string {
	return &s
}

func sampleTask() *task.Task {
	return &task.Task{
		ID:        1,
		Title:     "Buy milk",
		Priority:  task.PriorityHigh,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

// withID simula el parámetro de ruta que pone chi
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

// TestTaskHandler_HealthCheck prueba HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name             string
		setupMock        func(*MockTaskService)
		expectedStatus   int
		expectedHealth   string
		expectedDatabase string
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus:   http.StatusOK,
			expectedHealth:   "healthy",
			expectedDatabase: "connected",
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
			},
			expectedStatus:   http.StatusInternalServerError,
			expectedHealth:   "unhealthy",
			expectedDatabase: "disconnected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService, 6)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response dto.HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedHealth, response.Status)
			assert.Equal(t, tt.expectedDatabase, response.Database)
			assert.False(t, response.Timestamp.IsZero())
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, "connection refused", response.Error)
			} else {
				assert.Empty(t, response.Error)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_CreateTask prueba la creación de tareas
func TestTaskHandler_CreateTask(t *testing.T) {
	tests := []struct {
		name            string
		requestBody     string
		contentType     string
		setupMock       func(*MockTaskService)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:        "success - create task",
			requestBody: `{"title": "Buy milk", "priority": "alta"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Input{Title: ptr("Buy milk"), Priority: ptr("alta")}).
					Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "success - charset in content type",
			requestBody: `{"title": "Buy milk", "priority": "alta"}`,
			contentType: "application/json; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "absent priority is passed as nil",
			requestBody: `{"title": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Input{Title: ptr("Buy milk")}).
					Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "error - null priority is an empty priority",
			requestBody: `{"title": "Buy milk", "priority": null}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Input{Title: ptr("Buy milk"), Priority: ptr("")}).
					Return(nil, service.NewValidationError("priority", service.MsgInvalidPriority))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgInvalidPriority,
		},
		{
			name:        "null title is an empty title",
			requestBody: `{"title": null}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Input{Title: ptr("")}).
					Return(nil, service.NewValidationError("title", service.MsgTitleRequired))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgTitleRequired,
		},
		{
			name:        "empty body reaches the service",
			requestBody: ``,
			contentType: "",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, task.Input{}).
					Return(nil, service.NewValidationError("title", service.MsgTitleRequired))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgTitleRequired,
		},
		{
			name:            "error - invalid content type",
			requestBody:     `{}`,
			contentType:     "text/plain",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - invalid JSON",
			requestBody:     `{invalid json}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - trailing data after the object",
			requestBody:     `{"title": "Buy milk"} garbage`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - two JSON values",
			requestBody:     `{"title": "Buy milk"} {}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - title is not a string",
			requestBody:     `{"title": 42}`,
			contentType:     "application/json",
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:        "error - duplicate",
			requestBody: `{"title": "buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewConflict("buy milk", nil))
			},
			expectedStatus:  http.StatusConflict,
			expectedMessage: service.MsgDuplicateTitle,
		},
		{
			name:        "error - service error",
			requestBody: `{"title": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, errors.New("pq: connection lost"))
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: handlers.MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService, 6)

			req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(tt.requestBody))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			handler.CreateTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(1), response.ID)
				assert.Equal(t, "Buy milk", response.Title)
				assert.Equal(t, "alta", response.Priority)
			} else {
				assert.Equal(t, tt.expectedMessage, decodeError(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_CreateTask_HidesInternalError prueba que el detalle no se filtra
func TestTaskHandler_CreateTask_HidesInternalError(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("CreateTask", mock.Anything, mock.Anything).
		Return(nil, errors.New("secret table layout"))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Buy milk"}`))
	w := httptest.NewRecorder()
	handlers.NewTaskHandler(mockService, 6).CreateTask(w, req)

	assert.NotContains(t, w.Body.String(), "secret")
}

// TestTaskHandler_UpdateTask prueba la actualización parcial
func TestTaskHandler_UpdateTask(t *testing.T) {
	var noInput *task.Input

	tests := []struct {
		name            string
		taskID          string
		requestBody     string
		setupMock       func(*MockTaskService)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:        "success - priority only",
			taskID:      "1",
			requestBody: `{"priority": "media"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(1), &task.Input{Priority: ptr("media")}).
					Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - unknown keys still update",
			taskID:      "1",
			requestBody: `{"done": true}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(1), &task.Input{}).
					Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "null title is an empty title",
			taskID:      "1",
			requestBody: `{"title": null}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(1), &task.Input{Title: ptr("")}).
					Return(nil, service.NewValidationError("title", service.MsgTitleRequired))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgTitleRequired,
		},
		{
			name:        "empty object is no data",
			taskID:      "1",
			requestBody: `{}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(1), noInput).
					Return(nil, service.NewValidationError("body", service.MsgNoData))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgNoData,
		},
		{
			name:        "missing body is no data",
			taskID:      "1",
			requestBody: ``,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(1), noInput).
					Return(nil, service.NewValidationError("body", service.MsgNoData))
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: service.MsgNoData,
		},
		{
			name:        "error - not found",
			taskID:      "999",
			requestBody: `{"priority": "alta"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(999), mock.Anything).
					Return(nil, service.NewNotFound(999, nil))
			},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: service.MsgNotFound,
		},
		{
			name:            "error - body is an array",
			taskID:          "1",
			requestBody:     `["title"]`,
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - priority is not a string",
			taskID:          "1",
			requestBody:     `{"priority": 3}`,
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: handlers.MsgBadRequest,
		},
		{
			name:            "error - id overflows int64",
			taskID:          "99999999999999999999",
			requestBody:     `{"priority": "alta"}`,
			setupMock:       func(m *MockTaskService) {},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: service.MsgNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService, 6)

			req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+tt.taskID, strings.NewReader(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			req = withID(req, tt.taskID)
			w := httptest.NewRecorder()

			handler.UpdateTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(1), response.ID)
			} else {
				assert.Equal(t, tt.expectedMessage, decodeError(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTask prueba el borrado
func TestTaskHandler_DeleteTask(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedBody   map[string]string
	}{
		{
			name:   "success - delete task",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(3)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]string{"message": handlers.MsgTaskDeleted},
		},
		{
			name:   "error - not found",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(3)).Return(service.NewNotFound(3, nil))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   map[string]string{"error": service.MsgNotFound},
		},
		{
			name:   "error - service error",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(3)).Return(errors.New("timeout"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   map[string]string{"error": handlers.MsgInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService, 6)

			req := withID(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+tt.taskID, nil), tt.taskID)
			w := httptest.NewRecorder()

			handler.DeleteTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expectedBody, body)

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ListTasks prueba el parseo de la query
func TestTaskHandler_ListTasks(t *testing.T) {
	emptyPage := func(page, perPage int) *task.Page {
		return &task.Page{Tasks: []*task.Task{}, Pagination: task.NewPagination(page, perPage, 0)}
	}

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:  "defaults",
			query: "",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, task.ListFilter{Page: 1, PerPage: 4}).
					Return(emptyPage(1, 4), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "all parameters",
			query: "?priority=alta&search=milk&page=2&per_page=3",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, task.ListFilter{Priority: task.PriorityHigh, Search: "milk", Page: 2, PerPage: 3}).
					Return(emptyPage(2, 3), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "empty values use defaults",
			query: "?page=&per_page=",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, task.ListFilter{Page: 1, PerPage: 4}).
					Return(emptyPage(1, 4), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - non integer page",
			query:          "?page=abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - non integer per_page",
			query:          "?per_page=1.5",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "error - service rejects zero page",
			query: "?page=0",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("pagination", service.MsgInvalidPagination))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "error - service error",
			query: "",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService, 4)

			req := httptest.NewRequest(http.MethodGet, "/api/tasks"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ListTasks(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response map[string]json.RawMessage
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.JSONEq(t, `[]`, string(response["tasks"]))
				assert.Contains(t, response, "pagination")
			} else if tt.expectedStatus == http.StatusBadRequest {
				assert.Equal(t, service.MsgInvalidPagination, decodeError(t, w))
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ListTasks_Body prueba el formato de la respuesta
func TestTaskHandler_ListTasks_Body(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("ListTasks", mock.Anything, mock.Anything).Return(&task.Page{
		Tasks:      []*task.Task{sampleTask()},
		Pagination: task.NewPagination(1, 6, 1),
	}, nil)

	w := httptest.NewRecorder()
	handlers.NewTaskHandler(mockService, 6).ListTasks(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"tasks": [{
			"id": 1,
			"title": "Buy milk",
			"priority": "alta",
			"created_at": "2025-03-01T10:00:00Z",
			"updated_at": "2025-03-01T10:00:00Z"
		}],
		"pagination": {
			"current_page": 1,
			"per_page": 6,
			"total_pages": 1,
			"total_count": 1,
			"has_next": false,
			"has_prev": false
		}
	}`, w.Body.String())
}

// TestTaskHandler_Stats prueba las estadísticas
func TestTaskHandler_Stats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("Stats", mock.Anything).Return(&task.Stats{Total: 4, High: 1, Medium: 1, Low: 2}, nil)

		w := httptest.NewRecorder()
		handlers.NewTaskHandler(mockService, 6).Stats(w, httptest.NewRequest(http.MethodGet, "/api/tasks/stats", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"total":4,"alta":1,"media":1,"baja":2}`, w.Body.String())
	})

	t.Run("service error", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("Stats", mock.Anything).Return(nil, errors.New("boom"))

		w := httptest.NewRecorder()
		handlers.NewTaskHandler(mockService, 6).Stats(w, httptest.NewRequest(http.MethodGet, "/api/tasks/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, handlers.MsgInternal, decodeError(t, w))
	})
}

// TestNotFoundAndMethodNotAllowed prueba los manejadores genéricos
func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, service.MsgNotFound, decodeError(t, w))

	w = httptest.NewRecorder()
	handlers.MethodNotAllowed(w, httptest.NewRequest(http.MethodPatch, "/api/tasks", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, handlers.MsgMethodNotAllowed, decodeError(t, w))
}
