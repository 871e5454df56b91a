package app

import (
	"net/http"

	"github.com/Jesvarg/task-list/internal/handlers"
	"github.com/Jesvarg/task-list/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(taskHandler *handlers.TaskHandler, rateLimit int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimit(rateLimit))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", taskHandler.HealthCheck) // GET /api/health

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)   // GET /api/tasks
			r.Post("/", taskHandler.CreateTask) // POST /api/tasks

			r.Get("/stats", taskHandler.Stats) // GET /api/tasks/stats

			r.Put("/{id:[0-9]+}", taskHandler.UpdateTask)    // PUT /api/tasks/{id}
			r.Delete("/{id:[0-9]+}", taskHandler.DeleteTask) // DELETE /api/tasks/{id}
		})
	})

	return otelhttp.NewHandler(r, "task-list")
}
