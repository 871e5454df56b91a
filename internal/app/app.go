package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Jesvarg/task-list/internal/config"
	"github.com/Jesvarg/task-list/internal/handlers"
	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/repository/task/inmemory"
	"github.com/Jesvarg/task-list/internal/repository/task/postgres"
	"github.com/Jesvarg/task-list/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type storage interface {
	service.TaskRepository
	Close()
}

type App struct {
	config    *config.Config
	server    *http.Server
	router    http.Handler
	storage   storage
	service   handlers.Service
	shutdowns []func() // en orden inverso al cerrar
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if a.config.Logging.Disabled {
		logger.Disable()
	} else if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("inicialización del logger: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Cerrando el logger")
		logger.Sync()
	})

	store, err := a.initStorage(ctx)
	if err != nil {
		a.shutdown()
		return nil, err
	}
	a.storage = store
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Cerrando el almacenamiento")
		a.storage.Close()
	})

	a.service = service.NewTaskService(a.storage, service.WithMaxPerPage(a.config.Pagination.MaxPerPage))
	taskHandler := handlers.NewTaskHandler(a.service, a.config.Pagination.DefaultPerPage)
	a.router = NewRouter(taskHandler, a.config.Server.RateLimit)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	logger.Info("App: Aplicación inicializada",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initStorage(ctx context.Context) (storage, error) {
	if a.config.Repository.Type == config.RepositoryInMemory {
		logger.Warn("App: Almacenamiento en memoria, los datos se pierden al reiniciar")
		return inmemory.NewTaskStorage(), nil
	}

	pg, err := postgres.New(ctx, a.config.Database)
	if err != nil {
		return nil, fmt.Errorf("conexión con PostgreSQL: %w", err)
	}

	if a.config.Database.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
	}
	return pg, nil
}

// Handler expone el router ya montado.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run sirve hasta que ctx se cancela o el servidor falla, y luego libera
// los recursos registrados en Init.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Servidor HTTP escuchando", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Apagando el servidor HTTP")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("apagado del servidor: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("App: El servidor terminó con error", err)
		return err
	}
	logger.Info("App: Servidor detenido")
	return nil
}

func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
