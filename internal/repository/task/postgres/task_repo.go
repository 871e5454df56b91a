package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jesvarg/task-list/internal/config"
	"github.com/Jesvarg/task-list/internal/logger"
	"github.com/Jesvarg/task-list/internal/models/task"
	repo "github.com/Jesvarg/task-list/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// nombre del índice único sobre LOWER(title), ver migrations/000002
const titleUniqueIndex = "tasks_title_lower_key"

const slowQuery = 100 * time.Millisecond

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Error al leer la cadena de conexión", err)
		return nil, fmt.Errorf("configuración del pool: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Error al crear el pool", err)
		return nil, fmt.Errorf("creación del pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Falló el ping", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: Conexión con PostgreSQL establecida",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns))
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Conexiones con PostgreSQL cerradas")
}

// HealthCheck ejecuta una consulta trivial, no solo un ping del pool.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "SELECT 1"); err != nil {
		logger.Error("Repository: Falló la consulta de salud", err)
		return fmt.Errorf("consulta de salud: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer observe(start, "create")

	query := `INSERT INTO tasks
				(title, priority, created_at, updated_at)
				VALUES ($1, $2, $3, $4)
				RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		string(taskToCreate.Priority),
		taskToCreate.CreatedAt,
		taskToCreate.UpdatedAt,
	).Scan(&taskToCreate.ID)

	if err != nil {
		if isDuplicateTitle(err) {
			return repo.ErrDuplicateTitle
		}
		logger.Error("Repository: No se pudo insertar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserción de tarea: %w", err)
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer observe(start, "update")

	query := `UPDATE tasks
			SET title = $1,
				priority = $2,
				updated_at = $3
			WHERE id = $4`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		string(taskToUpdate.Priority),
		taskToUpdate.UpdatedAt,
		taskToUpdate.ID,
	)
	if err != nil {
		if isDuplicateTitle(err) {
			return repo.ErrDuplicateTitle
		}
		logger.Error("Repository: No se pudo actualizar la tarea", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("actualización de tarea: %w", err)
	}

	// la fila desapareció entre la lectura y la escritura
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()
	defer observe(start, "get_by_id")

	query := `SELECT id, title, priority, created_at, updated_at
				FROM tasks
				WHERE id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		logger.Error("Repository: No se pudo obtener la tarea", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("obtención de tarea: %w", err)
	}

	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Error al leer la tarea", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("lectura de tarea: %w", err)
	}
	return inUTC(found), nil
}

// borrado definitivo
func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	defer observe(start, "delete")

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: No se pudo eliminar la tarea", err, zap.Int64("task_id", id))
		return fmt.Errorf("eliminación de tarea: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// List cuenta y pagina dentro de la misma transacción de solo lectura,
// así total_count y la página salen de la misma instantánea.
func (s *Storage) List(ctx context.Context, filter task.ListFilter) ([]*task.Task, int, error) {
	start := time.Now()
	defer observe(start, "list")

	where, args := listConditions(filter)

	var (
		tasks []*task.Task
		total int
	)

	txOptions := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, txOptions, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("conteo: %w", err)
		}

		pageArgs := append(append([]any{}, args...), filter.PerPage, filter.Offset())
		query := `SELECT id, title, priority, created_at, updated_at
				FROM tasks` + where + fmt.Sprintf(`
				ORDER BY created_at DESC, id DESC
				LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

		rows, err := tx.Query(ctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("consulta de página: %w", err)
		}

		tasks, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
		if err != nil {
			return fmt.Errorf("lectura de filas: %w", err)
		}
		for _, t := range tasks {
			inUTC(t)
		}
		return nil
	})
	if err != nil {
		logger.Error("Repository: No se pudieron listar las tareas", err,
			zap.String("priority", string(filter.Priority)),
			zap.String("search", filter.Search))
		return nil, 0, fmt.Errorf("listado de tareas: %w", err)
	}

	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, total, nil
}

func (s *Storage) Stats(ctx context.Context) (*task.Stats, error) {
	start := time.Now()
	defer observe(start, "stats")

	query := `SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE priority = $1),
				COUNT(*) FILTER (WHERE priority = $2),
				COUNT(*) FILTER (WHERE priority = $3)
			FROM tasks`

	stats := &task.Stats{}
	err := s.pool.QueryRow(ctx, query,
		string(task.PriorityHigh),
		string(task.PriorityMedium),
		string(task.PriorityLow),
	).Scan(&stats.Total, &stats.High, &stats.Medium, &stats.Low)
	if err != nil {
		logger.Error("Repository: No se pudieron calcular las estadísticas", err)
		return nil, fmt.Errorf("estadísticas: %w", err)
	}
	return stats, nil
}

func (s *Storage) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	start := time.Now()
	defer observe(start, "title_exists")

	query := `SELECT EXISTS (
				SELECT 1 FROM tasks
				WHERE LOWER(title) = LOWER($1) AND id <> $2
			)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, title, excludeID).Scan(&exists); err != nil {
		logger.Error("Repository: No se pudo comprobar el título", err)
		return false, fmt.Errorf("comprobación de título: %w", err)
	}
	return exists, nil
}

// listConditions arma el WHERE con parámetros posicionales desde $1.
func listConditions(filter task.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// la búsqueda es por subcadena literal: los comodines del usuario no cuentan
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// pgx devuelve timestamptz en time.Local; la API responde siempre en UTC
func inUTC(t *task.Task) *task.Task {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func isDuplicateTitle(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == titleUniqueIndex
}

func observe(start time.Time, op string) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Consulta lenta", zap.String("operation", op), zap.Duration("ms", elapsed))
	}
}
