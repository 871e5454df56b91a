package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/Jesvarg/task-list/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// newMigrator comparte el pool: database/sql toma conexiones de él y las
// devuelve al cerrar.
func (s *Storage) newMigrator(ctx context.Context) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("fuente de migraciones: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping para migraciones: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("driver de migraciones: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("inicialización de migraciones: %w", err)
	}
	return m, nil
}

// Migrate crea el esquema si no existe; es idempotente.
func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Aplicando migraciones")

	m, err := s.newMigrator(ctx)
	if err != nil {
		logger.Error("Repository: No se pudieron preparar las migraciones", err)
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Falló la migración", err)
		return fmt.Errorf("migración: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("versión del esquema: %w", err)
	}
	logger.Info("Repository: Esquema al día", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down revierte todas las migraciones. Solo para tests y mantenimiento.
func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Revirtiendo migraciones")

	m, err := s.newMigrator(ctx)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Falló la reversión", err)
		return fmt.Errorf("reversión: %w", err)
	}
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Repository: Error al cerrar el migrador",
			zap.NamedError("source", srcErr),
			zap.NamedError("database", dbErr))
	}
}
