package database

import (
	"context"
	"fmt"
	"time"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres and applies the pool settings. It does not migrate.
func Open(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsDev() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.New(&gormWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates every table. Reference tables come first so
// the branch tables can point their foreign keys at them.
func Migrate(db *gorm.DB, logger zerolog.Logger) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Warn().Err(err).Msg("could not ensure pgcrypto, gen_random_uuid() needs Postgres 13+")
	}

	tables := []any{
		&models.User{},
		&models.Patient{},
		&models.OperationType{},
		&models.DoctorBranchAssignment{},
	}
	tables = append(tables, models.BranchTables()...)
	tables = append(tables,
		&models.DoctorKhata{},
		&models.Income{},
		&models.DoctorPayment{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.AuditLog{},
		&models.MonthlyReport{},
	)

	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info().Int("tables", len(tables)).Msg("database migration completed")
	return nil
}

// Ping is used by the health endpoint.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type gormWriter struct {
	logger zerolog.Logger
}

func (w *gormWriter) Printf(format string, args ...any) {
	w.logger.Info().Str("component", "gorm").Msgf(format, args...)
}
