package database

import (
	"fmt"
	"time"

	"sampletrack/internal/config"
	"sampletrack/internal/logger"
	"sampletrack/internal/model"
	"sampletrack/internal/stage"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection opens the postgres pool. Schema migration is a separate step.
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.NewGormLogger(log, gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// Models lists every single-table model.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Role{},
		&model.RolePermission{},
		&model.Style{},
		&model.Sample{},
		&model.SamplePresence{},
		&model.SampleRoleOwner{},
		&model.AuditLog{},
		&model.SampleHistory{},
		&model.StatusTransition{},
	}
}

// Migrate creates or updates every table, including one table per stage and
// one per lookup kind.
func Migrate(db *gorm.DB) error {
	for _, kind := range model.LookupKinds {
		if err := db.Table(kind.Table()).AutoMigrate(&model.Lookup{}); err != nil {
			return fmt.Errorf("migrate %s: %w", kind.Table(), err)
		}
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	for _, s := range stage.All() {
		if err := db.Table(s.Table).AutoMigrate(&model.StageRecord{}); err != nil {
			return fmt.Errorf("migrate %s: %w", s.Table, err)
		}
	}
	return nil
}
