package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
)

// InitDB opens the run journal database and runs migrations.
// Parameters:
//   - cfg: journal configuration including driver and connection settings.
//   - log: logger for initialization messages.
// Returns:
//   - *gorm.DB: initialized database handle, or nil when the journal is disabled.
//   - error: non-nil if connection or migration fails.
func InitDB(cfg *config.JournalConfig, log *logger.Logger) (*gorm.DB, error) {
	if cfg.Driver == config.JournalDisabled {
		return nil, nil
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	log = log.WithField("driver", cfg.Driver)
	log.Info("Initializing run journal")

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case config.JournalPostgres:
		db, err = initPostgres(cfg, gormConfig)
	case config.JournalSQLite:
		db, err = initSQLite(cfg, gormConfig)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&domain.ExportRun{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	} else {
		log.Debug("AutoMigrate disabled")
	}

	return db, nil
}

// CloseDB releases the underlying connection pool.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.Close()
}

// initPostgres initializes a PostgreSQL database connection
func initPostgres(cfg *config.JournalConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	// Simple protocol keeps transaction poolers working
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

// initSQLite initializes a SQLite database connection
func initSQLite(cfg *config.JournalConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	return db, nil
}
