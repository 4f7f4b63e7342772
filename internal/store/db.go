package store

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/pkg/logger"
)

// Dialect selects the relational backend. The server catalog runs on
// Postgres; the desktop catalog and the test suite run on SQLite.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Config for opening the store.
type Config struct {
	Dialect Dialect
	DSN     string
}

// Open connects to the configured store and migrates the pipeline's tables.
func Open(cfg *Config, log logger.Logger) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DialectSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store dialect: %s", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		// Unique-index violations must surface as gorm.ErrDuplicatedKey on
		// both dialects; the reconciler's conflict retry depends on it.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	if err := db.AutoMigrate(
		&models.ProcessingUnit{},
		&models.EquipmentVersion{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	log.Info("Store connected",
		logger.String("dialect", string(cfg.Dialect)),
	)
	return db, nil
}
