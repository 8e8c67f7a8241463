package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultDSN = "job-portal.db"
)

type Config struct {
	// DSN is a sqlite file path or a postgres:// url.
	DSN           string
	SlowThreshold time.Duration
	Debug         bool
}

// Driver picks the dialect from the shape of the dsn.
func Driver(dsn string) string {
	lowered := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lowered, "postgres://") || strings.HasPrefix(lowered, "postgresql://") || strings.Contains(lowered, "host=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the configured database. SQL logs go through the
// process zap logger.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = DefaultDSN
	}

	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}

	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}

	gormCfg := &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(logger.Named("gorm")),
			gormlogger.Config{
				SlowThreshold:             slow,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
	}

	driver := Driver(dsn)

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		if err := tuneSQLite(db, dsn); err != nil {
			return nil, err
		}
	}

	logger.Info("database opened", zap.String("driver", driver))

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return errors.New("database is not open")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func tuneSQLite(db *gorm.DB, dsn string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sqlite pool: %w", err)
	}
	// a single writer avoids "database is locked" under concurrent requests
	sqlDB.SetMaxOpenConns(1)

	if strings.Contains(dsn, ":memory:") {
		return nil
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	return nil
}

