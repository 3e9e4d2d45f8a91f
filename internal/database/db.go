package database

import (
	"fmt"
	"time"

	"site-defects/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxAttempts = 10
	retryDelay  = 2 * time.Second
)

// Open connects to the audit database, retrying while it comes up, and
// migrates the audit table.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	return connect(postgres.Open(dsn), maxAttempts, retryDelay, log)
}

func connect(dialector gorm.Dialector, attempts int, delay time.Duration, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= attempts; i++ {
		log.Info("connecting to audit database", zap.Int("attempt", i), zap.Int("max_attempts", attempts))

		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err == nil {
			break
		}

		log.Warn("audit database not reachable", zap.Error(err))
		if i < attempts {
			time.Sleep(delay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to audit database after %d attempts: %w", attempts, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("connected to audit database")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return fmt.Errorf("migrate audit log: %w", err)
	}
	return nil
}
