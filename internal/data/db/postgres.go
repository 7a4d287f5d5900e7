package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// NewPostgres connects to the post-history database. DATABASE_URL is the
// single switch: when unset the caller should run without history.
func NewPostgres(logg *logger.Logger) (*gorm.DB, error) {
	serviceLog := logg.With("service", "PostgresService")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	if err := gdb.AutoMigrate(&domain.PostRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate post history: %w", err)
	}
	serviceLog.Info("connected to Postgres")
	return gdb, nil
}
