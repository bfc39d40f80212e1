package db

import (
	"fmt"

	"go-intents/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database and migrates the schema.
// An empty DSN leaves DB nil and submissions are not persisted.
func InitDB(dsn string) error {
	if dsn == "" {
		logrus.Warn("Database DSN not configured, submissions will not be persisted")
		return nil
	}

	conn, err := Open(dsn)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open connects to postgres and runs AutoMigrate
func Open(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	logrus.Info("Database connected")

	if err := conn.AutoMigrate(&models.SolutionSubmission{}); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	logrus.Info("Database schema migrated")
	return conn, nil
}

// Close closes the underlying connection pool
func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	DB = nil
}
