package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"optiondash-desktop/internal/config"
	"optiondash-desktop/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const appDirName = "optiondash"

// Init opens the local task cache database and runs auto-migration
func Init(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := openDialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
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

	log.Printf("[database] Connection pool configured: max_open=%d, max_idle=%d, max_lifetime=%v",
		cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)

	// Health check
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	DB = db
	log.Println("[database] Initialized successfully")
	return db, nil
}

// openDialector picks a driver from the URL scheme. An empty URL selects
// sqlite in the user config directory.
func openDialector(databaseURL string) (gorm.Dialector, error) {
	switch {
	case databaseURL == "":
		dbPath, err := defaultSQLitePath()
		if err != nil {
			return nil, err
		}
		log.Printf("[database] Using database at: %s", dbPath)
		return sqlite.Open(dbPath), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), nil
	case strings.HasPrefix(databaseURL, "postgresql://"), strings.HasPrefix(databaseURL, "postgres://"):
		return postgres.Open(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database URL format: %s", databaseURL)
	}
}

func defaultSQLitePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, appDirName)
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return filepath.Join(appDir, "tasks.db"), nil
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TaskRecord{},
	)
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// GetDB returns the database instance (helper for services)
func GetDB() *gorm.DB {
	return DB
}
