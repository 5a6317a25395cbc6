package db

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crypto-persona-backend/internal/config"
	"crypto-persona-backend/internal/model"
)

var (
	conn   *gorm.DB
	connMu sync.RWMutex
)

// InitDBFromConfig opens the postgres connection of the image ledger and applies the
// pool settings. With INITIALIZE set it also migrates the schema.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	pool := cfg.DB.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	}

	if cfg.DB.Initialize {
		if err := gdb.AutoMigrate(&model.ProfileImage{}); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	connMu.Lock()
	conn = gdb
	connMu.Unlock()
	return gdb, nil
}

// GetDB returns the connection opened by InitDBFromConfig, or nil.
func GetDB() *gorm.DB {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// Close releases the pooled connections.
func Close() error {
	connMu.Lock()
	defer connMu.Unlock()
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	conn = nil
	return sqlDB.Close()
}
