package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rushteam/scenekit/pkg/logger"
)

// DBConfig 关系库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxLifetime int    `mapstructure:"max_lifetime"` // 分钟
	LogSQL      bool   `mapstructure:"log_sql"`
}

// OpenDB 打开 sqlite 数据库并配置连接池
func OpenDB(cfg DBConfig, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogSQL {
		level = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger:      logger.NewGormLogger(log, level),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}
	return db, nil
}

// Migrate 创建（或补齐）全部表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// Reset 删除并重建全部表
func Reset(db *gorm.DB) error {
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return err
		}
	}
	return Migrate(db)
}
