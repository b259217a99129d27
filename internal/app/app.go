package app

import (
	"database/sql"
	"fmt"

	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the connections a process owns and must close.
type Infra struct {
	GormDB *gorm.DB
	DB     *sql.DB
	Redis  *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

// Connect opens the database and, when configured, Redis. SQLite databases
// are auto-migrated because the SQL migrations target Postgres.
func Connect(cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	infra := &Infra{GormDB: gormDB, DB: sqlDB}

	if cfg.Database.Driver == "sqlite" {
		if err := AutoMigrate(gormDB); err != nil {
			infra.Close()
			return nil, fmt.Errorf("sqlite auto-migrate: %w", err)
		}
	}

	if cfg.Redis.Addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
	}

	return infra, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&employee.Employee{}, &leave.LeaveApplication{}, &leave.LeaveDraft{})
}

// BuildApp connects infrastructure and mounts every module on router. The
// returned Infra must be closed by the caller.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	infra, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := registerModules(router, cfg, infra, logger); err != nil {
		infra.Close()
		return nil, err
	}
	return infra, nil
}
