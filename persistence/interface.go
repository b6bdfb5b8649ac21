// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/models"
)

// Database stores finished games. Rooms themselves are never persisted.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// Open picks the driver named in the configuration.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "pq":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
