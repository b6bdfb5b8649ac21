// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// gormWriter routes gorm's log lines into zap.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Log.Debugf(format, args...)
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := gormlogger.New(
		gormWriter{},
		gormlogger.Config{
			SlowThreshold:             time.Second, // 慢SQL阈值
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	return newGormPostgreSQL(db)
}

func newGormPostgreSQL(db *gorm.DB) (*GormPostgreSQL, error) {
	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormPlayerResult{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord writes the game and its per-player rows in one transaction.
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	rec := models.NewGormGameRecord(record)
	return p.db.Transaction(func(tx *gorm.DB) error {
		results := rec.Results
		rec.Results = nil
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		for i := range results {
			results[i].GameRecordID = rec.ID
		}
		return tx.Create(&results).Error
	})
}

func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var row struct {
		TotalGames int
		Wins       int
		LastPlayed *time.Time
	}

	err := p.db.Model(&models.GormPlayerResult{}).
		Select(`COUNT(*) AS total_games,
			COALESCE(SUM(CASE WHEN player_results.outcome = ? THEN 1 ELSE 0 END), 0) AS wins,
			MAX(game_records.finished_at) AS last_played`, models.OutcomeWin).
		Joins("JOIN game_records ON game_records.id = player_results.game_record_id").
		Where("player_results.name = ?", name).
		Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if row.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}

	stats := &models.PlayerStats{
		Name:       name,
		TotalGames: row.TotalGames,
		Wins:       row.Wins,
		Losses:     row.TotalGames - row.Wins,
	}
	if row.LastPlayed != nil {
		stats.LastPlayed = *row.LastPlayed
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
