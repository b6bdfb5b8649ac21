// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wfunc/monopoly/models"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db, timeout: 5 * time.Second}, nil
}

// initTables 初始化数据库表结构，与 GORM 迁移出的表兼容
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_id TEXT NOT NULL,
            winner_id TEXT NOT NULL,
            winner_name TEXT NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS player_results (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            game_record_id BIGINT NOT NULL REFERENCES game_records(id),
            player_id TEXT NOT NULL,
            name TEXT NOT NULL,
            outcome TEXT NOT NULL,
            money BIGINT,
            properties BIGINT
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_finished_at ON game_records(finished_at);
        CREATE INDEX IF NOT EXISTS idx_player_results_game_record_id ON player_results(game_record_id);
        CREATE INDEX IF NOT EXISTS idx_player_results_name ON player_results(name);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
        INSERT INTO game_records (room_id, winner_id, winner_name, finished_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, record.RoomID, record.WinnerID, record.WinnerName, record.FinishedAt).Scan(&id)
	if err != nil {
		return err
	}

	for _, pr := range record.Players {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO player_results (game_record_id, player_id, name, outcome, money, properties)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, id, pr.PlayerID, pr.Name, pr.Outcome, pr.Money, pr.Properties)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var (
		total, wins int
		lastPlayed  sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN r.outcome = $2 THEN 1 ELSE 0 END), 0),
            MAX(g.finished_at)
        FROM player_results r
        JOIN game_records g ON g.id = r.game_record_id
        WHERE r.name = $1 AND r.deleted_at IS NULL
    `, name, models.OutcomeWin).Scan(&total, &wins, &lastPlayed)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrRecordNotFound
	}

	return &models.PlayerStats{
		Name:       name,
		TotalGames: total,
		Wins:       wins,
		Losses:     total - wins,
		LastPlayed: lastPlayed.Time,
	}, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
