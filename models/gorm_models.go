// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID     string             `gorm:"index;not null"`
	WinnerID   string             `gorm:"not null"`
	WinnerName string             `gorm:"not null"`
	FinishedAt time.Time          `gorm:"index;not null"`
	Results    []GormPlayerResult `gorm:"foreignKey:GameRecordID"`
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

// GormPlayerResult 每局每个玩家一行
type GormPlayerResult struct {
	gorm.Model
	GameRecordID uint   `gorm:"index;not null"`
	PlayerID     string `gorm:"not null"`
	Name         string `gorm:"index;not null"`
	Outcome      string `gorm:"not null"`
	Money        int
	Properties   int
}

func (GormPlayerResult) TableName() string {
	return "player_results"
}

// NewGormGameRecord converts a record into its table rows.
func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	rec := &GormGameRecord{
		RoomID:     r.RoomID,
		WinnerID:   r.WinnerID,
		WinnerName: r.WinnerName,
		FinishedAt: r.FinishedAt,
	}
	for _, p := range r.Players {
		rec.Results = append(rec.Results, GormPlayerResult{
			PlayerID:   p.PlayerID,
			Name:       p.Name,
			Outcome:    p.Outcome,
			Money:      p.Money,
			Properties: p.Properties,
		})
	}
	return rec
}
