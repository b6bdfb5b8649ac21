// models/models.go
package models

import (
	"time"
)

const (
	OutcomeWin      = "win"
	OutcomeBankrupt = "bankrupt"
	OutcomeLose     = "lose"
)

// GameRecord 游戏记录模型
type GameRecord struct {
	RoomID     string         `json:"room_id"`
	WinnerID   string         `json:"winner_id"`
	WinnerName string         `json:"winner_name"`
	Players    []PlayerResult `json:"players"`
	FinishedAt time.Time      `json:"finished_at"`
}

// PlayerResult 玩家信息（用于游戏记录）
type PlayerResult struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Outcome    string `json:"outcome"` // win/bankrupt/lose
	Money      int    `json:"money"`
	Properties int    `json:"properties"`
}

// PlayerStats 玩家统计信息, keyed by display name
type PlayerStats struct {
	Name       string    `json:"name"`
	TotalGames int       `json:"total_games"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	LastPlayed time.Time `json:"last_played"`
}
